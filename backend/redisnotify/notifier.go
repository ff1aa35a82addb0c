// Package redisnotify distributes workflow change notifications over redis
// pub/sub so that repository caches in every process drop stale graphs.
package redisnotify

import (
	"context"
	"strconv"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/contentworks/workflow/backend"
)

const changeChannel = "workflow:changed"

type Notifier struct {
	rdb     redis.UniversalClient
	options backend.Options

	mu       sync.RWMutex
	handlers []func(workflowID int64)

	cancel context.CancelFunc
	done   chan struct{}
}

var _ backend.ChangeNotifier = (*Notifier)(nil)

// New creates a notifier and starts its subscription loop. Close must be
// called to release it.
func New(client redis.UniversalClient, opts ...backend.BackendOption) *Notifier {
	ctx, cancel := context.WithCancel(context.Background())

	n := &Notifier{
		rdb:     client,
		options: backend.ApplyOptions(opts...),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go n.run(ctx)

	return n
}

func (n *Notifier) NotifyWorkflowChanged(ctx context.Context, workflowID int64) error {
	return n.rdb.Publish(ctx, changeChannel, strconv.FormatInt(workflowID, 10)).Err()
}

func (n *Notifier) OnWorkflowChanged(handler func(workflowID int64)) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.handlers = append(n.handlers, handler)
}

func (n *Notifier) Close() error {
	n.cancel()
	<-n.done

	return nil
}

func (n *Notifier) run(ctx context.Context) {
	defer close(n.done)

	sub := n.rdb.Subscribe(ctx, changeChannel)
	defer sub.Close()

	bo := backoff.NewExponentialBackOff()

	for {
		msg, err := sub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			n.options.Logger.Warn("receiving workflow change notification", "error", err)

			t := backoff.NewTicker(bo)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			t.Stop()

			continue
		}

		bo.Reset()

		workflowID, err := strconv.ParseInt(msg.Payload, 10, 64)
		if err != nil {
			n.options.Logger.Warn("ignoring malformed change notification", "payload", msg.Payload)
			continue
		}

		n.mu.RLock()
		handlers := make([]func(int64), len(n.handlers))
		copy(handlers, n.handlers)
		n.mu.RUnlock()

		for _, h := range handlers {
			h(workflowID)
		}
	}
}
