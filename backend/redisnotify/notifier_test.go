package redisnotify

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// Requires a local redis instance; skipped in short mode.
func Test_Notifier_DeliversChanges(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	defer goleak.VerifyNone(t)

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{"localhost:6379"},
	})
	defer client.Close()

	n := New(client)
	defer n.Close()

	received := make(chan int64, 1)
	n.OnWorkflowChanged(func(workflowID int64) {
		received <- workflowID
	})

	// Give the subscription loop a moment to attach before publishing.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, n.NotifyWorkflowChanged(context.Background(), 7))

	select {
	case id := <-received:
		require.Equal(t, int64(7), id)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}
