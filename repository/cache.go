package repository

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/contentworks/workflow/backend/metrics"
	"github.com/contentworks/workflow/core"
	"github.com/contentworks/workflow/internal/metrickeys"
)

// graphCache holds fully materialized workflow graphs shared by all request
// threads. Entries are immutable snapshots; eviction followed by reload is
// the only synchronization between writers and readers.
type graphCache struct {
	mc metrics.Client
	c  *ttlcache.Cache[int64, *core.Workflow]
}

func newGraphCache(mc metrics.Client, size int, expiration time.Duration) *graphCache {
	c := ttlcache.New(
		ttlcache.WithCapacity[int64, *core.Workflow](uint64(size)),
		ttlcache.WithTTL[int64, *core.Workflow](expiration),
	)

	c.OnEviction(func(ctx context.Context, er ttlcache.EvictionReason, i *ttlcache.Item[int64, *core.Workflow]) {
		reason := ""
		switch er {
		case ttlcache.EvictionReasonExpired:
			reason = "expired"
		case ttlcache.EvictionReasonCapacityReached:
			reason = "capacity"
		case ttlcache.EvictionReasonDeleted:
			reason = "deleted"
		}

		mc.Counter(metrickeys.WorkflowCacheEviction, metrics.Tags{metrickeys.EvictionReason: reason}, 1)
	})

	return &graphCache{
		mc: mc,
		c:  c,
	}
}

func (gc *graphCache) Get(workflowID int64) (*core.Workflow, bool) {
	e := gc.c.Get(workflowID)
	if e != nil {
		return e.Value(), true
	}

	return nil, false
}

func (gc *graphCache) Put(workflowID int64, w *core.Workflow) {
	gc.c.Set(workflowID, w, ttlcache.DefaultTTL)

	gc.mc.Gauge(metrickeys.WorkflowCacheSize, metrics.Tags{}, int64(gc.c.Len()))
}

func (gc *graphCache) Evict(workflowID int64) {
	gc.c.Delete(workflowID)

	gc.mc.Gauge(metrickeys.WorkflowCacheSize, metrics.Tags{}, int64(gc.c.Len()))
}

// StartEviction starts the cache's expired-entry eviction loop and blocks
// until the given context is canceled.
func (gc *graphCache) StartEviction(ctx context.Context) {
	go gc.c.Start()

	<-ctx.Done()

	gc.c.Stop()
}
