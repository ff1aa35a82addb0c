// Package repository provides cached access to workflow graphs. Readers get
// immutable snapshots; every persisted mutation bumps the graph version,
// evicts the cached copy after the write completes and publishes a change
// notification so other processes evict theirs.
package repository

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/backend/metrics"
	"github.com/contentworks/workflow/core"
	"github.com/contentworks/workflow/internal/log"
	"github.com/contentworks/workflow/internal/metrickeys"
)

type Repository struct {
	store    backend.WorkflowStore
	notifier backend.ChangeNotifier

	cache   *graphCache
	options *Options
	tracer  trace.Tracer
}

// New creates a repository on top of the given store. If notifier is not
// nil, the repository subscribes to it and drops cached graphs whenever a
// change notification arrives, including notifications published by other
// processes.
func New(store backend.WorkflowStore, notifier backend.ChangeNotifier, opts ...RepositoryOption) *Repository {
	options := &Options{
		Options:   backend.ApplyOptions(),
		CacheSize: 128,
		CacheTTL:  time.Hour,
	}

	for _, opt := range opts {
		opt(options)
	}

	r := &Repository{
		store:    store,
		notifier: notifier,
		cache:    newGraphCache(options.Metrics, options.CacheSize, options.CacheTTL),
		options:  options,
		tracer:   options.TracerProvider.Tracer(backend.TracerName),
	}

	if notifier != nil {
		notifier.OnWorkflowChanged(r.Invalidate)
	}

	return r
}

// Load returns the fully materialized graph for the given workflow id,
// serving it from the cache when possible. On a cache miss the graph is
// checked for the required Live->Archive transition and repaired before it
// is published to the cache.
func (r *Repository) Load(ctx context.Context, workflowID int64) (*core.Workflow, error) {
	ctx, span := r.tracer.Start(ctx, "LoadWorkflow", trace.WithAttributes(
		attribute.Int64(log.WorkflowIDKey, workflowID),
	))
	defer span.End()

	if w, ok := r.cache.Get(workflowID); ok {
		r.options.Metrics.Counter(metrickeys.WorkflowCacheHit, metrics.Tags{}, 1)
		return w, nil
	}

	r.options.Metrics.Counter(metrickeys.WorkflowCacheMiss, metrics.Tags{}, 1)

	w, err := r.store.Workflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	repaired, skipped := ensureArchiveTransition(w)
	if skipped {
		r.options.Logger.Warn(
			"workflow lacks an Archive state, skipping archive transition repair",
			log.WorkflowIDKey, w.ID,
			log.WorkflowNameKey, w.Name,
		)
	}

	if repaired {
		w.Version++
		if err := r.store.Persist(ctx, w); err != nil {
			return nil, fmt.Errorf("persisting repaired workflow %d: %w", w.ID, err)
		}

		r.options.Metrics.Counter(metrickeys.WorkflowRepaired, metrics.Tags{}, 1)
		r.options.Logger.Warn(
			"repaired missing or inconsistent archive transition",
			log.WorkflowIDKey, w.ID,
			log.WorkflowNameKey, w.Name,
			log.VersionKey, w.Version,
		)
	}

	r.cache.Put(workflowID, w)
	r.options.Metrics.Counter(metrickeys.WorkflowLoaded, metrics.Tags{}, 1)

	return w, nil
}

// Workflows returns every graph, bypassing the cache. Used by mutations that
// touch all workflows; single-graph readers should use Load.
func (r *Repository) Workflows(ctx context.Context) ([]*core.Workflow, error) {
	return r.store.Workflows(ctx)
}

// Save persists the graph, bumping its version. The cached copy is evicted
// only after the write completed, so concurrent readers never observe a
// partially written graph; they keep the previous snapshot until eviction
// and then reload a consistent one.
func (r *Repository) Save(ctx context.Context, w *core.Workflow) error {
	ctx, span := r.tracer.Start(ctx, "SaveWorkflow", trace.WithAttributes(
		attribute.Int64(log.WorkflowIDKey, w.ID),
	))
	defer span.End()

	w.Version++

	if err := r.store.Persist(ctx, w); err != nil {
		w.Version--
		return err
	}

	r.cache.Evict(w.ID)

	r.options.Metrics.Counter(metrickeys.WorkflowSaved, metrics.Tags{}, 1)
	r.options.Logger.Debug(
		"saved workflow",
		log.WorkflowIDKey, w.ID,
		log.VersionKey, w.Version,
	)

	return r.notifyChanged(ctx, w.ID)
}

// Create persists a new graph. The graph is not cached until first load.
func (r *Repository) Create(ctx context.Context, w *core.Workflow) error {
	if err := r.store.Create(ctx, w); err != nil {
		return err
	}

	r.options.Logger.Debug(
		"created workflow",
		log.WorkflowIDKey, w.ID,
		log.WorkflowNameKey, w.Name,
	)

	return nil
}

// Delete removes the graph from the store and the cache.
func (r *Repository) Delete(ctx context.Context, workflowID int64) error {
	if err := r.store.Delete(ctx, workflowID); err != nil {
		return err
	}

	r.cache.Evict(workflowID)

	return r.notifyChanged(ctx, workflowID)
}

// Invalidate drops the cached graph for the given workflow id. Safe to call
// from notification callbacks on any goroutine.
func (r *Repository) Invalidate(workflowID int64) {
	r.cache.Evict(workflowID)
}

// StartEviction starts the cache's expired-entry eviction loop and blocks
// until the given context is canceled.
func (r *Repository) StartEviction(ctx context.Context) {
	r.cache.StartEviction(ctx)
}

func (r *Repository) notifyChanged(ctx context.Context, workflowID int64) error {
	if r.notifier == nil {
		return nil
	}

	if err := r.notifier.NotifyWorkflowChanged(ctx, workflowID); err != nil {
		return fmt.Errorf("publishing change notification for workflow %d: %w", workflowID, err)
	}

	return nil
}
