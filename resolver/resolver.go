// Package resolver computes effective assignment types: which permission
// level a user holds on a content item given its workflow state, the user's
// roles, per-item ad-hoc assignments and community visibility.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/core"
)

type Resolver struct {
	adhoc       backend.AdhocStore
	communities backend.CommunityRoleStore
	options     *Options

	// Role name to id mapping cache, per workflow. Guarded by mu; lookups of
	// already-resolved names never consult the graph again, unseen names
	// extend the cache.
	mu    sync.Mutex
	names map[int64]map[string]int64
}

func New(adhoc backend.AdhocStore, communities backend.CommunityRoleStore, opts ...ResolverOption) *Resolver {
	options := &Options{
		Options: backend.ApplyOptions(),
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Resolver{
		adhoc:       adhoc,
		communities: communities,
		options:     options,
		names:       map[int64]map[string]int64{},
	}
}

// Resolve returns the assigned roles of the given state. The returned slice
// is a copy; the graph itself is a shared cached snapshot and must not be
// mutated.
func (r *Resolver) Resolve(w *core.Workflow, stateID int64) ([]*core.AssignedRole, error) {
	s := w.StateByID(stateID)
	if s == nil {
		return nil, fmt.Errorf("state %d in workflow %d: %w", stateID, w.ID, backend.ErrStateNotFound)
	}

	assigned := make([]*core.AssignedRole, len(s.AssignedRoles))
	copy(assigned, s.AssignedRoles)

	return assigned, nil
}

// resolveRoleIDs maps role names to ids using the per-resolver cache,
// falling back to the graph for names not resolved before. Unknown names are
// skipped. Case-insensitive.
func (r *Resolver) resolveRoleIDs(w *core.Workflow, names []string) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	cached, ok := r.names[w.ID]
	if !ok {
		cached = map[string]int64{}
		r.names[w.ID] = cached
	}

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(name)

		id, ok := cached[key]
		if !ok {
			role := w.RoleByName(name)
			if role == nil {
				continue
			}

			id = role.ID
			cached[key] = id
		}

		ids = append(ids, id)
	}

	return ids
}

// InvalidateNames drops the cached role name mapping for a workflow. Called
// after mutations that rename, add or remove roles.
func (r *Resolver) InvalidateNames(workflowID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.names, workflowID)
}

// AssignmentType computes the effective assignment type for one user acting
// on one content item currently in the given state.
func (r *Resolver) AssignmentType(
	ctx context.Context, w *core.Workflow, stateID int64,
	contentID, userName string, userRoles []string, communityID int64,
) (core.AssignmentType, error) {
	assigned, err := r.Resolve(w, stateID)
	if err != nil {
		return core.AssignmentTypeNone, err
	}

	userRoleIDs := r.resolveRoleIDs(w, userRoles)

	filtered, err := r.filterRoleIDsByCommunity(ctx, communityID, userRoleIDs)
	if err != nil {
		return core.AssignmentTypeNone, err
	}

	adhoc, err := r.adhoc.FindByItem(ctx, contentID)
	if err != nil {
		return core.AssignmentTypeNone, fmt.Errorf("loading adhoc assignments for %s: %w", contentID, err)
	}

	return CalculateAssignmentType(assigned, filtered, userName, adhoc), nil
}

// AssignmentTypes computes assignment types for a list of content items, all
// in the same workflow state, preserving input order. Each item gets the
// same semantics as the single-item call.
func (r *Resolver) AssignmentTypes(
	ctx context.Context, w *core.Workflow, stateID int64,
	contentIDs []string, userName string, userRoles []string, communityID int64,
) ([]core.AssignmentType, error) {
	assigned, err := r.Resolve(w, stateID)
	if err != nil {
		return nil, err
	}

	userRoleIDs := r.resolveRoleIDs(w, userRoles)

	filtered, err := r.filterRoleIDsByCommunity(ctx, communityID, userRoleIDs)
	if err != nil {
		return nil, err
	}

	types := make([]core.AssignmentType, len(contentIDs))
	for i, contentID := range contentIDs {
		adhoc, err := r.adhoc.FindByItem(ctx, contentID)
		if err != nil {
			return nil, fmt.Errorf("loading adhoc assignments for %s: %w", contentID, err)
		}

		types[i] = CalculateAssignmentType(assigned, filtered, userName, adhoc)
	}

	return types, nil
}
