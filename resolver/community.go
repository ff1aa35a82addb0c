package resolver

import (
	"context"
	"fmt"

	"github.com/contentworks/workflow/core"
)

// filterRoleIDsByCommunity retains a role if it is not a community role (no
// visibility association exists for it) or if the given community is among
// the communities associated with it. Identity when community filtering is
// disabled. The result is always a subset of the input.
func (r *Resolver) filterRoleIDsByCommunity(ctx context.Context, communityID int64, roleIDs []int64) ([]int64, error) {
	if !r.options.CommunityFiltering || len(roleIDs) == 0 {
		return roleIDs, nil
	}

	associations, err := r.communities.AssociationsFor(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("loading community associations: %w", err)
	}

	visible := map[int64]bool{}
	communityRole := map[int64]bool{}
	for _, a := range associations {
		communityRole[a.RoleID] = true
		if a.CommunityID == communityID {
			visible[a.RoleID] = true
		}
	}

	filtered := make([]int64, 0, len(roleIDs))
	for _, id := range roleIDs {
		if !communityRole[id] || visible[id] {
			filtered = append(filtered, id)
		}
	}

	return filtered, nil
}

// FilterRoleIDs filters role ids by the community of the given content item.
func (r *Resolver) FilterRoleIDs(ctx context.Context, contentID string, roleIDs []int64) ([]int64, error) {
	if !r.options.CommunityFiltering {
		return roleIDs, nil
	}

	communityID, err := r.contentCommunity(ctx, contentID)
	if err != nil {
		return nil, err
	}

	return r.filterRoleIDsByCommunity(ctx, communityID, roleIDs)
}

// FilterRoleNamesByContent filters role names by the community of the given
// content item. Names are resolved against the workflow's role set.
func (r *Resolver) FilterRoleNamesByContent(ctx context.Context, w *core.Workflow, contentID string, roleNames []string) ([]string, error) {
	if !r.options.CommunityFiltering {
		return roleNames, nil
	}

	communityID, err := r.contentCommunity(ctx, contentID)
	if err != nil {
		return nil, err
	}

	return r.FilterRoleNames(ctx, w, communityID, roleNames)
}

// FilterRoleNames filters role names by an explicit community id. Names that
// do not resolve to a role in the workflow are retained; community filtering
// only restricts roles known to carry visibility associations.
func (r *Resolver) FilterRoleNames(ctx context.Context, w *core.Workflow, communityID int64, roleNames []string) ([]string, error) {
	if !r.options.CommunityFiltering || len(roleNames) == 0 {
		return roleNames, nil
	}

	ids := make([]int64, 0, len(roleNames))
	byID := map[int64]bool{}
	for _, name := range roleNames {
		resolved := r.resolveRoleIDs(w, []string{name})
		if len(resolved) == 1 {
			ids = append(ids, resolved[0])
			byID[resolved[0]] = false
		}
	}

	filtered, err := r.filterRoleIDsByCommunity(ctx, communityID, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range filtered {
		byID[id] = true
	}

	names := make([]string, 0, len(roleNames))
	for _, name := range roleNames {
		resolved := r.resolveRoleIDs(w, []string{name})
		if len(resolved) == 0 || byID[resolved[0]] {
			names = append(names, name)
		}
	}

	return names, nil
}

func (r *Resolver) contentCommunity(ctx context.Context, contentID string) (int64, error) {
	if r.options.ContentCommunity == nil {
		return 0, core.NewConfigurationError(
			"community filtering is enabled but no content community lookup is configured")
	}

	communityID, err := r.options.ContentCommunity(ctx, contentID)
	if err != nil {
		return 0, fmt.Errorf("resolving community for content %s: %w", contentID, err)
	}

	return communityID, nil
}
