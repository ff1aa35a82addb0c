package backend

import (
	"context"
	"errors"

	"github.com/contentworks/workflow/core"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrStateNotFound    = errors.New("workflow state not found")
	ErrRoleNotFound     = errors.New("workflow role not found")

	// ErrConcurrentModification is returned by Persist when the stored
	// version no longer matches the version the graph was loaded with. The
	// engine propagates it unchanged; there is no automatic merge or retry.
	ErrConcurrentModification = errors.New("workflow was modified concurrently")
)

const TracerName = "content-workflow"

// WorkflowStore persists workflow graphs. Implementations must return fully
// materialized graphs: every nested collection loaded, no lazy fetches after
// the call returns, because graphs outlive the request and are shared across
// threads through the repository cache.
type WorkflowStore interface {
	// Workflows returns all workflow graphs, fully materialized.
	Workflows(ctx context.Context) ([]*core.Workflow, error)

	// Workflow returns the graph with the given id, fully materialized.
	// Returns ErrWorkflowNotFound if the id does not exist.
	Workflow(ctx context.Context, id int64) (*core.Workflow, error)

	// Create persists a new workflow graph. If the graph's id is zero the
	// store allocates one and sets it on the graph.
	Create(ctx context.Context, w *core.Workflow) error

	// Persist writes the full graph, replacing the stored definition. The
	// graph's Version field carries the new version; the store must reject
	// the write with ErrConcurrentModification unless the stored version is
	// exactly Version-1.
	Persist(ctx context.Context, w *core.Workflow) error

	// Delete removes the workflow graph. Returns ErrWorkflowNotFound if the
	// id does not exist.
	Delete(ctx context.Context, id int64) error

	// Close closes any underlying resources.
	Close() error
}

// AdhocStore provides per-content-item ad-hoc assignment records. The engine
// consumes these records; it never creates them as part of graph mutations.
type AdhocStore interface {
	// FindByItem returns all ad-hoc assignments for the given content item.
	FindByItem(ctx context.Context, contentID string) ([]*core.AdhocAssignment, error)

	// FindByUser returns all ad-hoc assignments naming the given user.
	FindByUser(ctx context.Context, userName string) ([]*core.AdhocAssignment, error)

	// Save adds or replaces an ad-hoc assignment record.
	Save(ctx context.Context, a *core.AdhocAssignment) error

	// DeleteByItem removes all ad-hoc assignments for the given content item.
	DeleteByItem(ctx context.Context, contentID string) error
}

// CommunityRoleAssociation links a role to a community for visibility
// filtering. A role with no associations is visible everywhere.
type CommunityRoleAssociation struct {
	RoleID      int64
	CommunityID int64
}

// CommunityRoleStore provides community visibility associations for roles.
type CommunityRoleStore interface {
	// AssociationsFor returns the community associations for the given role
	// ids. Roles without associations are simply absent from the result.
	AssociationsFor(ctx context.Context, roleIDs []int64) ([]CommunityRoleAssociation, error)
}

// ChangeNotifier distributes workflow change notifications between processes
// so that every repository cache drops stale graphs.
type ChangeNotifier interface {
	// NotifyWorkflowChanged publishes a change notification for the workflow.
	NotifyWorkflowChanged(ctx context.Context, workflowID int64) error

	// OnWorkflowChanged registers a handler invoked for every change
	// notification, including those published by other processes. The
	// handler must be safe for concurrent use.
	OnWorkflowChanged(handler func(workflowID int64))

	// Close stops delivery and releases the subscription.
	Close() error
}
