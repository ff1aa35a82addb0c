package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/backend/sqlite"
	"github.com/contentworks/workflow/core"
)

// fakeNotifier delivers notifications synchronously in-process.
type fakeNotifier struct {
	handlers []func(int64)
}

func (f *fakeNotifier) NotifyWorkflowChanged(ctx context.Context, workflowID int64) error {
	for _, h := range f.handlers {
		h(workflowID)
	}

	return nil
}

func (f *fakeNotifier) OnWorkflowChanged(handler func(workflowID int64)) {
	f.handlers = append(f.handlers, handler)
}

func (f *fakeNotifier) Close() error {
	return nil
}

func storeWithWorkflow(t *testing.T, w *core.Workflow) *sqlite.Store {
	t.Helper()

	s := sqlite.NewInMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Create(context.Background(), w))

	return s
}

func draftOnlyWorkflow() *core.Workflow {
	return &core.Workflow{
		ID:   1,
		Name: "Standard",
		Roles: []*core.Role{
			{ID: 10, WorkflowID: 1, Name: "Author"},
		},
		States: []*core.State{
			{
				ID: 100, WorkflowID: 1, Name: "Draft",
				AssignedRoles: []*core.AssignedRole{
					{RoleID: 10, WorkflowID: 1, StateID: 100, AssignmentType: core.AssignmentTypeAssignee},
				},
			},
		},
	}
}

func Test_Load_NotFound(t *testing.T) {
	s := sqlite.NewInMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	r := New(s, nil)

	_, err := r.Load(context.Background(), 42)
	require.ErrorIs(t, err, backend.ErrWorkflowNotFound)
}

func Test_Load_CachesGraph(t *testing.T) {
	ctx := context.Background()
	s := storeWithWorkflow(t, draftOnlyWorkflow())
	r := New(s, nil)

	first, err := r.Load(ctx, 1)
	require.NoError(t, err)

	second, err := r.Load(ctx, 1)
	require.NoError(t, err)
	require.Same(t, first, second)
}

func Test_Save_BumpsVersionAndEvicts(t *testing.T) {
	ctx := context.Background()
	s := storeWithWorkflow(t, draftOnlyWorkflow())
	r := New(s, nil)

	before, err := r.Load(ctx, 1)
	require.NoError(t, err)

	mutated := before.Clone()
	mutated.Description = "updated"
	require.NoError(t, r.Save(ctx, mutated))

	after, err := r.Load(ctx, 1)
	require.NoError(t, err)
	require.NotSame(t, before, after)
	require.Greater(t, after.Version, before.Version)
	require.Equal(t, "updated", after.Description)
}

func Test_Save_ConflictRestoresVersion(t *testing.T) {
	ctx := context.Background()
	s := storeWithWorkflow(t, draftOnlyWorkflow())
	r := New(s, nil)

	loaded, err := r.Load(ctx, 1)
	require.NoError(t, err)

	winner := loaded.Clone()
	require.NoError(t, r.Save(ctx, winner))

	stale := loaded.Clone()
	err = r.Save(ctx, stale)
	require.ErrorIs(t, err, backend.ErrConcurrentModification)
	require.Equal(t, loaded.Version, stale.Version)
}

func Test_Invalidate_DropsCachedGraph(t *testing.T) {
	ctx := context.Background()
	s := storeWithWorkflow(t, draftOnlyWorkflow())
	r := New(s, nil)

	first, err := r.Load(ctx, 1)
	require.NoError(t, err)

	r.Invalidate(1)

	second, err := r.Load(ctx, 1)
	require.NoError(t, err)
	require.NotSame(t, first, second)
}

func Test_Notifier_InvalidatesOtherRepositories(t *testing.T) {
	ctx := context.Background()
	s := storeWithWorkflow(t, draftOnlyWorkflow())

	notifier := &fakeNotifier{}
	writer := New(s, notifier)
	reader := New(s, notifier)

	cached, err := reader.Load(ctx, 1)
	require.NoError(t, err)

	mutated, err := writer.Load(ctx, 1)
	require.NoError(t, err)

	clone := mutated.Clone()
	clone.Description = "changed elsewhere"
	require.NoError(t, writer.Save(ctx, clone))

	fresh, err := reader.Load(ctx, 1)
	require.NoError(t, err)
	require.NotSame(t, cached, fresh)
	require.Equal(t, "changed elsewhere", fresh.Description)
}

func Test_Delete_EvictsCache(t *testing.T) {
	ctx := context.Background()
	s := storeWithWorkflow(t, draftOnlyWorkflow())
	r := New(s, nil)

	_, err := r.Load(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, 1))

	_, err = r.Load(ctx, 1)
	require.ErrorIs(t, err, backend.ErrWorkflowNotFound)
}
