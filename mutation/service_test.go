package mutation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/backend/sqlite"
	"github.com/contentworks/workflow/core"
	"github.com/contentworks/workflow/repository"
)

type fakeNameCache struct {
	invalidated []int64
}

func (f *fakeNameCache) InvalidateNames(workflowID int64) {
	f.invalidated = append(f.invalidated, workflowID)
}

func standardWorkflow() *core.Workflow {
	return &core.Workflow{
		ID:   1,
		Name: "Standard",
		Roles: []*core.Role{
			{ID: 10, WorkflowID: 1, Name: "Author"},
			{ID: 11, WorkflowID: 1, Name: "QA"},
		},
		States: []*core.State{
			{
				ID: 100, WorkflowID: 1, Name: "Draft", SortOrder: 0,
				AssignedRoles: []*core.AssignedRole{
					{RoleID: 10, WorkflowID: 1, StateID: 100, AssignmentType: core.AssignmentTypeAssignee, AdhocType: core.AdhocAnonymous, DoNotify: true},
					{RoleID: 11, WorkflowID: 1, StateID: 100, AssignmentType: core.AssignmentTypeReader},
				},
				Transitions: []*core.Transition{
					{
						ID: 1000, WorkflowID: 1, StateID: 100, ToStateID: 101, Label: "Submit",
						TransitionRoles: []*core.TransitionRole{
							{RoleID: 10, TransitionID: 1000, WorkflowID: 1},
						},
					},
				},
			},
			{
				ID: 101, WorkflowID: 1, Name: "Review", SortOrder: 1,
				AssignedRoles: []*core.AssignedRole{
					{RoleID: 11, WorkflowID: 1, StateID: 101, AssignmentType: core.AssignmentTypeAssignee},
				},
			},
		},
	}
}

func localContentWorkflow() *core.Workflow {
	return &core.Workflow{
		ID:   2,
		Name: core.LocalContentWorkflow,
		Roles: []*core.Role{
			{ID: 10, WorkflowID: 2, Name: "Owner"},
		},
		States: []*core.State{
			{
				ID: 100, WorkflowID: 2, Name: "Current",
				AssignedRoles: []*core.AssignedRole{
					{RoleID: 10, WorkflowID: 2, StateID: 100, AssignmentType: core.AssignmentTypeAssignee},
				},
			},
		},
	}
}

func serviceFixture(t *testing.T, opts ...ServiceOption) (*Service, *repository.Repository) {
	t.Helper()

	s := sqlite.NewInMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Create(ctx, standardWorkflow()))
	require.NoError(t, s.Create(ctx, localContentWorkflow()))

	repo := repository.New(s, nil)

	return New(repo, opts...), repo
}

func Test_AddWorkflowRole_AllWorkflows(t *testing.T) {
	ctx := context.Background()
	svc, repo := serviceFixture(t)

	require.NoError(t, svc.AddWorkflowRole(ctx, nil, "Editor"))

	standard, err := repo.Load(ctx, 1)
	require.NoError(t, err)

	editor := standard.RoleByName("Editor")
	require.NotNil(t, editor)

	for _, state := range standard.States {
		ar := state.AssignedRoleFor(editor.ID)
		require.NotNil(t, ar)
		require.Equal(t, core.AssignmentTypeReader, ar.AssignmentType)
		require.Equal(t, core.AdhocDisabled, ar.AdhocType)
	}

	local, err := repo.Load(ctx, 2)
	require.NoError(t, err)

	editor = local.RoleByName("Editor")
	require.NotNil(t, editor)
	require.Equal(t, core.AssignmentTypeAssignee,
		local.States[0].AssignedRoleFor(editor.ID).AssignmentType)
}

func Test_AddWorkflowRole_ExistingIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc, repo := serviceFixture(t)

	before, err := repo.Load(ctx, 1)
	require.NoError(t, err)

	workflowID := int64(1)
	require.NoError(t, svc.AddWorkflowRole(ctx, &workflowID, "Author"))

	after, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, before.Version, after.Version)
	require.Len(t, after.Roles, len(before.Roles))
}

func Test_AddThenRemoveRole_RestoresGraph(t *testing.T) {
	ctx := context.Background()
	svc, repo := serviceFixture(t)

	before, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	snapshot := before.Clone()

	workflowID := int64(1)
	require.NoError(t, svc.AddWorkflowRole(ctx, &workflowID, "Temp"))

	removed, err := svc.RemoveWorkflowRole(ctx, &workflowID, "Temp")
	require.NoError(t, err)
	require.True(t, removed)

	after, err := repo.Load(ctx, 1)
	require.NoError(t, err)

	// Two mutations later the graph contents are exactly what they were.
	restored := after.Clone()
	restored.Version = snapshot.Version
	require.Equal(t, snapshot, restored)
	require.Equal(t, before.Version+2, after.Version)
}

func Test_RemoveWorkflowRole_Missing(t *testing.T) {
	ctx := context.Background()
	svc, repo := serviceFixture(t)

	before, err := repo.Load(ctx, 1)
	require.NoError(t, err)

	removed, err := svc.RemoveWorkflowRole(ctx, nil, "Ghost")
	require.NoError(t, err)
	require.False(t, removed)

	after, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, before.Version, after.Version)
}

func Test_RemoveWorkflowRole_ScrubsStatesAndTransitions(t *testing.T) {
	ctx := context.Background()
	svc, repo := serviceFixture(t)

	workflowID := int64(1)
	removed, err := svc.RemoveWorkflowRole(ctx, &workflowID, "Author")
	require.NoError(t, err)
	require.True(t, removed)

	w, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, w.RoleByName("Author"))

	draft := w.StateByName("Draft")
	require.Nil(t, draft.AssignedRoleFor(10))
	require.Empty(t, draft.Transitions[0].TransitionRoles)
}

func Test_CopyWorkflowRole(t *testing.T) {
	ctx := context.Background()
	svc, repo := serviceFixture(t)

	localBefore, err := repo.Load(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, svc.CopyWorkflowRole(ctx, "Author", "Editor"))

	w, err := repo.Load(ctx, 1)
	require.NoError(t, err)

	editor := w.RoleByName("Editor")
	require.NotNil(t, editor)

	// Per-state permissions and flags match the source role.
	draft := w.StateByName("Draft")
	src := draft.AssignedRoleFor(10)
	dst := draft.AssignedRoleFor(editor.ID)
	require.NotNil(t, dst)
	require.Equal(t, src.AssignmentType, dst.AssignmentType)
	require.Equal(t, src.AdhocType, dst.AdhocType)
	require.Equal(t, src.DoNotify, dst.DoNotify)
	require.Equal(t, src.ShowInInbox, dst.ShowInInbox)

	// Review has no Author entry, so no Editor entry is added.
	require.Nil(t, w.StateByName("Review").AssignedRoleFor(editor.ID))

	// Transition membership is copied.
	require.True(t, draft.Transitions[0].HasRole(editor.ID))

	// The LocalContent workflow has no Author role and is untouched.
	localAfter, err := repo.Load(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, localBefore.Version, localAfter.Version)
}

func Test_CopyWorkflowRole_UnknownSourceRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := serviceFixture(t)

	err := svc.CopyWorkflowRole(ctx, "Ghost", "Editor")
	require.ErrorIs(t, err, backend.ErrRoleNotFound)
}

func Test_CopyWorkflowRole_RerunIsNoOp(t *testing.T) {
	ctx := context.Background()
	svc, repo := serviceFixture(t)

	require.NoError(t, svc.CopyWorkflowRole(ctx, "Author", "Editor"))

	first, err := repo.Load(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.CopyWorkflowRole(ctx, "Author", "Editor"))

	second, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, first.Version, second.Version)
}

func Test_DeleteWorkflow_GuardsDefault(t *testing.T) {
	ctx := context.Background()

	s := sqlite.NewInMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	def := standardWorkflow()
	def.Default = true
	require.NoError(t, s.Create(ctx, def))

	repo := repository.New(s, nil)
	svc := New(repo)

	err := svc.DeleteWorkflow(ctx, def.ID)
	require.Error(t, err)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = repo.Load(ctx, def.ID)
	require.NoError(t, err)
}

func Test_DeleteWorkflow(t *testing.T) {
	ctx := context.Background()
	svc, repo := serviceFixture(t)

	require.NoError(t, svc.DeleteWorkflow(ctx, 1))

	_, err := repo.Load(ctx, 1)
	require.Error(t, err)
}

func Test_CreateWorkflow_RejectsInvalidGraph(t *testing.T) {
	ctx := context.Background()
	svc, _ := serviceFixture(t)

	w := standardWorkflow()
	w.ID = 0
	w.Name = "Broken"
	w.Roles = append(w.Roles, &core.Role{ID: 12, WorkflowID: 1, Name: "author"})

	err := svc.CreateWorkflow(ctx, w)
	require.Error(t, err)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}

func Test_EnsureArchiveTransition(t *testing.T) {
	ctx := context.Background()

	s := sqlite.NewInMemoryStore()
	t.Cleanup(func() { _ = s.Close() })

	healable := &core.Workflow{
		ID:   1,
		Name: "Publishing",
		Roles: []*core.Role{
			{ID: 10, WorkflowID: 1, Name: "Author"},
		},
		States: []*core.State{
			{ID: 100, WorkflowID: 1, Name: core.LiveStateName},
			{ID: 101, WorkflowID: 1, Name: core.ArchiveStateName},
		},
	}
	require.NoError(t, s.Create(ctx, healable))

	unhealable := &core.Workflow{
		ID:   2,
		Name: "LiveOnly",
		Roles: []*core.Role{
			{ID: 10, WorkflowID: 2, Name: "Author"},
		},
		States: []*core.State{
			{ID: 100, WorkflowID: 2, Name: core.LiveStateName},
		},
	}
	require.NoError(t, s.Create(ctx, unhealable))

	repo := repository.New(s, nil)
	svc := New(repo)

	require.NoError(t, svc.EnsureArchiveTransition(ctx, 1))

	err := svc.EnsureArchiveTransition(ctx, 2)
	require.Error(t, err)

	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}

func Test_NameCache_InvalidatedOnPersist(t *testing.T) {
	ctx := context.Background()
	nc := &fakeNameCache{}
	svc, _ := serviceFixture(t, WithNameCache(nc))

	require.NoError(t, svc.AddWorkflowRole(ctx, nil, "Editor"))
	require.ElementsMatch(t, []int64{1, 2}, nc.invalidated)
}
