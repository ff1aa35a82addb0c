package test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/core"
)

// Store is the combined surface a storage implementation must provide to run
// the conformance suite.
type Store interface {
	backend.WorkflowStore
	backend.AdhocStore
	backend.CommunityRoleStore

	// AssociateCommunity seeds a community-role association for the
	// community filtering tests.
	AssociateCommunity(ctx context.Context, roleID, communityID int64) error
}

// StoreTest runs the conformance suite against a storage implementation.
func StoreTest(t *testing.T, setup func() Store, teardown func(s Store)) {
	tests := []struct {
		name string
		f    func(t *testing.T, ctx context.Context, s Store)
	}{
		{
			name: "Workflow_NotFound",
			f: func(t *testing.T, ctx context.Context, s Store) {
				_, err := s.Workflow(ctx, 42)
				require.ErrorIs(t, err, backend.ErrWorkflowNotFound)
			},
		},
		{
			name: "Create_AllocatesIDs",
			f: func(t *testing.T, ctx context.Context, s Store) {
				w := sampleWorkflow(0)
				w.Roles[0].ID = 0
				w.States[0].Transitions[0].ID = 0

				require.NoError(t, s.Create(ctx, w))
				require.NotZero(t, w.ID)
				require.NotZero(t, w.Roles[0].ID)
				require.NotZero(t, w.States[0].Transitions[0].ID)
			},
		},
		{
			name: "Create_Load_RoundTrip",
			f: func(t *testing.T, ctx context.Context, s Store) {
				w := sampleWorkflow(7)
				require.NoError(t, s.Create(ctx, w))

				loaded, err := s.Workflow(ctx, 7)
				require.NoError(t, err)
				require.Equal(t, w, loaded)
			},
		},
		{
			name: "Load_IsFullyMaterialized",
			f: func(t *testing.T, ctx context.Context, s Store) {
				w := sampleWorkflow(8)
				require.NoError(t, s.Create(ctx, w))

				loaded, err := s.Workflow(ctx, 8)
				require.NoError(t, err)

				draft := loaded.StateByName("Draft")
				require.NotNil(t, draft)
				require.Len(t, draft.AssignedRoles, 2)
				require.Len(t, draft.Transitions, 1)
				require.Len(t, draft.Transitions[0].TransitionRoles, 1)
				require.Len(t, draft.Transitions[0].Notifications, 1)
				require.Len(t, loaded.NotificationDefs, 1)
			},
		},
		{
			name: "Persist_RequiresVersionMatch",
			f: func(t *testing.T, ctx context.Context, s Store) {
				w := sampleWorkflow(9)
				require.NoError(t, s.Create(ctx, w))

				w.Version++
				require.NoError(t, s.Persist(ctx, w))

				stale := sampleWorkflow(9)
				stale.Version++ // same target version persisted above
				require.ErrorIs(t, s.Persist(ctx, stale), backend.ErrConcurrentModification)
			},
		},
		{
			name: "Persist_UnknownWorkflow",
			f: func(t *testing.T, ctx context.Context, s Store) {
				w := sampleWorkflow(10)
				w.Version = 1

				require.ErrorIs(t, s.Persist(ctx, w), backend.ErrWorkflowNotFound)
			},
		},
		{
			name: "Persist_ReplacesGraph",
			f: func(t *testing.T, ctx context.Context, s Store) {
				w := sampleWorkflow(11)
				require.NoError(t, s.Create(ctx, w))

				w.Roles = append(w.Roles, &core.Role{ID: 30, WorkflowID: 11, Name: "Editor"})
				w.States[0].AssignedRoles = w.States[0].AssignedRoles[:1]
				w.Version++
				require.NoError(t, s.Persist(ctx, w))

				loaded, err := s.Workflow(ctx, 11)
				require.NoError(t, err)
				require.Len(t, loaded.Roles, 3)
				require.Len(t, loaded.StateByName("Draft").AssignedRoles, 1)
				require.Equal(t, w.Version, loaded.Version)
			},
		},
		{
			name: "Delete_RemovesWorkflow",
			f: func(t *testing.T, ctx context.Context, s Store) {
				w := sampleWorkflow(12)
				require.NoError(t, s.Create(ctx, w))

				require.NoError(t, s.Delete(ctx, 12))

				_, err := s.Workflow(ctx, 12)
				require.ErrorIs(t, err, backend.ErrWorkflowNotFound)

				require.ErrorIs(t, s.Delete(ctx, 12), backend.ErrWorkflowNotFound)
			},
		},
		{
			name: "Workflows_ReturnsAll",
			f: func(t *testing.T, ctx context.Context, s Store) {
				require.NoError(t, s.Create(ctx, sampleWorkflow(1)))
				require.NoError(t, s.Create(ctx, sampleWorkflow(2)))

				all, err := s.Workflows(ctx)
				require.NoError(t, err)
				require.Len(t, all, 2)
				require.Equal(t, int64(1), all[0].ID)
				require.Equal(t, int64(2), all[1].ID)
			},
		},
		{
			name: "Adhoc_SaveAndFind",
			f: func(t *testing.T, ctx context.Context, s Store) {
				contentID := uuid.NewString()

				require.NoError(t, s.Save(ctx, &core.AdhocAssignment{
					ContentID: contentID, RoleID: 20, UserName: "buddy", AdhocType: core.AdhocEnabled,
				}))
				require.NoError(t, s.Save(ctx, &core.AdhocAssignment{
					ContentID: contentID, RoleID: 21, UserName: "casey", AdhocType: core.AdhocAnonymous,
				}))
				require.NoError(t, s.Save(ctx, &core.AdhocAssignment{
					ContentID: uuid.NewString(), RoleID: 20, UserName: "buddy", AdhocType: core.AdhocEnabled,
				}))

				byItem, err := s.FindByItem(ctx, contentID)
				require.NoError(t, err)
				require.Len(t, byItem, 2)

				byUser, err := s.FindByUser(ctx, "buddy")
				require.NoError(t, err)
				require.Len(t, byUser, 2)
			},
		},
		{
			name: "Adhoc_SaveReplaces",
			f: func(t *testing.T, ctx context.Context, s Store) {
				contentID := uuid.NewString()

				a := &core.AdhocAssignment{
					ContentID: contentID, RoleID: 20, UserName: "buddy", AdhocType: core.AdhocEnabled,
				}
				require.NoError(t, s.Save(ctx, a))

				a.AdhocType = core.AdhocAnonymous
				require.NoError(t, s.Save(ctx, a))

				byItem, err := s.FindByItem(ctx, contentID)
				require.NoError(t, err)
				require.Len(t, byItem, 1)
				require.Equal(t, core.AdhocAnonymous, byItem[0].AdhocType)
			},
		},
		{
			name: "Adhoc_DeleteByItem",
			f: func(t *testing.T, ctx context.Context, s Store) {
				contentID := uuid.NewString()

				require.NoError(t, s.Save(ctx, &core.AdhocAssignment{
					ContentID: contentID, RoleID: 20, UserName: "buddy",
				}))
				require.NoError(t, s.DeleteByItem(ctx, contentID))

				byItem, err := s.FindByItem(ctx, contentID)
				require.NoError(t, err)
				require.Empty(t, byItem)
			},
		},
		{
			name: "CommunityRoles_AssociationsFor",
			f: func(t *testing.T, ctx context.Context, s Store) {
				require.NoError(t, s.AssociateCommunity(ctx, 20, 300))
				require.NoError(t, s.AssociateCommunity(ctx, 20, 301))
				require.NoError(t, s.AssociateCommunity(ctx, 21, 300))

				associations, err := s.AssociationsFor(ctx, []int64{20, 22})
				require.NoError(t, err)
				require.Len(t, associations, 2)
				for _, a := range associations {
					require.Equal(t, int64(20), a.RoleID)
				}

				empty, err := s.AssociationsFor(ctx, nil)
				require.NoError(t, err)
				require.Empty(t, empty)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setup()

			t.Cleanup(func() {
				if teardown != nil {
					teardown(s)
				}

				_ = s.Close()
			})

			tt.f(t, context.Background(), s)
		})
	}
}

// sampleWorkflow builds a two-state graph exercising every table.
func sampleWorkflow(id int64) *core.Workflow {
	return &core.Workflow{
		ID:   id,
		Name: "Standard",
		Roles: []*core.Role{
			{ID: 20, WorkflowID: id, Name: "Author"},
			{ID: 21, WorkflowID: id, Name: "QA"},
		},
		NotificationDefs: []*core.NotificationDef{
			{ID: 40, WorkflowID: id, Subject: "Content changed state"},
		},
		States: []*core.State{
			{
				ID:         100,
				WorkflowID: id,
				Name:       "Draft",
				AssignedRoles: []*core.AssignedRole{
					{RoleID: 20, WorkflowID: id, StateID: 100, AssignmentType: core.AssignmentTypeAssignee, ShowInInbox: true},
					{RoleID: 21, WorkflowID: id, StateID: 100, AssignmentType: core.AssignmentTypeReader, DoNotify: true},
				},
				Transitions: []*core.Transition{
					{
						ID: 1000, WorkflowID: id, StateID: 100, ToStateID: 101,
						Label: "Submit", Trigger: "submit",
						TransitionRoles: []*core.TransitionRole{
							{RoleID: 20, TransitionID: 1000, WorkflowID: id},
						},
						Notifications: []*core.Notification{
							{ID: 2000, WorkflowID: id, TransitionID: 1000, NotificationDefID: 40},
						},
					},
				},
			},
			{
				ID:          101,
				WorkflowID:  id,
				Name:        "Public",
				Publishable: true,
			},
		},
	}
}
