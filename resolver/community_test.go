package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/core"
)

func communityResolver(t *testing.T, filtering bool, associations []backend.CommunityRoleAssociation, itemCommunity int64) *Resolver {
	t.Helper()

	opts := []ResolverOption{
		WithCommunityFiltering(filtering),
		WithContentCommunity(func(ctx context.Context, contentID string) (int64, error) {
			return itemCommunity, nil
		}),
	}

	return New(&fakeAdhocStore{}, &fakeCommunityStore{associations: associations}, opts...)
}

func Test_FilterRoleIDs_IsIdentityWhenDisabled(t *testing.T) {
	r := communityResolver(t, false, []backend.CommunityRoleAssociation{
		{RoleID: qaRole, CommunityID: 300},
	}, 999)

	ids, err := r.FilterRoleIDs(context.Background(), "501", []int64{qaRole, authorRole})
	require.NoError(t, err)
	require.Equal(t, []int64{qaRole, authorRole}, ids)
}

func Test_FilterRoleIDs_IsRestriction(t *testing.T) {
	associations := []backend.CommunityRoleAssociation{
		{RoleID: qaRole, CommunityID: 300},
		{RoleID: qaRole, CommunityID: 301},
		{RoleID: authorRole, CommunityID: 999},
	}

	tests := []struct {
		name          string
		itemCommunity int64
		input         []int64
		want          []int64
	}{
		{
			name:          "matching community keeps community role",
			itemCommunity: 300,
			input:         []int64{qaRole, authorRole, adminRole},
			want:          []int64{qaRole, adminRole},
		},
		{
			name:          "other community drops community roles",
			itemCommunity: 555,
			input:         []int64{qaRole, authorRole, adminRole},
			want:          []int64{adminRole},
		},
		{
			name:          "non-community roles always pass",
			itemCommunity: 555,
			input:         []int64{adminRole},
			want:          []int64{adminRole},
		},
		{
			name:          "empty input",
			itemCommunity: 300,
			input:         nil,
			want:          nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := communityResolver(t, true, associations, tt.itemCommunity)

			got, err := r.FilterRoleIDs(context.Background(), "501", tt.input)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			// Always a subset of the input.
			inputSet := map[int64]bool{}
			for _, id := range tt.input {
				inputSet[id] = true
			}
			for _, id := range got {
				require.True(t, inputSet[id])
			}
		})
	}
}

func Test_FilterRoleNames_ByExplicitCommunity(t *testing.T) {
	associations := []backend.CommunityRoleAssociation{
		{RoleID: qaRole, CommunityID: 300},
	}
	r := communityResolver(t, true, associations, 0)
	w := reviewWorkflow()

	names, err := r.FilterRoleNames(context.Background(), w, 300, []string{"QA", "Author"})
	require.NoError(t, err)
	require.Equal(t, []string{"QA", "Author"}, names)

	names, err = r.FilterRoleNames(context.Background(), w, 999, []string{"QA", "Author"})
	require.NoError(t, err)
	require.Equal(t, []string{"Author"}, names)
}

func Test_FilterRoleNames_UnknownNamesAreRetained(t *testing.T) {
	r := communityResolver(t, true, nil, 0)
	w := reviewWorkflow()

	names, err := r.FilterRoleNames(context.Background(), w, 999, []string{"Ghost", "Author"})
	require.NoError(t, err)
	require.Equal(t, []string{"Ghost", "Author"}, names)
}

func Test_FilterRoleNamesByContent_UsesItemCommunity(t *testing.T) {
	associations := []backend.CommunityRoleAssociation{
		{RoleID: qaRole, CommunityID: 300},
	}
	r := communityResolver(t, true, associations, 300)
	w := reviewWorkflow()

	names, err := r.FilterRoleNamesByContent(context.Background(), w, "501", []string{"QA"})
	require.NoError(t, err)
	require.Equal(t, []string{"QA"}, names)
}

func Test_FilterRoleIDs_MisconfiguredLookupFailsLoudly(t *testing.T) {
	r := New(&fakeAdhocStore{}, &fakeCommunityStore{}, WithCommunityFiltering(true))

	_, err := r.FilterRoleIDs(context.Background(), "501", []int64{qaRole})
	require.Error(t, err)

	var cfgErr *core.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
