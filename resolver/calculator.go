package resolver

import (
	"strings"

	"github.com/contentworks/workflow/core"
)

// CalculateAssignmentType reduces the state's assigned roles to the single
// effective assignment type for one user on one content item.
//
// Each assigned role the user holds contributes one candidate and the
// highest-precedence candidate wins (admin > assignee > reader > none):
//
//   - adhoc disabled: the candidate is the role's assignment type.
//   - adhoc enabled: only the specifically named ad-hoc user for the content
//     item receives the role's assignment type; every other member
//     contributes nothing from this role, not even reader. Visibility can
//     still come from the user's other roles.
//   - adhoc anonymous: a member with an ad-hoc record for the content item
//     receives the role's assignment type; a member without one keeps the
//     role's type except that assignee collapses to reader, visible but not
//     actionable.
//
// userRoleIDs must already be community-filtered.
func CalculateAssignmentType(
	assignedRoles []*core.AssignedRole,
	userRoleIDs []int64,
	userName string,
	adhoc []*core.AdhocAssignment,
) core.AssignmentType {
	userRoles := make(map[int64]bool, len(userRoleIDs))
	for _, id := range userRoleIDs {
		userRoles[id] = true
	}

	// Ad-hoc records naming this user, by role.
	userRecords := map[int64]bool{}
	for _, a := range adhoc {
		if strings.EqualFold(a.UserName, userName) {
			userRecords[a.RoleID] = true
		}
	}

	result := core.AssignmentTypeNone

	for _, ar := range assignedRoles {
		if !userRoles[ar.RoleID] {
			continue
		}

		candidate := ar.AssignmentType

		switch ar.AdhocType {
		case core.AdhocEnabled:
			if !userRecords[ar.RoleID] {
				continue
			}

		case core.AdhocAnonymous:
			if !userRecords[ar.RoleID] && candidate == core.AssignmentTypeAssignee {
				candidate = core.AssignmentTypeReader
			}
		}

		result = result.Max(candidate)
	}

	return result
}
