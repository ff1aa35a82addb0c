package core

import "fmt"

// AssignmentType is the permission level a role grants on a content item in a
// given workflow state. Values are ordered by precedence: a higher value always
// wins when a user holds multiple roles in the same state.
type AssignmentType int

const (
	AssignmentTypeNone AssignmentType = iota
	AssignmentTypeReader
	AssignmentTypeAssignee
	AssignmentTypeAdmin
)

func (a AssignmentType) String() string {
	switch a {
	case AssignmentTypeNone:
		return "none"
	case AssignmentTypeReader:
		return "reader"
	case AssignmentTypeAssignee:
		return "assignee"
	case AssignmentTypeAdmin:
		return "admin"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}

// Max returns the higher-precedence of the two assignment types.
func (a AssignmentType) Max(other AssignmentType) AssignmentType {
	if other > a {
		return other
	}
	return a
}

// AdhocType controls whether an assigned role's grant can be overridden per
// content item.
type AdhocType int

const (
	// AdhocDisabled means the role's assignment type applies to every member.
	AdhocDisabled AdhocType = iota

	// AdhocEnabled means only the specifically named ad-hoc user for a content
	// item receives the role's assignment type; everyone else in the role gets
	// nothing from it.
	AdhocEnabled

	// AdhocAnonymous means any member with an ad-hoc record for the content
	// item receives the role's assignment type; members without one are
	// dropped to reader if the role would have made them an assignee.
	AdhocAnonymous
)

func (a AdhocType) String() string {
	switch a {
	case AdhocDisabled:
		return "disabled"
	case AdhocEnabled:
		return "enabled"
	case AdhocAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}
