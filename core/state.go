package core

// State is a node in the workflow graph. It belongs to exactly one workflow;
// WorkflowID is a back-reference, not ownership.
type State struct {
	ID         int64  `json:"id"`
	WorkflowID int64  `json:"workflow_id"`
	Name       string `json:"name" validate:"required"`

	// SortOrder fixes the position of the state in the workflow's ordered
	// state sequence.
	SortOrder int `json:"sort_order"`

	// Publishable marks states whose content is visible on the live site.
	Publishable bool `json:"publishable,omitempty"`

	AssignedRoles []*AssignedRole `json:"assigned_roles,omitempty"`

	Transitions []*Transition `json:"transitions,omitempty" validate:"dive"`

	// AgingTransitions fire automatically after a content item has been in
	// the state for a configured time; they are never role-gated.
	AgingTransitions []*Transition `json:"aging_transitions,omitempty"`
}

// AssignedRole attaches an assignment type to a role for one state.
type AssignedRole struct {
	RoleID     int64 `json:"role_id"`
	WorkflowID int64 `json:"workflow_id"`
	StateID    int64 `json:"state_id"`

	AssignmentType AssignmentType `json:"assignment_type"`
	AdhocType      AdhocType      `json:"adhoc_type"`

	// DoNotify sends state-entry notifications to members of the role.
	DoNotify bool `json:"do_notify,omitempty"`

	// ShowInInbox lists items in this state in role members' inbox views.
	ShowInInbox bool `json:"show_in_inbox,omitempty"`
}

// AssignedRoleFor returns the assigned-role entry for the given role id, or nil.
func (s *State) AssignedRoleFor(roleID int64) *AssignedRole {
	for _, ar := range s.AssignedRoles {
		if ar.RoleID == roleID {
			return ar
		}
	}

	return nil
}

// TransitionByLabel returns the first transition with the given label, or nil.
func (s *State) TransitionByLabel(label string) *Transition {
	for _, t := range s.Transitions {
		if t.Label == label {
			return t
		}
	}

	return nil
}

// TransitionByID returns the transition with the given id, or nil.
func (s *State) TransitionByID(id int64) *Transition {
	for _, t := range s.Transitions {
		if t.ID == id {
			return t
		}
	}

	return nil
}

func (s *State) clone() *State {
	c := &State{
		ID:          s.ID,
		WorkflowID:  s.WorkflowID,
		Name:        s.Name,
		SortOrder:   s.SortOrder,
		Publishable: s.Publishable,
	}

	c.AssignedRoles = make([]*AssignedRole, len(s.AssignedRoles))
	for i, ar := range s.AssignedRoles {
		arc := *ar
		c.AssignedRoles[i] = &arc
	}

	c.Transitions = make([]*Transition, len(s.Transitions))
	for i, t := range s.Transitions {
		c.Transitions[i] = t.clone()
	}

	c.AgingTransitions = make([]*Transition, len(s.AgingTransitions))
	for i, t := range s.AgingTransitions {
		c.AgingTransitions[i] = t.clone()
	}

	return c
}
