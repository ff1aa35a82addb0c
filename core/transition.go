package core

// Transition is a directed edge between two states. StateID is the source
// state, ToStateID the target.
type Transition struct {
	ID         int64 `json:"id"`
	WorkflowID int64 `json:"workflow_id"`
	StateID    int64 `json:"state_id"`
	ToStateID  int64 `json:"to_state_id" validate:"required"`

	// Label is the user-visible name of the transition action.
	Label string `json:"label" validate:"required"`

	// Trigger is the internal action name used by callers to request the
	// transition.
	Trigger string `json:"trigger"`

	// AllowAllRoles opens the transition to every role; TransitionRoles is
	// ignored when set.
	AllowAllRoles bool `json:"allow_all_roles,omitempty"`

	TransitionRoles []*TransitionRole `json:"transition_roles,omitempty"`

	Notifications []*Notification `json:"notifications,omitempty"`
}

// TransitionRole grants one role permission to perform a transition.
type TransitionRole struct {
	RoleID       int64 `json:"role_id"`
	TransitionID int64 `json:"transition_id"`
	WorkflowID   int64 `json:"workflow_id"`
}

// Notification attaches a workflow-level notification definition to a
// transition.
type Notification struct {
	ID                int64 `json:"id"`
	WorkflowID        int64 `json:"workflow_id"`
	TransitionID      int64 `json:"transition_id"`
	NotificationDefID int64 `json:"notification_def_id"`
}

// HasRole reports whether the transition is open to the given role, either
// via AllowAllRoles or an explicit transition-role entry.
func (t *Transition) HasRole(roleID int64) bool {
	if t.AllowAllRoles {
		return true
	}

	for _, tr := range t.TransitionRoles {
		if tr.RoleID == roleID {
			return true
		}
	}

	return false
}

func (t *Transition) clone() *Transition {
	c := &Transition{
		ID:            t.ID,
		WorkflowID:    t.WorkflowID,
		StateID:       t.StateID,
		ToStateID:     t.ToStateID,
		Label:         t.Label,
		Trigger:       t.Trigger,
		AllowAllRoles: t.AllowAllRoles,
	}

	c.TransitionRoles = make([]*TransitionRole, len(t.TransitionRoles))
	for i, tr := range t.TransitionRoles {
		trc := *tr
		c.TransitionRoles[i] = &trc
	}

	c.Notifications = make([]*Notification, len(t.Notifications))
	for i, n := range t.Notifications {
		nc := *n
		c.Notifications[i] = &nc
	}

	return c
}
