package core

import "strings"

// Reserved names the engine gives special treatment.
const (
	// LocalContentWorkflow is the reserved workflow for site-local content.
	// Roles added to it default to assignee instead of reader.
	LocalContentWorkflow = "LocalContent"

	// LiveStateName is the published state every workflow is expected to have.
	LiveStateName = "Live"

	// ArchiveStateName is the terminal state for retired content.
	ArchiveStateName = "Archive"

	// ArchiveTransitionLabel is the label of the repaired Live->Archive transition.
	ArchiveTransitionLabel = "Archive"

	// ArchiveTransitionTrigger is the trigger of the repaired Live->Archive transition.
	ArchiveTransitionTrigger = "forcetocurrent"
)

// Workflow is the root aggregate: the persisted definition of one content
// workflow, a directed graph of states connected by transitions, with
// role-based permissions attached to both.
type Workflow struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`

	// Default marks the system default workflow. It cannot be deleted.
	Default bool `json:"default,omitempty"`

	Roles []*Role `json:"roles"`

	// States are ordered; the first state is the initial state for new content.
	States []*State `json:"states" validate:"required,min=1,dive"`

	NotificationDefs []*NotificationDef `json:"notification_defs,omitempty"`

	// Version is the optimistic-concurrency token, incremented on every
	// persisted mutation.
	Version int64 `json:"version"`
}

// Role is a named permission group within a workflow. Role names are unique
// within a workflow, compared case-insensitively.
type Role struct {
	ID          int64  `json:"id"`
	WorkflowID  int64  `json:"workflow_id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// NotificationDef is a workflow-level notification template referenced by
// transition notifications.
type NotificationDef struct {
	ID         int64  `json:"id"`
	WorkflowID int64  `json:"workflow_id"`
	Subject    string `json:"subject"`
	Body       string `json:"body,omitempty"`
}

// RoleByID returns the role with the given id, or nil.
func (w *Workflow) RoleByID(id int64) *Role {
	for _, r := range w.Roles {
		if r.ID == id {
			return r
		}
	}

	return nil
}

// RoleByName returns the role with the given name, compared
// case-insensitively, or nil.
func (w *Workflow) RoleByName(name string) *Role {
	for _, r := range w.Roles {
		if strings.EqualFold(r.Name, name) {
			return r
		}
	}

	return nil
}

// StateByID returns the state with the given id, or nil.
func (w *Workflow) StateByID(id int64) *State {
	for _, s := range w.States {
		if s.ID == id {
			return s
		}
	}

	return nil
}

// StateByName returns the first state with the given name, compared
// case-insensitively, or nil.
func (w *Workflow) StateByName(name string) *State {
	for _, s := range w.States {
		if strings.EqualFold(s.Name, name) {
			return s
		}
	}

	return nil
}

// NotificationDefByID returns the notification definition with the given id,
// or nil.
func (w *Workflow) NotificationDefByID(id int64) *NotificationDef {
	for _, nd := range w.NotificationDefs {
		if nd.ID == id {
			return nd
		}
	}

	return nil
}

// NextID returns an id greater than every role, state, transition and
// notification id in the graph. Used when synthesizing graph elements in
// memory; stores allocate their own ids on first persist.
func (w *Workflow) NextID() int64 {
	var max int64

	for _, r := range w.Roles {
		if r.ID > max {
			max = r.ID
		}
	}

	for _, s := range w.States {
		if s.ID > max {
			max = s.ID
		}

		for _, t := range s.Transitions {
			if t.ID > max {
				max = t.ID
			}

			for _, n := range t.Notifications {
				if n.ID > max {
					max = n.ID
				}
			}
		}
	}

	for _, nd := range w.NotificationDefs {
		if nd.ID > max {
			max = nd.ID
		}
	}

	return max + 1
}

// Clone returns a deep copy of the graph. Readers share cached graphs, so
// mutations always operate on a clone.
func (w *Workflow) Clone() *Workflow {
	c := &Workflow{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Default:     w.Default,
		Version:     w.Version,
	}

	c.Roles = make([]*Role, len(w.Roles))
	for i, r := range w.Roles {
		rc := *r
		c.Roles[i] = &rc
	}

	c.States = make([]*State, len(w.States))
	for i, s := range w.States {
		c.States[i] = s.clone()
	}

	c.NotificationDefs = make([]*NotificationDef, len(w.NotificationDefs))
	for i, nd := range w.NotificationDefs {
		ndc := *nd
		c.NotificationDefs[i] = &ndc
	}

	return c
}
