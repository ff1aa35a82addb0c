package core

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks required fields and the graph's referential invariants:
// every assigned role and transition role must reference a role in the
// workflow's role set, every transition must point at a state in the
// workflow, and role names must be unique case-insensitively.
//
// Field-level failures return a *ValidationError; broken references return a
// *ConfigurationError since they indicate corrupted data rather than bad
// input.
func (w *Workflow) Validate() error {
	if err := validate.Struct(w); err != nil {
		return NewValidationError("workflow %d: %v", w.ID, err)
	}

	names := make(map[string]bool, len(w.Roles))
	roleIDs := make(map[int64]bool, len(w.Roles))
	for _, r := range w.Roles {
		name := strings.ToLower(r.Name)
		if names[name] {
			return NewValidationError("workflow %d: duplicate role name %q", w.ID, r.Name)
		}

		names[name] = true
		roleIDs[r.ID] = true
	}

	stateIDs := make(map[int64]bool, len(w.States))
	for _, s := range w.States {
		stateIDs[s.ID] = true
	}

	for _, s := range w.States {
		for _, ar := range s.AssignedRoles {
			if !roleIDs[ar.RoleID] {
				return NewConfigurationError(
					"workflow %d state %d: assigned role references unknown role %d", w.ID, s.ID, ar.RoleID)
			}
		}

		for _, t := range s.Transitions {
			if t.ToStateID == 0 {
				return NewValidationError(
					"workflow %d state %d: transition %q has no target state", w.ID, s.ID, t.Label)
			}

			if !stateIDs[t.ToStateID] {
				return NewConfigurationError(
					"workflow %d state %d: transition %q targets unknown state %d", w.ID, s.ID, t.Label, t.ToStateID)
			}

			for _, tr := range t.TransitionRoles {
				if !roleIDs[tr.RoleID] {
					return NewConfigurationError(
						"workflow %d transition %d: transition role references unknown role %d", w.ID, t.ID, tr.RoleID)
				}
			}
		}
	}

	return nil
}
