package repository

import "github.com/contentworks/workflow/core"

// ensureArchiveTransition checks that the Live state carries an Archive
// transition and synthesizes one when it is missing, cloning the
// transition-role list of the state's first transition and attaching the
// workflow's first notification definition. It also rewrites transition-role
// back-references that point at the wrong transition, a corruption observed
// in legacy data.
//
// The repair is idempotent: a graph that already carries a consistent
// Archive transition is returned unchanged.
//
// Returns repaired=true if the graph was changed and skipped=true if the
// workflow has a Live state but no Archive state to target; states are never
// invented.
func ensureArchiveTransition(w *core.Workflow) (repaired bool, skipped bool) {
	live := w.StateByName(core.LiveStateName)
	if live == nil {
		return false, false
	}

	for _, t := range live.Transitions {
		if t.Label == core.ArchiveTransitionLabel {
			return repairTransitionRoleRefs(t), false
		}
	}

	archive := w.StateByName(core.ArchiveStateName)
	if archive == nil {
		return false, true
	}

	t := &core.Transition{
		ID:         w.NextID(),
		WorkflowID: w.ID,
		StateID:    live.ID,
		ToStateID:  archive.ID,
		Label:      core.ArchiveTransitionLabel,
		Trigger:    core.ArchiveTransitionTrigger,
	}

	if len(live.Transitions) > 0 {
		for _, tr := range live.Transitions[0].TransitionRoles {
			t.TransitionRoles = append(t.TransitionRoles, &core.TransitionRole{
				RoleID:       tr.RoleID,
				TransitionID: t.ID,
				WorkflowID:   w.ID,
			})
		}
	} else {
		t.AllowAllRoles = true
	}

	if len(w.NotificationDefs) > 0 {
		t.Notifications = []*core.Notification{
			{
				ID:                t.ID + 1,
				WorkflowID:        w.ID,
				TransitionID:      t.ID,
				NotificationDefID: w.NotificationDefs[0].ID,
			},
		}
	}

	live.Transitions = append(live.Transitions, t)

	return true, false
}

// repairTransitionRoleRefs fixes transition-role rows whose transition id
// does not match the transition that owns them.
func repairTransitionRoleRefs(t *core.Transition) bool {
	repaired := false

	for _, tr := range t.TransitionRoles {
		if tr.TransitionID != t.ID {
			tr.TransitionID = t.ID
			repaired = true
		}
	}

	for _, n := range t.Notifications {
		if n.TransitionID != t.ID {
			n.TransitionID = t.ID
			repaired = true
		}
	}

	return repaired
}
