package core

// Normalize allocates ids for graph elements that do not have one yet,
// rewrites child back-references (workflow, state and transition ids) to
// their owning elements and renumbers state sort order. Stores call this
// before persisting so that a graph assembled in memory always reaches disk
// internally consistent.
func (w *Workflow) Normalize() {
	next := w.NextID()

	alloc := func() int64 {
		id := next
		next++

		return id
	}

	for _, r := range w.Roles {
		if r.ID == 0 {
			r.ID = alloc()
		}

		r.WorkflowID = w.ID
	}

	for _, nd := range w.NotificationDefs {
		if nd.ID == 0 {
			nd.ID = alloc()
		}

		nd.WorkflowID = w.ID
	}

	for i, s := range w.States {
		if s.ID == 0 {
			s.ID = alloc()
		}

		s.WorkflowID = w.ID
		s.SortOrder = i

		for _, ar := range s.AssignedRoles {
			ar.WorkflowID = w.ID
			ar.StateID = s.ID
		}

		for _, t := range append(s.Transitions, s.AgingTransitions...) {
			if t.ID == 0 {
				t.ID = alloc()
			}

			t.WorkflowID = w.ID
			t.StateID = s.ID

			for _, tr := range t.TransitionRoles {
				tr.WorkflowID = w.ID
				tr.TransitionID = t.ID
			}

			for _, n := range t.Notifications {
				if n.ID == 0 {
					n.ID = alloc()
				}

				n.WorkflowID = w.ID
				n.TransitionID = t.ID
			}
		}
	}
}
