package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/core"
)

// loadWorkflow materializes the complete graph in one transaction. Child
// collections are fetched with one query per table and grouped in memory, so
// the returned graph never touches the database again.
func loadWorkflow(ctx context.Context, tx *sql.Tx, id int64) (*core.Workflow, error) {
	row := tx.QueryRowContext(
		ctx, "SELECT name, description, is_default, version FROM `workflows` WHERE id = ?", id)

	w := &core.Workflow{ID: id}
	if err := row.Scan(&w.Name, &w.Description, &w.Default, &w.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("scanning workflow: %w", err)
	}

	if err := loadRoles(ctx, tx, w); err != nil {
		return nil, err
	}

	if err := loadNotificationDefs(ctx, tx, w); err != nil {
		return nil, err
	}

	if err := loadStates(ctx, tx, w); err != nil {
		return nil, err
	}

	return w, nil
}

func loadRoles(ctx context.Context, tx *sql.Tx, w *core.Workflow) error {
	rows, err := tx.QueryContext(
		ctx, "SELECT id, name, description FROM `roles` WHERE workflow_id = ? ORDER BY id", w.ID)
	if err != nil {
		return fmt.Errorf("querying roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := &core.Role{WorkflowID: w.ID}
		if err := rows.Scan(&r.ID, &r.Name, &r.Description); err != nil {
			return fmt.Errorf("scanning role: %w", err)
		}

		w.Roles = append(w.Roles, r)
	}

	return rows.Err()
}

func loadNotificationDefs(ctx context.Context, tx *sql.Tx, w *core.Workflow) error {
	rows, err := tx.QueryContext(
		ctx, "SELECT id, subject, body FROM `notification_defs` WHERE workflow_id = ? ORDER BY id", w.ID)
	if err != nil {
		return fmt.Errorf("querying notification defs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		nd := &core.NotificationDef{WorkflowID: w.ID}
		if err := rows.Scan(&nd.ID, &nd.Subject, &nd.Body); err != nil {
			return fmt.Errorf("scanning notification def: %w", err)
		}

		w.NotificationDefs = append(w.NotificationDefs, nd)
	}

	return rows.Err()
}

func loadStates(ctx context.Context, tx *sql.Tx, w *core.Workflow) error {
	rows, err := tx.QueryContext(
		ctx,
		"SELECT id, name, sort_order, is_publishable FROM `states` WHERE workflow_id = ? ORDER BY sort_order, id",
		w.ID)
	if err != nil {
		return fmt.Errorf("querying states: %w", err)
	}

	statesByID := map[int64]*core.State{}

	for rows.Next() {
		s := &core.State{WorkflowID: w.ID}
		if err := rows.Scan(&s.ID, &s.Name, &s.SortOrder, &s.Publishable); err != nil {
			rows.Close()
			return fmt.Errorf("scanning state: %w", err)
		}

		w.States = append(w.States, s)
		statesByID[s.ID] = s
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if err := loadAssignedRoles(ctx, tx, w, statesByID); err != nil {
		return err
	}

	return loadTransitions(ctx, tx, w, statesByID)
}

func loadAssignedRoles(ctx context.Context, tx *sql.Tx, w *core.Workflow, statesByID map[int64]*core.State) error {
	rows, err := tx.QueryContext(
		ctx,
		"SELECT state_id, role_id, assignment_type, adhoc_type, do_notify, show_in_inbox "+
			"FROM `assigned_roles` WHERE workflow_id = ? ORDER BY state_id, role_id",
		w.ID)
	if err != nil {
		return fmt.Errorf("querying assigned roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ar := &core.AssignedRole{WorkflowID: w.ID}
		if err := rows.Scan(
			&ar.StateID, &ar.RoleID, &ar.AssignmentType, &ar.AdhocType, &ar.DoNotify, &ar.ShowInInbox,
		); err != nil {
			return fmt.Errorf("scanning assigned role: %w", err)
		}

		if s, ok := statesByID[ar.StateID]; ok {
			s.AssignedRoles = append(s.AssignedRoles, ar)
		}
	}

	return rows.Err()
}

func loadTransitions(ctx context.Context, tx *sql.Tx, w *core.Workflow, statesByID map[int64]*core.State) error {
	rows, err := tx.QueryContext(
		ctx,
		"SELECT id, state_id, to_state_id, label, `trigger`, allow_all_roles, is_aging "+
			"FROM `transitions` WHERE workflow_id = ? ORDER BY id",
		w.ID)
	if err != nil {
		return fmt.Errorf("querying transitions: %w", err)
	}

	transitionsByID := map[int64]*core.Transition{}

	for rows.Next() {
		t := &core.Transition{WorkflowID: w.ID}

		var aging bool
		if err := rows.Scan(&t.ID, &t.StateID, &t.ToStateID, &t.Label, &t.Trigger, &t.AllowAllRoles, &aging); err != nil {
			rows.Close()
			return fmt.Errorf("scanning transition: %w", err)
		}

		s, ok := statesByID[t.StateID]
		if !ok {
			rows.Close()
			return core.NewConfigurationError(
				"workflow %d: transition %d references unknown state %d", w.ID, t.ID, t.StateID)
		}

		if aging {
			s.AgingTransitions = append(s.AgingTransitions, t)
		} else {
			s.Transitions = append(s.Transitions, t)
		}

		transitionsByID[t.ID] = t
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if err := loadTransitionRoles(ctx, tx, w, transitionsByID); err != nil {
		return err
	}

	return loadTransitionNotifications(ctx, tx, w, transitionsByID)
}

func loadTransitionRoles(ctx context.Context, tx *sql.Tx, w *core.Workflow, transitionsByID map[int64]*core.Transition) error {
	rows, err := tx.QueryContext(
		ctx,
		"SELECT transition_id, role_id FROM `transition_roles` WHERE workflow_id = ? ORDER BY transition_id, role_id",
		w.ID)
	if err != nil {
		return fmt.Errorf("querying transition roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tr := &core.TransitionRole{WorkflowID: w.ID}
		if err := rows.Scan(&tr.TransitionID, &tr.RoleID); err != nil {
			return fmt.Errorf("scanning transition role: %w", err)
		}

		if t, ok := transitionsByID[tr.TransitionID]; ok {
			t.TransitionRoles = append(t.TransitionRoles, tr)
		}
	}

	return rows.Err()
}

func loadTransitionNotifications(ctx context.Context, tx *sql.Tx, w *core.Workflow, transitionsByID map[int64]*core.Transition) error {
	rows, err := tx.QueryContext(
		ctx,
		"SELECT id, transition_id, notification_def_id FROM `transition_notifications` WHERE workflow_id = ? ORDER BY id",
		w.ID)
	if err != nil {
		return fmt.Errorf("querying transition notifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		n := &core.Notification{WorkflowID: w.ID}
		if err := rows.Scan(&n.ID, &n.TransitionID, &n.NotificationDefID); err != nil {
			return fmt.Errorf("scanning transition notification: %w", err)
		}

		if t, ok := transitionsByID[n.TransitionID]; ok {
			t.Notifications = append(t.Notifications, n)
		}
	}

	return rows.Err()
}

func deleteGraph(ctx context.Context, tx *sql.Tx, workflowID int64) error {
	for _, table := range []string{
		"roles", "states", "assigned_roles", "transitions", "transition_roles",
		"transition_notifications", "notification_defs",
	} {
		if _, err := tx.ExecContext(
			ctx, fmt.Sprintf("DELETE FROM `%s` WHERE workflow_id = ?", table), workflowID,
		); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	return nil
}

func insertGraph(ctx context.Context, tx *sql.Tx, w *core.Workflow) error {
	for _, r := range w.Roles {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO `roles` (workflow_id, id, name, description) VALUES (?, ?, ?, ?)",
			w.ID, r.ID, r.Name, r.Description,
		); err != nil {
			return fmt.Errorf("inserting role: %w", err)
		}
	}

	for _, nd := range w.NotificationDefs {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO `notification_defs` (workflow_id, id, subject, body) VALUES (?, ?, ?, ?)",
			w.ID, nd.ID, nd.Subject, nd.Body,
		); err != nil {
			return fmt.Errorf("inserting notification def: %w", err)
		}
	}

	for _, s := range w.States {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO `states` (workflow_id, id, name, sort_order, is_publishable) VALUES (?, ?, ?, ?, ?)",
			w.ID, s.ID, s.Name, s.SortOrder, s.Publishable,
		); err != nil {
			return fmt.Errorf("inserting state: %w", err)
		}

		for _, ar := range s.AssignedRoles {
			if _, err := tx.ExecContext(
				ctx,
				"INSERT INTO `assigned_roles` (workflow_id, state_id, role_id, assignment_type, adhoc_type, do_notify, show_in_inbox) "+
					"VALUES (?, ?, ?, ?, ?, ?, ?)",
				w.ID, s.ID, ar.RoleID, ar.AssignmentType, ar.AdhocType, ar.DoNotify, ar.ShowInInbox,
			); err != nil {
				return fmt.Errorf("inserting assigned role: %w", err)
			}
		}

		if err := insertTransitions(ctx, tx, w, s, s.Transitions, false); err != nil {
			return err
		}

		if err := insertTransitions(ctx, tx, w, s, s.AgingTransitions, true); err != nil {
			return err
		}
	}

	return nil
}

func insertTransitions(ctx context.Context, tx *sql.Tx, w *core.Workflow, s *core.State, transitions []*core.Transition, aging bool) error {
	for _, t := range transitions {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO `transitions` (workflow_id, id, state_id, to_state_id, label, `trigger`, allow_all_roles, is_aging) "+
				"VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			w.ID, t.ID, s.ID, t.ToStateID, t.Label, t.Trigger, t.AllowAllRoles, aging,
		); err != nil {
			return fmt.Errorf("inserting transition: %w", err)
		}

		for _, tr := range t.TransitionRoles {
			if _, err := tx.ExecContext(
				ctx,
				"INSERT INTO `transition_roles` (workflow_id, transition_id, role_id) VALUES (?, ?, ?)",
				w.ID, t.ID, tr.RoleID,
			); err != nil {
				return fmt.Errorf("inserting transition role: %w", err)
			}
		}

		for _, n := range t.Notifications {
			if _, err := tx.ExecContext(
				ctx,
				"INSERT INTO `transition_notifications` (workflow_id, id, transition_id, notification_def_id) VALUES (?, ?, ?, ?)",
				w.ID, n.ID, t.ID, n.NotificationDefID,
			); err != nil {
				return fmt.Errorf("inserting transition notification: %w", err)
			}
		}
	}

	return nil
}
