// Package mutation performs structural edits on workflow graphs: adding,
// removing and copying roles across one or all workflows. Every operation is
// a read-modify-write: clone the cached graph, mutate the clone, validate,
// persist, evict. Concurrent mutation of the same workflow is not serialized
// here; administrative callers are expected to coordinate.
package mutation

import (
	"context"
	"fmt"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/backend/metrics"
	"github.com/contentworks/workflow/core"
	"github.com/contentworks/workflow/internal/log"
	"github.com/contentworks/workflow/internal/metrickeys"
	"github.com/contentworks/workflow/repository"
)

// NameCache is notified when a mutation changes a workflow's role set so
// that cached role name lookups are dropped.
type NameCache interface {
	InvalidateNames(workflowID int64)
}

type Service struct {
	repo    *repository.Repository
	options *Options
}

func New(repo *repository.Repository, opts ...ServiceOption) *Service {
	options := &Options{
		Options: backend.ApplyOptions(),
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Service{
		repo:    repo,
		options: options,
	}
}

// CreateWorkflow validates and persists a new workflow graph.
func (s *Service) CreateWorkflow(ctx context.Context, w *core.Workflow) error {
	if err := w.Validate(); err != nil {
		return err
	}

	return s.repo.Create(ctx, w)
}

// DeleteWorkflow removes a workflow. The system default workflow cannot be
// deleted.
func (s *Service) DeleteWorkflow(ctx context.Context, workflowID int64) error {
	w, err := s.repo.Load(ctx, workflowID)
	if err != nil {
		return err
	}

	if w.Default {
		return core.NewValidationError("workflow %q is the system default and cannot be deleted", w.Name)
	}

	return s.repo.Delete(ctx, workflowID)
}

// AddWorkflowRole adds a role to the given workflow, or to every workflow
// when workflowID is nil. Every state of each affected workflow gets a
// default assigned-role entry: assignee in the reserved LocalContent
// workflow, reader everywhere else, ad-hoc always disabled. Adding a role
// that already exists in a workflow is a no-op for that workflow.
func (s *Service) AddWorkflowRole(ctx context.Context, workflowID *int64, roleName string) error {
	if roleName == "" {
		return core.NewValidationError("role name must not be empty")
	}

	return s.forEachWorkflow(ctx, workflowID, func(w *core.Workflow) (bool, error) {
		if w.RoleByName(roleName) != nil {
			return false, nil
		}

		role := &core.Role{
			ID:         w.NextID(),
			WorkflowID: w.ID,
			Name:       roleName,
		}
		w.Roles = append(w.Roles, role)

		assignmentType := core.AssignmentTypeReader
		if w.Name == core.LocalContentWorkflow {
			assignmentType = core.AssignmentTypeAssignee
		}

		for _, state := range w.States {
			state.AssignedRoles = append(state.AssignedRoles, &core.AssignedRole{
				RoleID:         role.ID,
				WorkflowID:     w.ID,
				StateID:        state.ID,
				AssignmentType: assignmentType,
				AdhocType:      core.AdhocDisabled,
			})
		}

		s.options.Metrics.Counter(metrickeys.RoleAdded, metrics.Tags{}, 1)
		s.options.Logger.Debug(
			"added workflow role",
			log.WorkflowIDKey, w.ID,
			log.RoleNameKey, roleName,
		)

		return true, nil
	})
}

// RemoveWorkflowRole removes a role from the given workflow, or from every
// workflow when workflowID is nil, including every state's assigned-role
// entry and every transition's transition-role entry. Returns whether any
// removal occurred; a missing role is not an error.
func (s *Service) RemoveWorkflowRole(ctx context.Context, workflowID *int64, roleName string) (bool, error) {
	removed := false

	err := s.forEachWorkflow(ctx, workflowID, func(w *core.Workflow) (bool, error) {
		role := w.RoleByName(roleName)
		if role == nil {
			return false, nil
		}

		roles := w.Roles[:0]
		for _, r := range w.Roles {
			if r.ID != role.ID {
				roles = append(roles, r)
			}
		}
		w.Roles = roles

		for _, state := range w.States {
			assigned := state.AssignedRoles[:0]
			for _, ar := range state.AssignedRoles {
				if ar.RoleID != role.ID {
					assigned = append(assigned, ar)
				}
			}
			state.AssignedRoles = assigned

			for _, t := range append(state.Transitions, state.AgingTransitions...) {
				trs := t.TransitionRoles[:0]
				for _, tr := range t.TransitionRoles {
					if tr.RoleID != role.ID {
						trs = append(trs, tr)
					}
				}
				t.TransitionRoles = trs
			}
		}

		removed = true

		s.options.Metrics.Counter(metrickeys.RoleRemoved, metrics.Tags{}, 1)
		s.options.Logger.Debug(
			"removed workflow role",
			log.WorkflowIDKey, w.ID,
			log.RoleNameKey, roleName,
		)

		return true, nil
	})

	return removed, err
}

// CopyWorkflowRole copies a role's permissions onto another role in every
// workflow that has the source role: per-state assignment type and flags,
// and per-transition membership. The target role is created where missing.
// Workflows already carrying identical permissions are left untouched, so
// re-running a copy is a no-op without version bumps. Returns
// backend.ErrRoleNotFound when no workflow has the source role.
func (s *Service) CopyWorkflowRole(ctx context.Context, fromRoleName, toRoleName string) error {
	if fromRoleName == "" || toRoleName == "" {
		return core.NewValidationError("role names must not be empty")
	}

	found := false

	err := s.forEachWorkflow(ctx, nil, func(w *core.Workflow) (bool, error) {
		from := w.RoleByName(fromRoleName)
		if from == nil {
			return false, nil
		}

		found = true
		changed := false

		to := w.RoleByName(toRoleName)
		if to == nil {
			to = &core.Role{
				ID:         w.NextID(),
				WorkflowID: w.ID,
				Name:       toRoleName,
			}
			w.Roles = append(w.Roles, to)
			changed = true
		}

		for _, state := range w.States {
			if fromAR := state.AssignedRoleFor(from.ID); fromAR != nil {
				toAR := state.AssignedRoleFor(to.ID)
				if toAR == nil {
					toAR = &core.AssignedRole{
						RoleID:     to.ID,
						WorkflowID: w.ID,
						StateID:    state.ID,
					}
					state.AssignedRoles = append(state.AssignedRoles, toAR)
					changed = true
				}

				if toAR.AssignmentType != fromAR.AssignmentType ||
					toAR.AdhocType != fromAR.AdhocType ||
					toAR.DoNotify != fromAR.DoNotify ||
					toAR.ShowInInbox != fromAR.ShowInInbox {
					toAR.AssignmentType = fromAR.AssignmentType
					toAR.AdhocType = fromAR.AdhocType
					toAR.DoNotify = fromAR.DoNotify
					toAR.ShowInInbox = fromAR.ShowInInbox
					changed = true
				}
			}

			for _, t := range append(state.Transitions, state.AgingTransitions...) {
				if !hasTransitionRole(t, from.ID) || hasTransitionRole(t, to.ID) {
					continue
				}

				t.TransitionRoles = append(t.TransitionRoles, &core.TransitionRole{
					RoleID:       to.ID,
					TransitionID: t.ID,
					WorkflowID:   w.ID,
				})
				changed = true
			}
		}

		if changed {
			s.options.Metrics.Counter(metrickeys.RoleCopied, metrics.Tags{}, 1)
			s.options.Logger.Debug(
				"copied workflow role",
				log.WorkflowIDKey, w.ID,
				log.RoleNameKey, toRoleName,
			)
		}

		return changed, nil
	})
	if err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("source role %q: %w", fromRoleName, backend.ErrRoleNotFound)
	}

	return nil
}

// EnsureArchiveTransition verifies that the workflow's Live state carries an
// Archive transition. Loading self-heals the graph; this surfaces the cases
// the repair cannot fix.
func (s *Service) EnsureArchiveTransition(ctx context.Context, workflowID int64) error {
	w, err := s.repo.Load(ctx, workflowID)
	if err != nil {
		return err
	}

	live := w.StateByName(core.LiveStateName)
	if live == nil {
		return nil
	}

	if live.TransitionByLabel(core.ArchiveTransitionLabel) == nil {
		return core.NewValidationError(
			"workflow %q has no Archive state to target from Live", w.Name)
	}

	return nil
}

// forEachWorkflow applies the mutation to one workflow or to all of them.
// Each workflow is mutated on a clone, validated and persisted individually;
// untouched workflows are not persisted and keep their version.
func (s *Service) forEachWorkflow(ctx context.Context, workflowID *int64, mutate func(w *core.Workflow) (bool, error)) error {
	var workflows []*core.Workflow

	if workflowID != nil {
		w, err := s.repo.Load(ctx, *workflowID)
		if err != nil {
			return err
		}

		workflows = []*core.Workflow{w}
	} else {
		all, err := s.repo.Workflows(ctx)
		if err != nil {
			return fmt.Errorf("loading workflows: %w", err)
		}

		workflows = all
	}

	for _, w := range workflows {
		clone := w.Clone()

		changed, err := mutate(clone)
		if err != nil {
			return err
		}

		if !changed {
			continue
		}

		if err := clone.Validate(); err != nil {
			return err
		}

		if err := s.repo.Save(ctx, clone); err != nil {
			return err
		}

		if s.options.NameCache != nil {
			s.options.NameCache.InvalidateNames(clone.ID)
		}
	}

	return nil
}

func hasTransitionRole(t *core.Transition, roleID int64) bool {
	for _, tr := range t.TransitionRoles {
		if tr.RoleID == roleID {
			return true
		}
	}

	return false
}
