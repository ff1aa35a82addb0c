package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/core"
)

func (s *Store) FindByItem(ctx context.Context, contentID string) ([]*core.AdhocAssignment, error) {
	return s.findAdhoc(
		ctx,
		"SELECT content_id, role_id, user_name, adhoc_type FROM `adhoc_assignments` WHERE content_id = ? ORDER BY role_id, user_name",
		contentID)
}

func (s *Store) FindByUser(ctx context.Context, userName string) ([]*core.AdhocAssignment, error) {
	return s.findAdhoc(
		ctx,
		"SELECT content_id, role_id, user_name, adhoc_type FROM `adhoc_assignments` WHERE user_name = ? ORDER BY content_id, role_id",
		userName)
}

func (s *Store) findAdhoc(ctx context.Context, query string, arg any) ([]*core.AdhocAssignment, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying adhoc assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*core.AdhocAssignment
	for rows.Next() {
		a := &core.AdhocAssignment{}
		if err := rows.Scan(&a.ContentID, &a.RoleID, &a.UserName, &a.AdhocType); err != nil {
			return nil, fmt.Errorf("scanning adhoc assignment: %w", err)
		}

		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func (s *Store) Save(ctx context.Context, a *core.AdhocAssignment) error {
	if _, err := s.db.ExecContext(
		ctx,
		"INSERT INTO `adhoc_assignments` (content_id, role_id, user_name, adhoc_type) VALUES (?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE adhoc_type = VALUES(adhoc_type)",
		a.ContentID, a.RoleID, a.UserName, a.AdhocType,
	); err != nil {
		return fmt.Errorf("saving adhoc assignment: %w", err)
	}

	return nil
}

func (s *Store) DeleteByItem(ctx context.Context, contentID string) error {
	if _, err := s.db.ExecContext(
		ctx, "DELETE FROM `adhoc_assignments` WHERE content_id = ?", contentID,
	); err != nil {
		return fmt.Errorf("deleting adhoc assignments: %w", err)
	}

	return nil
}

func (s *Store) AssociationsFor(ctx context.Context, roleIDs []int64) ([]backend.CommunityRoleAssociation, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(roleIDs)), ", ")
	args := make([]any, len(roleIDs))
	for i, id := range roleIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(
		ctx,
		fmt.Sprintf(
			"SELECT role_id, community_id FROM `community_roles` WHERE role_id IN (%s) ORDER BY role_id, community_id",
			placeholders),
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying community roles: %w", err)
	}
	defer rows.Close()

	var associations []backend.CommunityRoleAssociation
	for rows.Next() {
		var a backend.CommunityRoleAssociation
		if err := rows.Scan(&a.RoleID, &a.CommunityID); err != nil {
			return nil, fmt.Errorf("scanning community role: %w", err)
		}

		associations = append(associations, a)
	}

	return associations, rows.Err()
}

// AssociateCommunity links a role to a community. Exposed for administrative
// tooling and tests; the engine only reads associations.
func (s *Store) AssociateCommunity(ctx context.Context, roleID, communityID int64) error {
	if _, err := s.db.ExecContext(
		ctx,
		"INSERT IGNORE INTO `community_roles` (role_id, community_id) VALUES (?, ?)",
		roleID, communityID,
	); err != nil {
		return fmt.Errorf("associating community role: %w", err)
	}

	return nil
}
