package mysql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/contentworks/workflow/backend"
	"github.com/contentworks/workflow/core"

	_ "github.com/go-sql-driver/mysql"
)

//go:embed db/migrations/*.sql
var migrationsFS embed.FS

// NewMysqlStore creates a mysql-backed store and applies any pending schema
// migrations.
func NewMysqlStore(host string, port int, user, password, database string, opts ...backend.BackendOption) (*Store, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&interpolateParams=true&multiStatements=true", user, password, host, port, database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:      db,
		options: backend.ApplyOptions(opts...),
	}

	if err := s.Migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Store implements backend.WorkflowStore, backend.AdhocStore and
// backend.CommunityRoleStore on a mysql database.
type Store struct {
	db      *sql.DB
	options backend.Options
}

var (
	_ backend.WorkflowStore      = (*Store)(nil)
	_ backend.AdhocStore         = (*Store)(nil)
	_ backend.CommunityRoleStore = (*Store)(nil)
)

// Migrate applies any pending database migrations.
func (s *Store) Migrate() error {
	dbi, err := mysql.WithInstance(s.db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("creating migration instance: %w", err)
	}

	migrations, err := iofs.New(migrationsFS, "db/migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", migrations, "mysql", dbi)
	if err != nil {
		return fmt.Errorf("creating migration: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("running migrations: %w", err)
		}
	}

	return nil
}

func (s *Store) Workflows(ctx context.Context) ([]*core.Workflow, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM `workflows` ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying workflows: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning workflow id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	workflows := make([]*core.Workflow, 0, len(ids))
	for _, id := range ids {
		w, err := loadWorkflow(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, w)
	}

	return workflows, tx.Commit()
}

func (s *Store) Workflow(ctx context.Context, id int64) (*core.Workflow, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	w, err := loadWorkflow(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	return w, tx.Commit()
}

func (s *Store) Create(ctx context.Context, w *core.Workflow) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if w.ID == 0 {
		row := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) + 1 FROM `workflows` FOR UPDATE")
		if err := row.Scan(&w.ID); err != nil {
			return fmt.Errorf("allocating workflow id: %w", err)
		}
	}

	w.Normalize()

	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO `workflows` (id, name, description, is_default, version) VALUES (?, ?, ?, ?, ?)",
		w.ID, w.Name, w.Description, w.Default, w.Version,
	); err != nil {
		return fmt.Errorf("inserting workflow: %w", err)
	}

	if err := insertGraph(ctx, tx, w); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Persist(ctx context.Context, w *core.Workflow) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	w.Normalize()

	res, err := tx.ExecContext(
		ctx,
		"UPDATE `workflows` SET name = ?, description = ?, is_default = ?, version = ? WHERE id = ? AND version = ?",
		w.Name, w.Description, w.Default, w.Version, w.ID, w.Version-1,
	)
	if err != nil {
		return fmt.Errorf("updating workflow: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	// The version check always changes the row, so zero affected rows means
	// the row is missing or holds a different version.
	if rows != 1 {
		row := tx.QueryRowContext(ctx, "SELECT 1 FROM `workflows` WHERE id = ?", w.ID)

		var one int
		if err := row.Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return backend.ErrWorkflowNotFound
			}

			return fmt.Errorf("checking workflow: %w", err)
		}

		return backend.ErrConcurrentModification
	}

	if err := deleteGraph(ctx, tx, w.ID); err != nil {
		return err
	}

	if err := insertGraph(ctx, tx, w); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM `workflows` WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting workflow: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rows != 1 {
		return backend.ErrWorkflowNotFound
	}

	if err := deleteGraph(ctx, tx, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
