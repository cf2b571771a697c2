package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ReplaceProjects replaces the cached project list with the given
// server snapshot in one transaction.
func (s *SQLiteStore) ReplaceProjects(
	ctx context.Context,
	projects []model.Project,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM projects"); err != nil {
		return fmt.Errorf("clearing projects: %w", err)
	}

	for _, p := range projects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, description, created_at)
			VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, p.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("caching project %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetProjects retrieves cached projects, most recently created first.
func (s *SQLiteStore) GetProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM projects ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// ReplaceUsers replaces the cached user list with the given server snapshot.
func (s *SQLiteStore) ReplaceUsers(ctx context.Context, users []model.User) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("clearing users: %w", err)
	}

	for _, u := range users {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, full_name, user_type)
			VALUES (?, ?, ?, ?)`,
			u.ID, u.Username, u.FullName, u.UserType,
		)
		if err != nil {
			return fmt.Errorf("caching user %s: %w", u.ID, err)
		}
	}

	return tx.Commit()
}

// GetUsers retrieves all cached users ordered by username.
func (s *SQLiteStore) GetUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.SelectContext(ctx, &users,
		"SELECT * FROM users ORDER BY username",
	)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	return users, nil
}

// GetUserByUsername looks up a cached user by username. Returns nil
// without error when the user is not cached.
func (s *SQLiteStore) GetUserByUsername(
	ctx context.Context,
	username string,
) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		"SELECT * FROM users WHERE username = ?", username,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", username, err)
	}
	return &u, nil
}

// scanProject scans a project row from a sqlx.Rows result set.
func scanProject(rows *sqlx.Rows) (model.Project, error) {
	var (
		p         model.Project
		createdAt time.Time
	)

	err := rows.Scan(&p.ID, &p.Name, &p.Description, &createdAt)
	if err != nil {
		return model.Project{}, fmt.Errorf("scanning project row: %w", err)
	}

	p.CreatedAt = createdAt
	return p, nil
}
