package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// taskColumns matches the tasks table column order plus the derived
// subtask count used by list views.
const taskSelect = `
	SELECT tasks.*,
		(SELECT COUNT(*) FROM subtasks WHERE subtasks.task_id = tasks.id)
			AS subtask_count
	FROM tasks`

// ReplaceProjectTasks replaces the cached task slice for one project
// with the given server snapshot, in one transaction. Subtasks cached
// for tasks that disappeared are removed with them.
func (s *SQLiteStore) ReplaceProjectTasks(
	ctx context.Context,
	projectID string,
	tasks []model.Task,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM subtasks WHERE task_id IN
			(SELECT id FROM tasks WHERE project_id = ?)`,
		projectID,
	)
	if err != nil {
		return fmt.Errorf("clearing subtasks for project %s: %w", projectID, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tasks WHERE project_id = ?", projectID,
	); err != nil {
		return fmt.Errorf("clearing tasks for project %s: %w", projectID, err)
	}

	const query = `
		INSERT INTO tasks (
			id, project_id, title, description, priority, status,
			due_date, start_date, assigned_to, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing task insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		_, err := stmt.ExecContext(ctx,
			t.ID, t.ProjectID, t.Title, t.Description, t.Priority, t.Status,
			utcPtr(t.DueDate), utcPtr(t.StartDate), t.AssignedTo,
			t.CreatedAt.UTC(), utcPtr(t.CompletedAt),
		)
		if err != nil {
			return fmt.Errorf("caching task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetProjectTasks retrieves the cached tasks for a project, including
// their subtask counts.
func (s *SQLiteStore) GetProjectTasks(
	ctx context.Context,
	projectID string,
) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx,
		taskSelect+" WHERE tasks.project_id = ? ORDER BY tasks.created_at",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// GetTaskByID retrieves a single cached task. Returns nil without error
// when the task is not cached.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, taskSelect+" WHERE tasks.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting task %s: %w", id, err)
		}
		return nil, nil
	}

	t, err := scanTask(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTask scans a task row produced by taskSelect.
func scanTask(rows interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		t            model.Task
		dueDate      sql.NullTime
		startDate    sql.NullTime
		completedAt  sql.NullTime
		subtaskCount int
	)

	err := rows.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&dueDate, &startDate, &t.AssignedTo, &t.CreatedAt, &completedAt,
		&subtaskCount,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	t.DueDate = nullTimePtr(dueDate)
	t.StartDate = nullTimePtr(startDate)
	t.CompletedAt = nullTimePtr(completedAt)
	t.SubtaskCount = subtaskCount

	return t, nil
}

// utcPtr normalizes an optional time to UTC for storage.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// nullTimePtr converts a scanned nullable time to an optional time.
func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
