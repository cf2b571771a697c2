package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ReplaceTaskSubtasks replaces the cached subtask slice for one task
// with the given server snapshot, in one transaction.
func (s *SQLiteStore) ReplaceTaskSubtasks(
	ctx context.Context,
	taskID string,
	subtasks []model.Subtask,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM subtasks WHERE task_id = ?", taskID,
	); err != nil {
		return fmt.Errorf("clearing subtasks for task %s: %w", taskID, err)
	}

	const query = `
		INSERT INTO subtasks (
			id, task_id, question, type, options, assigned_to,
			answered, selected_option, provided_file, file_reference
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing subtask insert: %w", err)
	}
	defer stmt.Close()

	for _, sub := range subtasks {
		options, err := json.Marshal(sub.Options)
		if err != nil {
			return fmt.Errorf("marshaling options for subtask %s: %w", sub.ID, err)
		}

		providedFile := sub.ProvidedFile
		if providedFile == "" {
			providedFile = model.FileNone
		}

		_, err = stmt.ExecContext(ctx,
			sub.ID, sub.TaskID, sub.Question, sub.Type, string(options),
			sub.AssignedTo, boolToInt(sub.Answered), sub.SelectedOption,
			providedFile, sub.FileReference,
		)
		if err != nil {
			return fmt.Errorf("caching subtask %s: %w", sub.ID, err)
		}
	}

	return tx.Commit()
}

// GetTaskSubtasks retrieves the cached subtasks for a task.
func (s *SQLiteStore) GetTaskSubtasks(
	ctx context.Context,
	taskID string,
) ([]model.Subtask, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM subtasks WHERE task_id = ?", taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying subtasks for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var subtasks []model.Subtask
	for rows.Next() {
		sub, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, sub)
	}

	return subtasks, rows.Err()
}

// scanSubtask scans a subtask row from a sqlx.Rows result set.
func scanSubtask(rows *sqlx.Rows) (model.Subtask, error) {
	var (
		sub         model.Subtask
		options     string
		answeredInt int
	)

	err := rows.Scan(
		&sub.ID, &sub.TaskID, &sub.Question, &sub.Type, &options,
		&sub.AssignedTo, &answeredInt, &sub.SelectedOption,
		&sub.ProvidedFile, &sub.FileReference,
	)
	if err != nil {
		return model.Subtask{}, fmt.Errorf("scanning subtask row: %w", err)
	}

	sub.Answered = answeredInt != 0

	if options != "" && options != "[]" {
		if err := json.Unmarshal([]byte(options), &sub.Options); err != nil {
			return model.Subtask{}, fmt.Errorf("unmarshaling subtask options: %w", err)
		}
	}

	return sub, nil
}
