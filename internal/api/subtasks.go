package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ListSubtasks retrieves all subtasks for a task.
func (c *Client) ListSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error) {
	path := "/api/tasks/" + url.PathEscape(taskID) + "/subtasks"

	var subtasks []model.Subtask
	if err := c.get(ctx, path, &subtasks); err != nil {
		return nil, fmt.Errorf("listing subtasks for task %s: %w", taskID, err)
	}
	return subtasks, nil
}

// CreateSubtask creates a subtask under a task and returns it with its
// server-assigned ID. The subtask's structural invariants are checked
// before the request is issued.
func (c *Client) CreateSubtask(ctx context.Context, sub model.Subtask) (*model.Subtask, error) {
	if strings.TrimSpace(sub.Question) == "" {
		return nil, fmt.Errorf("subtask question must not be empty")
	}
	if sub.TaskID == "" {
		return nil, fmt.Errorf("subtask needs a task")
	}
	if sub.ProvidedFile == "" {
		sub.ProvidedFile = model.FileNone
	}
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("creating subtask: %w", err)
	}

	var created model.Subtask
	path := "/api/tasks/" + url.PathEscape(sub.TaskID) + "/subtasks"
	if err := c.post(ctx, path, sub, &created); err != nil {
		return nil, fmt.Errorf("creating subtask: %w", err)
	}
	return &created, nil
}

// AnswerSubtask submits an answer for an unanswered subtask. An already
// answered subtask is rejected locally; resubmitting an answer goes
// through UpdateSubtask as an explicit edit. For multiple-choice
// subtasks the answer must be one of the configured options.
func (c *Client) AnswerSubtask(
	ctx context.Context,
	sub model.Subtask,
	answer string,
) (*model.Subtask, error) {
	if sub.Answered {
		return nil, fmt.Errorf(
			"subtask %s is already answered; edit it explicitly instead", sub.ID,
		)
	}
	if sub.Type == model.SubtaskTypeMultipleChoice && !sub.HasOption(answer) {
		return nil, fmt.Errorf(
			"answer %q is not one of the options for subtask %s", answer, sub.ID,
		)
	}
	if sub.Type == model.SubtaskTypeOpenAnswer && strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("answer must not be empty for subtask %s", sub.ID)
	}

	body := map[string]string{"selected_option": answer}

	var answered model.Subtask
	path := "/api/subtasks/" + url.PathEscape(sub.ID) + "/answer"
	if err := c.post(ctx, path, body, &answered); err != nil {
		return nil, fmt.Errorf("answering subtask %s: %w", sub.ID, err)
	}
	return &answered, nil
}

// UpdateSubtask updates a subtask, including reassignment and explicit
// answer edits.
func (c *Client) UpdateSubtask(ctx context.Context, sub model.Subtask) (*model.Subtask, error) {
	if strings.TrimSpace(sub.Question) == "" {
		return nil, fmt.Errorf("subtask question must not be empty")
	}
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("updating subtask %s: %w", sub.ID, err)
	}

	var updated model.Subtask
	path := "/api/subtasks/" + url.PathEscape(sub.ID)
	if err := c.put(ctx, path, sub, &updated); err != nil {
		return nil, fmt.Errorf("updating subtask %s: %w", sub.ID, err)
	}
	return &updated, nil
}

// DeleteSubtask deletes a subtask.
func (c *Client) DeleteSubtask(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/subtasks/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("deleting subtask %s: %w", id, err)
	}
	return nil
}
