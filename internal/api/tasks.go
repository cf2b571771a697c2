package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ListTasks retrieves all tasks for a project.
func (c *Client) ListTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	path := "/api/projects/" + url.PathEscape(projectID) + "/tasks"

	var tasks []model.Task
	if err := c.get(ctx, path, &tasks); err != nil {
		return nil, fmt.Errorf("listing tasks for project %s: %w", projectID, err)
	}
	return tasks, nil
}

// GetTaskFull retrieves a single task together with its subtasks.
func (c *Client) GetTaskFull(ctx context.Context, id string) (*model.TaskWithSubtasks, error) {
	path := "/api/tasks/" + url.PathEscape(id) + "/full"

	var full model.TaskWithSubtasks
	if err := c.get(ctx, path, &full); err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &full, nil
}

// CreateTask creates a task in a project and returns it with its
// server-assigned ID.
func (c *Client) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}
	if task.ProjectID == "" {
		return nil, fmt.Errorf("task needs a project")
	}

	var created model.Task
	path := "/api/projects/" + url.PathEscape(task.ProjectID) + "/tasks"
	if err := c.post(ctx, path, task, &created); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &created, nil
}

// UpdateTask updates a task's editable fields (title, description,
// priority, due date, start date).
func (c *Client) UpdateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("task title must not be empty")
	}

	var updated model.Task
	path := "/api/tasks/" + url.PathEscape(task.ID)
	if err := c.put(ctx, path, task, &updated); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	return &updated, nil
}

// DeleteTask deletes a task. The server cascades to its subtasks.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/api/tasks/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

// StartTask transitions a task into in_progress.
func (c *Client) StartTask(ctx context.Context, id string) (*model.Task, error) {
	return c.transitionTask(ctx, id, "start")
}

// CompleteTask transitions a task into done. The server sets completed_at.
func (c *Client) CompleteTask(ctx context.Context, id string) (*model.Task, error) {
	return c.transitionTask(ctx, id, "complete")
}

// ReopenTask transitions a done task back to pending. The server clears
// completed_at.
func (c *Client) ReopenTask(ctx context.Context, id string) (*model.Task, error) {
	return c.transitionTask(ctx, id, "reopen")
}

func (c *Client) transitionTask(ctx context.Context, id, transition string) (*model.Task, error) {
	var updated model.Task
	path := "/api/tasks/" + url.PathEscape(id) + "/" + transition
	if err := c.post(ctx, path, nil, &updated); err != nil {
		return nil, fmt.Errorf("transitioning task %s (%s): %w", id, transition, err)
	}
	return &updated, nil
}

// AssignTask assigns a task to a user. An empty userID unassigns it.
func (c *Client) AssignTask(ctx context.Context, id, userID string) (*model.Task, error) {
	body := map[string]string{"assigned_to": userID}

	var updated model.Task
	path := "/api/tasks/" + url.PathEscape(id) + "/assignee"
	if err := c.put(ctx, path, body, &updated); err != nil {
		return nil, fmt.Errorf("assigning task %s: %w", id, err)
	}
	return &updated, nil
}
