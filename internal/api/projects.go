package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ListProjects retrieves all projects, most recently created first.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.get(ctx, "/api/projects", &projects); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// CreateProject creates a new project and returns it with its
// server-assigned ID.
func (c *Client) CreateProject(
	ctx context.Context,
	name, description string,
) (*model.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}

	body := map[string]string{
		"name":        name,
		"description": description,
	}

	var project model.Project
	if err := c.post(ctx, "/api/projects", body, &project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return &project, nil
}

// UpdateProject updates a project's name and description.
func (c *Client) UpdateProject(
	ctx context.Context,
	project model.Project,
) (*model.Project, error) {
	if strings.TrimSpace(project.Name) == "" {
		return nil, fmt.Errorf("project name must not be empty")
	}

	var updated model.Project
	path := "/api/projects/" + url.PathEscape(project.ID)
	if err := c.put(ctx, path, project, &updated); err != nil {
		return nil, fmt.Errorf("updating project %s: %w", project.ID, err)
	}
	return &updated, nil
}

// DeleteProject deletes a project. The server cascades the delete to the
// project's tasks and their subtasks, which is irreversible; callers
// must pass confirmed=true after warning the user, otherwise the request
// is refused without touching the network.
func (c *Client) DeleteProject(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf(
			"deleting project %s cascades to its tasks and subtasks; confirmation required",
			id,
		)
	}
	if err := c.delete(ctx, "/api/projects/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return nil
}
