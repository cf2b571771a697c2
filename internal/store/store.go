// Package store is the local working cache of server entities plus
// client-local notifications. Entities are cached keyed by their
// server-assigned IDs; each successful guarded fetch replaces the slice
// of the cache belonging to its key, so the cache never invents data
// the server has not confirmed.
package store

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/model"
)

// Store defines the persistence interface for the working cache.
type Store interface {
	// === Projects ===

	ReplaceProjects(ctx context.Context, projects []model.Project) error
	GetProjects(ctx context.Context) ([]model.Project, error)

	// === Tasks ===

	ReplaceProjectTasks(ctx context.Context, projectID string, tasks []model.Task) error
	GetProjectTasks(ctx context.Context, projectID string) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)

	// === Subtasks ===

	ReplaceTaskSubtasks(ctx context.Context, taskID string, subtasks []model.Subtask) error
	GetTaskSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error)

	// === Users ===

	ReplaceUsers(ctx context.Context, users []model.User) error
	GetUsers(ctx context.Context) ([]model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// === Notifications (client-local) ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	Close() error
}
