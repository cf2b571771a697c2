package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/tests/testutil"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestReplaceProjectsOrdersNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	err := s.ReplaceProjects(ctx, []model.Project{
		{ID: "p-1", Name: "first", CreatedAt: older},
		{ID: "p-2", Name: "second", CreatedAt: newer},
	})
	require.NoError(t, err)

	projects, err := s.GetProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p-2", projects[0].ID)
	assert.Equal(t, "p-1", projects[1].ID)

	// A later snapshot fully replaces the cached list.
	err = s.ReplaceProjects(ctx, []model.Project{
		{ID: "p-3", Name: "only", CreatedAt: newer},
	})
	require.NoError(t, err)

	projects, err = s.GetProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "p-3", projects[0].ID)
}

func TestReplaceProjectTasksIsScopedToProject(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)

	err := s.ReplaceProjectTasks(ctx, "p-1", []model.Task{
		{ID: "t-1", ProjectID: "p-1", Title: "one", Priority: model.PriorityLow,
			Status: model.StatusPending, CreatedAt: now},
	})
	require.NoError(t, err)

	err = s.ReplaceProjectTasks(ctx, "p-2", []model.Task{
		{ID: "t-2", ProjectID: "p-2", Title: "two", Priority: model.PriorityHigh,
			Status: model.StatusInProgress, AssignedTo: "u-1", CreatedAt: now,
			DueDate: timePtr(now.Add(48 * time.Hour))},
	})
	require.NoError(t, err)

	// Replacing p-1 with an empty snapshot leaves p-2 untouched.
	require.NoError(t, s.ReplaceProjectTasks(ctx, "p-1", nil))

	tasks, err := s.GetProjectTasks(ctx, "p-1")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	tasks, err = s.GetProjectTasks(ctx, "p-2")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t-2", tasks[0].ID)
	assert.Equal(t, "u-1", tasks[0].AssignedTo)
	require.NotNil(t, tasks[0].DueDate)
	assert.True(t, tasks[0].DueDate.Equal(now.Add(48*time.Hour)))
}

func TestSubtaskRoundTripAndCount(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	err := s.ReplaceProjectTasks(ctx, "p-1", []model.Task{
		{ID: "t-1", ProjectID: "p-1", Title: "one", Priority: model.PriorityMedium,
			Status: model.StatusPending, CreatedAt: now},
	})
	require.NoError(t, err)

	err = s.ReplaceTaskSubtasks(ctx, "t-1", []model.Subtask{
		{ID: "s-1", TaskID: "t-1", Question: "approve?",
			Type:    model.SubtaskTypeMultipleChoice,
			Options: []string{"yes", "no"}, AssignedTo: "u-1"},
		{ID: "s-2", TaskID: "t-1", Question: "notes?",
			Type: model.SubtaskTypeOpenAnswer, Answered: true,
			SelectedOption: "looks fine",
			ProvidedFile:   model.FileOnDisk, FileReference: "report.pdf"},
	})
	require.NoError(t, err)

	subtasks, err := s.GetTaskSubtasks(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, subtasks, 2)

	byID := map[string]model.Subtask{}
	for _, sub := range subtasks {
		byID[sub.ID] = sub
	}
	assert.Equal(t, []string{"yes", "no"}, byID["s-1"].Options)
	assert.False(t, byID["s-1"].Answered)
	assert.True(t, byID["s-2"].Answered)
	assert.Equal(t, model.FileOnDisk, byID["s-2"].ProvidedFile)
	assert.Equal(t, "report.pdf", byID["s-2"].FileReference)

	// The task list view carries the subtask count.
	tasks, err := s.GetProjectTasks(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 2, tasks[0].SubtaskCount)

	task, err := s.GetTaskByID(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, 2, task.SubtaskCount)
}

func TestGetTaskByIDMissingReturnsNil(t *testing.T) {
	s := testutil.NewTestStore(t)

	task, err := s.GetTaskByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestUserLookup(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	err := s.ReplaceUsers(ctx, []model.User{
		{ID: "u-1", Username: "ada", FullName: "Ada L.", UserType: model.UserTypeHuman},
		{ID: "u-2", Username: "deploy-bot", UserType: model.UserTypeBot},
	})
	require.NoError(t, err)

	u, err := s.GetUserByUsername(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u-1", u.ID)

	missing, err := s.GetUserByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	users, err := s.GetUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestNotificationsLifecycle(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	err := s.CreateNotification(ctx, model.Notification{
		TaskID:  "t-1",
		Message: "You were assigned a new decision",
	})
	require.NoError(t, err)

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.NotEmpty(t, unread[0].ID)

	require.NoError(t, s.MarkNotificationRead(ctx, unread[0].ID))

	unread, err = s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
