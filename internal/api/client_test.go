package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/model"
)

func TestListTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/p-1/tasks", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode([]model.Task{
			{ID: "t-1", ProjectID: "p-1", Title: "one", Status: model.StatusPending},
			{ID: "t-2", ProjectID: "p-1", Title: "two", Status: model.StatusDone},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", nil)

	tasks, err := c.ListTasks(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t-1", tasks[0].ID)
}

func TestErrorEnvelopeIsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    ErrCodeNotFound,
			"message": "task does not exist",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", nil)

	_, err := c.GetTaskFull(context.Background(), "t-404")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, ErrCodeNotFound, apiErr.Code)
	assert.Equal(t, "task does not exist", apiErr.Message)
	assert.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	assert.False(t, IsAuthError(err))
}

func TestUnauthorizedInvokesCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    ErrCodeUnauthorized,
			"message": "token expired",
		})
	}))
	defer srv.Close()

	loggedOut := 0
	c := NewClient(srv.URL, "stale-token", func() { loggedOut++ })

	_, err := c.ListProjects(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, 1, loggedOut)
}

func TestRateLimitRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode([]model.User{{ID: "u-1", Username: "ada"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", nil)

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	require.Len(t, users, 1)
}

func TestAnswerSubtaskLocalGuards(t *testing.T) {
	// No server: these requests must be refused before any network I/O.
	c := NewClient("http://127.0.0.1:0", "secret", nil)
	ctx := context.Background()

	answered := model.Subtask{
		ID: "s-1", Type: model.SubtaskTypeOpenAnswer, Answered: true,
	}
	_, err := c.AnswerSubtask(ctx, answered, "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already answered")

	choice := model.Subtask{
		ID: "s-2", Type: model.SubtaskTypeMultipleChoice,
		Options: []string{"yes", "no"},
	}
	_, err = c.AnswerSubtask(ctx, choice, "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not one of the options")

	open := model.Subtask{ID: "s-3", Type: model.SubtaskTypeOpenAnswer}
	_, err = c.AnswerSubtask(ctx, open, "   ")
	require.Error(t, err)
}

func TestDeleteProjectRequiresConfirmation(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", nil)
	ctx := context.Background()

	err := c.DeleteProject(ctx, "p-1", false)
	require.Error(t, err)
	assert.False(t, called, "unconfirmed delete must not reach the server")

	require.NoError(t, c.DeleteProject(ctx, "p-1", true))
	assert.True(t, called)
}

func TestCreateSubtaskValidatesInvariants(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "secret", nil)
	ctx := context.Background()

	// multiple_choice without options.
	_, err := c.CreateSubtask(ctx, model.Subtask{
		TaskID: "t-1", Question: "approve?",
		Type: model.SubtaskTypeMultipleChoice,
	})
	require.Error(t, err)

	// A provided file needs a reference.
	_, err = c.CreateSubtask(ctx, model.Subtask{
		TaskID: "t-1", Question: "review the doc",
		Type:         model.SubtaskTypeOpenAnswer,
		ProvidedFile: model.FileEmailed,
	})
	require.Error(t, err)
}
