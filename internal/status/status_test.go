package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taskdeck/taskdeck/internal/model"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestEffectiveDoneIsTerminal(t *testing.T) {
	now := time.Now()

	// A done task stays done even with a due date far in the past.
	task := model.Task{
		Status:  model.StatusDone,
		DueDate: timePtr(now.AddDate(-1, 0, 0)),
	}
	assert.Equal(t, model.StatusDone, Effective(task, now))

	task.DueDate = nil
	assert.Equal(t, model.StatusDone, Effective(task, now))
}

func TestEffectiveElapsedBoundary(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		status  string
		dueAgo  time.Duration
		want    string
	}{
		{"pending 25h past due", model.StatusPending, 25 * time.Hour, model.StatusElapsed},
		{"in_progress 25h past due", model.StatusInProgress, 25 * time.Hour, model.StatusElapsed},
		{"pending 23h past due", model.StatusPending, 23 * time.Hour, model.StatusPending},
		{"in_progress 23h past due", model.StatusInProgress, 23 * time.Hour, model.StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := model.Task{
				Status:  tt.status,
				DueDate: timePtr(now.Add(-tt.dueAgo)),
			}
			assert.Equal(t, tt.want, Effective(task, now))
		})
	}
}

func TestEffectiveExactGraceIsNotElapsed(t *testing.T) {
	// The buffer is exactly 24 hours; only strictly after due+24h counts.
	now := time.Now()
	task := model.Task{
		Status:  model.StatusPending,
		DueDate: timePtr(now.Add(-ElapsedGrace)),
	}
	assert.Equal(t, model.StatusPending, Effective(task, now))

	task.DueDate = timePtr(now.Add(-ElapsedGrace - time.Second))
	assert.Equal(t, model.StatusElapsed, Effective(task, now))
}

func TestEffectiveNoDueDateNeverElapses(t *testing.T) {
	now := time.Now()
	task := model.Task{Status: model.StatusInProgress}
	assert.Equal(t, model.StatusInProgress, Effective(task, now))
}

func TestOverdue(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

	yesterday := time.Date(2024, 6, 14, 23, 0, 0, 0, time.UTC)
	earlierToday := time.Date(2024, 6, 15, 1, 0, 0, 0, time.UTC)
	midnight := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, Overdue(model.Task{DueDate: &yesterday}, now))

	// Earlier today is not overdue; the cutoff is the start of the day.
	assert.False(t, Overdue(model.Task{DueDate: &earlierToday}, now))
	assert.False(t, Overdue(model.Task{DueDate: &midnight}, now))

	assert.False(t, Overdue(model.Task{}, now))
}
