// Package assignments builds the "My Assignments" view: for a given
// user, the tasks directly assigned to them plus tasks containing at
// least one open subtask they could answer, grouped by project with
// per-project counts by effective status.
package assignments

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/status"
)

// SubtaskFetcher loads the subtasks for a single task.
type SubtaskFetcher func(ctx context.Context, taskID string) ([]model.Subtask, error)

// Input carries everything the aggregation needs for one full pass.
type Input struct {
	Projects      []model.Project
	Tasks         []model.Task
	FetchSubtasks SubtaskFetcher
	UserID        string

	// ShowCompleted includes tasks whose effective status is done.
	ShowCompleted bool

	// Now is the evaluation instant for effective-status derivation.
	Now time.Time

	// Logger receives per-task fetch failures. Defaults to slog.Default.
	Logger *slog.Logger
}

// ProjectGroup is one project's slice of the aggregated view. Counts are
// computed from effective status, not raw stored status.
type ProjectGroup struct {
	Project           model.Project
	Tasks             []model.TaskWithSubtasks
	PendingCount      int
	InProgressCount   int
	ElapsedCount      int
	TotalSubtaskCount int
}

// Build assembles the grouped view. Projects with no matching tasks are
// omitted, including projects emptied by the show-completed filter.
//
// A task is included when it is assigned to the user, or when it has at
// least one unanswered subtask that is unassigned or assigned to the
// user; only such subtasks are attached. A failed subtask fetch excludes
// that task alone — it is logged and aggregation continues.
func Build(ctx context.Context, in Input) ([]ProjectGroup, error) {
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}

	groups := make(map[string]*ProjectGroup, len(in.Projects))

	for _, t := range in.Tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		subtasks, err := in.FetchSubtasks(ctx, t.ID)
		if err != nil {
			logger.Warn("excluding task from assignments view",
				"task_id", t.ID, "error", err)
			continue
		}

		open := openSubtasksFor(subtasks, in.UserID)
		if t.AssignedTo != in.UserID && len(open) == 0 {
			continue
		}

		eff := status.Effective(t, in.Now)
		if !in.ShowCompleted && eff == model.StatusDone {
			continue
		}

		g, ok := groups[t.ProjectID]
		if !ok {
			g = &ProjectGroup{}
			groups[t.ProjectID] = g
		}

		g.Tasks = append(g.Tasks, model.TaskWithSubtasks{Task: t, Subtasks: open})
		g.TotalSubtaskCount += len(open)

		switch eff {
		case model.StatusPending:
			g.PendingCount++
		case model.StatusInProgress:
			g.InProgressCount++
		case model.StatusElapsed:
			g.ElapsedCount++
		}
	}

	// Emit groups in project order, dropping projects without tasks.
	var out []ProjectGroup
	for _, p := range in.Projects {
		g, ok := groups[p.ID]
		if !ok || len(g.Tasks) == 0 {
			continue
		}
		g.Project = p
		out = append(out, *g)
	}

	return out, nil
}

// openSubtasksFor returns the subtasks the user could still answer:
// unanswered and either unassigned or assigned to them. Answered
// subtasks and those assigned to other users are dropped even when the
// owning task itself is included.
func openSubtasksFor(subtasks []model.Subtask, userID string) []model.Subtask {
	var open []model.Subtask
	for _, s := range subtasks {
		if s.Answered {
			continue
		}
		if s.AssignedTo != "" && s.AssignedTo != userID {
			continue
		}
		open = append(open, s)
	}
	return open
}
