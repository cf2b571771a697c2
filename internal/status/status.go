// Package status derives the effective status of a task from its stored
// status and due date. The derived "elapsed" state is never persisted;
// it is recomputed from the clock at every point of use so that tasks
// become elapsed without any external state change.
package status

import (
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

// ElapsedGrace is the fixed buffer past the due date before a task is
// considered elapsed. Due date and current time are compared as absolute
// instants, not calendar dates.
const ElapsedGrace = 24 * time.Hour

// Effective computes the status shown to users for a task at the given
// instant.
//
// A done task is done unconditionally; due-date lapses are irrelevant
// once complete. Otherwise a task whose due date lies more than
// ElapsedGrace in the past is elapsed. Everything else reports its
// stored status verbatim. A task with no due date can never be elapsed.
func Effective(t model.Task, now time.Time) string {
	if t.Status == model.StatusDone {
		return model.StatusDone
	}
	if t.DueDate != nil && now.After(t.DueDate.Add(ElapsedGrace)) {
		return model.StatusElapsed
	}
	return t.Status
}

// Overdue reports whether the task's due date falls strictly before the
// start of the current calendar day (in now's location).
func Overdue(t model.Task, now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	startOfDay := time.Date(
		now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location(),
	)
	return t.DueDate.Before(startOfDay)
}
