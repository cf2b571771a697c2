// Package filter evaluates the dashboard filter predicate over task
// collections. Evaluation is pure and linear; it is meant to run fresh
// on every render pass without mutating its input.
package filter

import (
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
	"github.com/taskdeck/taskdeck/internal/status"
)

// Assignment scope values. An empty Assignment is treated as ScopeAll.
const (
	ScopeAll        = "all"
	ScopeAssigned   = "assigned"
	ScopeUnassigned = "unassigned"
)

// DateRange is an inclusive due-date window. Nil endpoints are open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) active() bool {
	return r.Start != nil || r.End != nil
}

// Filters is the multi-criteria predicate configuration. All active
// criteria combine with AND semantics.
type Filters struct {
	// Search is a case-insensitive substring matched against title,
	// description, and status text. Empty always passes.
	Search string

	// Assignment scopes the view to tasks assigned to the current
	// user, unassigned tasks, or all tasks.
	Assignment string

	// Status and Priority restrict to set membership when non-empty,
	// compared case-insensitively. Empty imposes no constraint.
	Status   []string
	Priority []string

	// Due, OverdueOnly, and RequireSubtasks are only evaluated inside
	// an assignment-scoped view (Assignment != all). This scoping is
	// deliberate, inherited product behavior; do not "fix" it here.
	Due             DateRange
	OverdueOnly     bool
	RequireSubtasks bool
}

// Matches reports whether the task satisfies every active criterion.
func Matches(t model.Task, f Filters, currentUserID string, now time.Time) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(t.Status), q) {
			return false
		}
	}

	switch f.Assignment {
	case ScopeAssigned:
		if t.AssignedTo == "" || t.AssignedTo != currentUserID {
			return false
		}
	case ScopeUnassigned:
		if t.AssignedTo != "" {
			return false
		}
	}

	if len(f.Status) > 0 && !containsFold(f.Status, t.Status) {
		return false
	}
	if len(f.Priority) > 0 && !containsFold(f.Priority, t.Priority) {
		return false
	}

	// Date, overdue, and subtask criteria apply only within an
	// assignment-scoped view.
	if f.Assignment == ScopeAll || f.Assignment == "" {
		return true
	}

	if f.Due.active() {
		if t.DueDate == nil {
			return false
		}
		if f.Due.Start != nil && t.DueDate.Before(*f.Due.Start) {
			return false
		}
		if f.Due.End != nil && t.DueDate.After(*f.Due.End) {
			return false
		}
	}

	if f.OverdueOnly && !status.Overdue(t, now) {
		return false
	}

	if f.RequireSubtasks && t.SubtaskCount == 0 {
		return false
	}

	return true
}

// Apply returns the tasks matching the filters, in input order. The
// input slice is never modified.
func Apply(tasks []model.Task, f Filters, currentUserID string, now time.Time) []model.Task {
	var matched []model.Task
	for _, t := range tasks {
		if Matches(t, f, currentUserID, now) {
			matched = append(matched, t)
		}
	}
	return matched
}

// containsFold reports case-insensitive membership of v in set.
func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
