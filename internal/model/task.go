package model

import "time"

// Stored task status constants. These are server-authoritative values;
// the "elapsed" state is never stored and is always derived from the due
// date at read time (see internal/status).
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"

	// StatusElapsed only ever appears as a derived effective status.
	StatusElapsed = "elapsed"
)

// Task priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a unit of work within a project.
//
// Invariant: CompletedAt is set if and only if Status is done; the server
// sets it on the complete transition and clears it on reopen. AssignedTo
// is a user ID, empty when unassigned.
type Task struct {
	ID          string     `json:"id" db:"id"`
	ProjectID   string     `json:"project_id" db:"project_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Priority    string     `json:"priority" db:"priority"`
	Status      string     `json:"status" db:"status"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	StartDate   *time.Time `json:"start_date,omitempty" db:"start_date"`
	AssignedTo  string     `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// SubtaskCount is populated by list queries for views that never
	// load the subtasks themselves.
	SubtaskCount int `json:"subtask_count,omitempty" db:"-"`
}

// TaskWithSubtasks is the "full" representation of a task: the task plus
// its subtasks, as returned by the single-task fetch.
type TaskWithSubtasks struct {
	Task
	Subtasks []Subtask `json:"subtasks"`
}
