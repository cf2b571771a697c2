package model

import "time"

// Project is a grouping container for related tasks. Deleting a project
// cascades to its tasks and their subtasks on the server; the client must
// warn before issuing the delete.
type Project struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
