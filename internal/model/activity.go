package model

import "time"

// ActivityMessage is a single recent assignment-activity entry from the
// server's "what's new" summary.
type ActivityMessage struct {
	TaskID    string    `json:"task_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivitySummary is the server's digest of activity since a timestamp.
// The client only consumes this summary; it never generates or stores
// activity records itself.
type ActivitySummary struct {
	Count    int               `json:"count"`
	Messages []ActivityMessage `json:"messages"`
}

// Notification is a client-local record surfaced to the user about new
// work detected by the what's-new poller. Unlike server entities, its ID
// is generated locally.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"task_id" db:"task_id"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
