package model

import "time"

// ActivityType selects how an activity entry is rendered.
type ActivityType string

const (
	ActivityTaskCompleted   ActivityType = "task_completed"
	ActivityTaskUpdated     ActivityType = "task_updated"
	ActivityTaskCreated     ActivityType = "task_created"
	ActivityProjectCreated  ActivityType = "project_created"
	ActivityPaymentReceived ActivityType = "payment_received"
	ActivityNoteAdded       ActivityType = "note_added"
)

// Activity is an entry in the user's activity feed.
type Activity struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Title     string       `json:"title"`
	Project   *ProjectRef  `json:"project,omitempty"`
	Read      bool         `json:"read"`
	CreatedAt time.Time    `json:"created_at"`
}
