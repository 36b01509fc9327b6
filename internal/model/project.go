package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state reported by the API for a project.
type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "not_started"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectArchived   ProjectStatus = "archived"
)

// Label returns the display label for a project status.
func (s ProjectStatus) Label() string {
	switch s {
	case ProjectNotStarted:
		return "Not Started"
	case ProjectInProgress:
		return "In Progress"
	case ProjectOnHold:
		return "On Hold"
	case ProjectCompleted:
		return "Completed"
	case ProjectArchived:
		return "Archived"
	case "":
		return "Unknown"
	default:
		return string(s)
	}
}

// Budget is the agreed total for a project in a single currency.
type Budget struct {
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// Note is a free-text annotation attached to a project.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Important bool      `json:"important"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a client engagement tracked by the API.
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Client      string        `json:"client"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`

	// Deadline is nil when the project has no due date.
	Deadline *time.Time `json:"deadline,omitempty"`

	Budget    Budget    `json:"budget"`
	Notes     []Note    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectRef is the lightweight project relation embedded in tasks,
// activities and deadlines.
type ProjectRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ProjectSummary is a project paired with its derived completion percentage.
type ProjectSummary struct {
	ProjectID string        `json:"project_id"`
	Title     string        `json:"title"`
	Client    string        `json:"client"`
	Status    ProjectStatus `json:"status"`
	Progress  int           `json:"progress"`
	CreatedAt time.Time     `json:"created_at"`
}
