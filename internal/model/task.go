package model

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskNotStarted TaskStatus = "not_started"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// Label returns the display label for a task status.
func (s TaskStatus) Label() string {
	switch s {
	case TaskTodo, TaskNotStarted:
		return "To Do"
	case TaskInProgress:
		return "In Progress"
	case TaskCompleted:
		return "Completed"
	case "":
		return "Unknown"
	default:
		return string(s)
	}
}

// TaskPriority ranks how urgent a task is.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// UserRef is the lightweight user relation embedded in tasks.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Task is a unit of work, optionally belonging to a project.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Project     *ProjectRef  `json:"project,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Assignee    *UserRef     `json:"assignee,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ProjectID returns the ID of the owning project, or "" for orphaned tasks.
func (t Task) ProjectID() string {
	if t.Project == nil {
		return ""
	}
	return t.Project.ID
}

// ProjectTitle returns the title of the owning project, or "".
func (t Task) ProjectTitle() string {
	if t.Project == nil {
		return ""
	}
	return t.Project.Title
}

// IsCompleted reports whether the task counts as done.
func (t Task) IsCompleted() bool {
	return t.Status == TaskCompleted
}
