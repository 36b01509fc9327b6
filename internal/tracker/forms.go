package tracker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/fetch"
	"github.com/nhle/tracerx/internal/model"
)

const (
	msgProjectRequired = "Please fill in all required fields: Title, Client Name, Budget, and Deadline."
	msgTaskRequired    = "Please fill all required fields."
)

// ProjectForm is the raw input of the new-project form.
type ProjectForm struct {
	Title       string
	ClientName  string
	Budget      string
	Currency    string
	Deadline    string
	Description string
}

// Validate checks required fields, the budget number and the deadline
// date format.
func (f ProjectForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" || strings.TrimSpace(f.ClientName) == "" ||
		strings.TrimSpace(f.Budget) == "" || strings.TrimSpace(f.Deadline) == "" {
		return model.NewValidationError("title", msgProjectRequired)
	}
	if b, err := decimal.NewFromString(strings.TrimSpace(f.Budget)); err != nil || b.IsNegative() {
		return model.NewValidationError("budget", "Budget must be a number")
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(f.Deadline)); err != nil {
		return model.NewValidationError("deadline", "Deadline must be a date (YYYY-MM-DD)")
	}
	return nil
}

// CreateProject validates the form and creates the project.
func (s *Service) CreateProject(ctx context.Context, f ProjectForm) (*model.Project, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	budget := decimal.RequireFromString(strings.TrimSpace(f.Budget))
	p, err := s.api.CreateProject(ctx, api.ProjectInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		ClientName:  strings.TrimSpace(f.ClientName),
		Budget:      jsonNumber(budget),
		Currency:    strings.TrimSpace(f.Currency),
		Deadline:    strings.TrimSpace(f.Deadline),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("project created", "title", f.Title)
	return p, nil
}

// TaskForm is the raw input of the new-task form.
type TaskForm struct {
	Title       string
	Description string
	ProjectID   string
	AssigneeID  string
	DueDate     string
	Priority    string
}

// Validate checks required fields and the due date format.
func (f TaskForm) Validate() error {
	if strings.TrimSpace(f.Title) == "" || f.ProjectID == "" || f.AssigneeID == "" ||
		strings.TrimSpace(f.DueDate) == "" {
		return model.NewValidationError("title", msgTaskRequired)
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(f.DueDate)); err != nil {
		return model.NewValidationError("due_date", "Due date must be a date (YYYY-MM-DD)")
	}
	return nil
}

// NewTaskForm returns a task form assigned to the signed-in user with
// low priority.
func (s *Service) NewTaskForm() TaskForm {
	f := TaskForm{Priority: string(model.PriorityLow)}
	if s.users != nil {
		if u, ok := s.users.User(); ok {
			f.AssigneeID = u.ID
		}
	}
	return f
}

// CreateTask validates the form and creates the task.
func (s *Service) CreateTask(ctx context.Context, f TaskForm) (*model.Task, error) {
	if f.AssigneeID == "" {
		f.AssigneeID = s.NewTaskForm().AssigneeID
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	t, err := s.api.CreateTask(ctx, api.TaskInput{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		ProjectID:   f.ProjectID,
		AssigneeID:  f.AssigneeID,
		DueDate:     strings.TrimSpace(f.DueDate),
		Priority:    f.Priority,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("task created", "title", f.Title)
	return t, nil
}

// TaskFormOptions are the pick lists of the new-task form.
type TaskFormOptions struct {
	Projects      []model.Project
	Collaborators []model.User
}

// LoadTaskFormOptions fetches projects and collaborators concurrently.
func (s *Service) LoadTaskFormOptions(ctx context.Context) (*TaskFormOptions, error) {
	var opts TaskFormOptions
	err := fetch.All(ctx,
		func(ctx context.Context) (err error) {
			opts.Projects, err = s.api.ListProjects(ctx, projectFilterAll)
			return err
		},
		func(ctx context.Context) (err error) {
			opts.Collaborators, err = s.api.SearchCollaborators(ctx, "")
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return &opts, nil
}

func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
