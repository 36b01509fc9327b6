package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/metrics"
	"github.com/nhle/tracerx/internal/model"
)

// TaskFilters are the status filter keys offered by the task list.
var TaskFilters = []string{"all", string(model.TaskTodo), string(model.TaskInProgress), string(model.TaskCompleted)}

// TaskRow is a task list entry with its due-date distance.
type TaskRow struct {
	model.Task
	HasDue   bool
	DaysLeft int
	DueLabel string
}

func newTaskRow(t model.Task, now time.Time) TaskRow {
	row := TaskRow{Task: t}
	if t.DueDate != nil {
		row.HasDue = true
		row.DaysLeft = metrics.DaysUntil(*t.DueDate, now)
		row.DueLabel = metrics.DueLabel(row.DaysLeft)
	}
	return row
}

// TaskQuery filters the task list client-side.
type TaskQuery struct {
	Status string
	Search string
}

// LoadTasks fetches every task.
func (s *Service) LoadTasks(ctx context.Context) ([]TaskRow, error) {
	tasks, err := s.api.ListTasks(ctx, taskFilterAll)
	if err != nil {
		s.logger.Warn("tasks load failed", logging.FieldError, err)
		return nil, err
	}
	now := s.now()
	rows := make([]TaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, newTaskRow(t, now))
	}
	return rows, nil
}

// FilterTasks applies the status filter and a case-insensitive search on
// task and project titles.
func FilterTasks(rows []TaskRow, q TaskQuery) []TaskRow {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]TaskRow, 0, len(rows))
	for _, r := range rows {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.ProjectTitle()), search) {
			continue
		}
		if q.Status != "" && q.Status != "all" && string(r.Status) != q.Status {
			continue
		}
		out = append(out, r)
	}
	return out
}

// NextStatus is the status a completion toggle moves a task to.
func NextStatus(current model.TaskStatus) model.TaskStatus {
	if current == model.TaskCompleted {
		return model.TaskTodo
	}
	return model.TaskCompleted
}

// ToggleTask flips a task between completed and todo and returns the new
// status.
func (s *Service) ToggleTask(ctx context.Context, t model.Task) (model.TaskStatus, error) {
	next := NextStatus(t.Status)
	v := string(next)
	if err := s.api.UpdateTask(ctx, t.ID, api.TaskUpdate{Status: &v}); err != nil {
		s.logger.Warn("task toggle failed", "task", t.ID, logging.FieldError, err)
		return t.Status, err
	}
	return next, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return s.api.DeleteTask(ctx, id)
}

// CommentOnTask posts a comment on a task.
func (s *Service) CommentOnTask(ctx context.Context, id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.NewValidationError("comment", "Comment cannot be empty")
	}
	return s.api.AddTaskComment(ctx, id, api.CommentInput{Text: text})
}
