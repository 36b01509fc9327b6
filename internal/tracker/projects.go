package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/fetch"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/metrics"
	"github.com/nhle/tracerx/internal/model"
)

var (
	projectFilterAll = api.ProjectFilter{}
	taskFilterAll    = api.TaskFilter{}
)

// ProjectFilters are the status filter keys offered by the project list.
var ProjectFilters = []string{"all", "active", "completed", "on-hold", "archived"}

// ProjectRow is a project list entry.
type ProjectRow struct {
	model.Project
	Progress      int
	HasDeadline   bool
	DaysLeft      int
	DeadlineLabel string
}

// ProjectQuery selects which projects to list.
type ProjectQuery struct {
	Status string
	Search string
}

// LoadProjects fetches the projects matching q.Status together with all
// tasks, joined all-or-nothing, and derives each project's progress.
// Search is applied client-side to title and client name.
func (s *Service) LoadProjects(ctx context.Context, q ProjectQuery) ([]ProjectRow, error) {
	var (
		projects []model.Project
		tasks    []model.Task
	)
	err := fetch.All(ctx,
		func(ctx context.Context) (err error) {
			projects, err = s.api.ListProjects(ctx, api.ProjectFilter{Status: q.Status})
			return err
		},
		func(ctx context.Context) (err error) {
			tasks, err = s.api.ListTasks(ctx, taskFilterAll)
			return err
		},
	)
	if err != nil {
		s.logger.Warn("projects load failed", logging.FieldError, err)
		return nil, err
	}

	progress := metrics.Progress(tasks, projects)
	now := s.now()
	rows := make([]ProjectRow, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, newProjectRow(p, progress[p.ID], now))
	}
	return FilterProjects(rows, q.Search), nil
}

// FilterProjects keeps rows whose title or client contains search,
// ignoring case. An empty search keeps everything.
func FilterProjects(rows []ProjectRow, search string) []ProjectRow {
	out := make([]ProjectRow, 0, len(rows))
	for _, r := range rows {
		if matchesProjectSearch(r.Project, search) {
			out = append(out, r)
		}
	}
	return out
}

func newProjectRow(p model.Project, progress int, now time.Time) ProjectRow {
	row := ProjectRow{Project: p, Progress: progress}
	if p.Deadline != nil {
		row.HasDeadline = true
		row.DaysLeft = metrics.DaysUntil(*p.Deadline, now)
		row.DeadlineLabel = metrics.DeadlineLabel(row.DaysLeft)
	}
	return row
}

func matchesProjectSearch(p model.Project, search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), search) ||
		strings.Contains(strings.ToLower(p.Client), search)
}

// DeleteProjects removes every id concurrently. If any delete fails the
// first error is returned; callers should reload since some deletes may
// have gone through.
func (s *Service) DeleteProjects(ctx context.Context, ids []string) error {
	fns := make([]func(context.Context) error, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, func(ctx context.Context) error {
			return s.api.DeleteProject(ctx, id)
		})
	}
	if err := fetch.All(ctx, fns...); err != nil {
		s.logger.Warn("bulk delete failed", "count", len(ids), logging.FieldError, err)
		return err
	}
	s.logger.Info("projects deleted", "count", len(ids))
	return nil
}

// ProjectStatusCycle is the order the status key steps through.
var ProjectStatusCycle = []model.ProjectStatus{
	model.ProjectNotStarted,
	model.ProjectInProgress,
	model.ProjectOnHold,
	model.ProjectCompleted,
}

// NextProjectStatus returns the status after current in
// ProjectStatusCycle. Unknown and archived statuses restart the cycle.
func NextProjectStatus(current model.ProjectStatus) model.ProjectStatus {
	for i, s := range ProjectStatusCycle {
		if s == current {
			return ProjectStatusCycle[(i+1)%len(ProjectStatusCycle)]
		}
	}
	return ProjectStatusCycle[0]
}

// SetProjectStatus changes a project's status.
func (s *Service) SetProjectStatus(ctx context.Context, id string, status model.ProjectStatus) error {
	v := string(status)
	return s.api.UpdateProject(ctx, id, api.ProjectUpdate{Status: &v})
}

// SetProjectArchived archives or restores a project.
func (s *Service) SetProjectArchived(ctx context.Context, id string, archived bool) error {
	return s.api.UpdateProject(ctx, id, api.ProjectUpdate{IsArchived: &archived})
}
