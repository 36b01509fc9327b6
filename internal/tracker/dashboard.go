package tracker

import (
	"context"
	"time"

	"github.com/nhle/tracerx/internal/fetch"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/metrics"
	"github.com/nhle/tracerx/internal/model"
)

// RecentProjectCount is how many projects the dashboard highlights.
const RecentProjectCount = 3

// DeadlineItem is a dashboard deadline with its derived day count.
type DeadlineItem struct {
	model.Deadline
	DaysLeft int
	Label    string
	Urgency  metrics.Urgency
}

// Dashboard is everything the dashboard view shows.
type Dashboard struct {
	Stats           model.DashboardStats
	Totals          metrics.DashboardTotals
	RecentProjects  []model.ProjectSummary
	Activities      []model.Activity
	Deadlines       []DeadlineItem
	MonthlyEarnings []model.MonthlyEarning
	Transactions    []model.Transaction
	OrphanedTasks   int
	LoadedAt        time.Time
}

// LoadDashboard fetches stats, projects, activities, deadlines, finance
// overview and tasks concurrently. Any failure fails the whole load and
// no partial dashboard is returned.
func (s *Service) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	var (
		stats      *model.DashboardStats
		projects   []model.Project
		activities []model.Activity
		deadlines  []model.Deadline
		overview   *model.FinanceOverview
		tasks      []model.Task
	)

	err := fetch.All(ctx,
		func(ctx context.Context) (err error) {
			stats, err = s.api.DashboardStats(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			projects, err = s.api.ListProjects(ctx, projectFilterAll)
			return err
		},
		func(ctx context.Context) (err error) {
			activities, err = s.api.DashboardActivities(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			deadlines, err = s.api.DashboardDeadlines(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			overview, err = s.api.DashboardFinanceOverview(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			tasks, err = s.api.ListTasks(ctx, taskFilterAll)
			return err
		},
	)
	if err != nil {
		s.logger.Warn("dashboard load failed", logging.FieldError, err)
		return nil, err
	}

	now := s.now()
	d := &Dashboard{
		Stats:           *stats,
		Totals:          metrics.DashboardRollup(projects, *stats),
		RecentProjects:  metrics.RecentSummaries(projects, tasks, RecentProjectCount),
		Activities:      activities,
		Deadlines:       deadlineItems(deadlines, now),
		MonthlyEarnings: overview.MonthlyEarnings,
		Transactions:    overview.Transactions,
		OrphanedTasks:   len(metrics.Orphans(tasks, projects)),
		LoadedAt:        now,
	}
	if d.OrphanedTasks > 0 {
		s.logger.Debug("tasks without a known project", "count", d.OrphanedTasks)
	}
	return d, nil
}

func deadlineItems(deadlines []model.Deadline, now time.Time) []DeadlineItem {
	out := make([]DeadlineItem, 0, len(deadlines))
	for _, dl := range deadlines {
		item := DeadlineItem{Deadline: dl}
		if !dl.Deadline.IsZero() {
			item.DaysLeft = metrics.DaysUntil(dl.Deadline, now)
			item.Label = metrics.DueLabel(item.DaysLeft)
			item.Urgency = metrics.UrgencyFor(item.DaysLeft)
		}
		out = append(out, item)
	}
	return out
}
