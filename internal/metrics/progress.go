// Package metrics derives the numbers the views display from raw API
// entities: completion percentages, day counts and money rollups. All
// functions are pure.
package metrics

import (
	"sort"

	"github.com/nhle/tracerx/internal/model"
)

// Percent returns round-half-up(100 * done / total) clamped to [0, 100].
// A zero total yields 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	if done < 0 {
		done = 0
	}
	if done > total {
		done = total
	}
	return (200*done + total) / (2 * total)
}

// Progress maps every project ID to its completion percentage. Tasks
// without a project, or whose project is not in projects, are orphans
// and count toward no project. An empty ID never joins, so a project
// decoded without one stays at 0.
func Progress(tasks []model.Task, projects []model.Project) map[string]int {
	type tally struct{ done, total int }

	counts := make(map[string]*tally, len(projects))
	for _, p := range projects {
		if p.ID != "" {
			counts[p.ID] = &tally{}
		}
	}
	for _, t := range tasks {
		id := t.ProjectID()
		if id == "" {
			continue
		}
		c, ok := counts[id]
		if !ok {
			continue
		}
		c.total++
		if t.IsCompleted() {
			c.done++
		}
	}

	out := make(map[string]int, len(projects))
	for id, c := range counts {
		out[id] = Percent(c.done, c.total)
	}
	return out
}

// Orphans returns the tasks that belong to none of projects. A task
// whose project reference has no ID is always an orphan.
func Orphans(tasks []model.Task, projects []model.Project) []model.Task {
	known := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if p.ID != "" {
			known[p.ID] = struct{}{}
		}
	}
	var out []model.Task
	for _, t := range tasks {
		if _, ok := known[t.ProjectID()]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// Summaries pairs each project with its progress, preserving order.
func Summaries(projects []model.Project, tasks []model.Task) []model.ProjectSummary {
	progress := Progress(tasks, projects)
	out := make([]model.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, model.ProjectSummary{
			ProjectID: p.ID,
			Title:     p.Title,
			Client:    p.Client,
			Status:    p.Status,
			Progress:  progress[p.ID],
			CreatedAt: p.CreatedAt,
		})
	}
	return out
}

// RecentSummaries returns the n most recently created projects, newest
// first, with their progress. The input slice is not reordered.
func RecentSummaries(projects []model.Project, tasks []model.Task, n int) []model.ProjectSummary {
	all := Summaries(projects, tasks)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}
