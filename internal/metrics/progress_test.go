package metrics

import (
	"testing"
	"time"

	"github.com/nhle/tracerx/internal/model"
)

func task(projectID string, status model.TaskStatus) model.Task {
	t := model.Task{Status: status}
	if projectID != "" {
		t.Project = &model.ProjectRef{ID: projectID}
	}
	return t
}

func TestPercent(t *testing.T) {
	tests := []struct {
		done, total, want int
	}{
		{0, 0, 0},
		{3, 4, 75},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{4, 4, 100},
		{5, 4, 100},
		{-1, 4, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.done, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}

func TestPercentBounds(t *testing.T) {
	for total := 0; total <= 50; total++ {
		for done := 0; done <= total; done++ {
			got := Percent(done, total)
			if got < 0 || got > 100 {
				t.Fatalf("Percent(%d, %d) = %d out of range", done, total, got)
			}
		}
	}
}

func TestProgress(t *testing.T) {
	projects := []model.Project{{ID: "a"}, {ID: "b"}, {ID: "empty"}}
	tasks := []model.Task{
		task("a", model.TaskCompleted),
		task("a", model.TaskCompleted),
		task("a", model.TaskCompleted),
		task("a", model.TaskInProgress),
		task("b", model.TaskCompleted),
		task("b", model.TaskTodo),
		task("b", model.TaskNotStarted),
		// orphans
		task("", model.TaskCompleted),
		task("gone", model.TaskTodo),
	}

	got := Progress(tasks, projects)
	want := map[string]int{"a": 75, "b": 33, "empty": 0}
	for id, w := range want {
		if got[id] != w {
			t.Errorf("progress[%s] = %d, want %d", id, got[id], w)
		}
	}
	if _, ok := got["gone"]; ok {
		t.Error("orphaned project id should not appear")
	}
}

func TestOrphansExcludedFromDenominator(t *testing.T) {
	projects := []model.Project{{ID: "a"}}
	tasks := []model.Task{
		task("a", model.TaskCompleted),
		task("", model.TaskTodo),
		task("other", model.TaskTodo),
	}
	if got := Progress(tasks, projects)["a"]; got != 100 {
		t.Errorf("progress = %d, want 100", got)
	}
	if n := len(Orphans(tasks, projects)); n != 2 {
		t.Errorf("orphans = %d, want 2", n)
	}
}

func TestProjectWithoutIDJoinsNothing(t *testing.T) {
	projects := []model.Project{{ID: ""}, {ID: "a"}}
	tasks := []model.Task{
		{Status: model.TaskCompleted},
		{Status: model.TaskCompleted, Project: &model.ProjectRef{}},
		task("a", model.TaskTodo),
	}

	progress := Progress(tasks, projects)
	if got := progress[""]; got != 0 {
		t.Errorf("progress[\"\"] = %d, want 0", got)
	}
	if got := progress["a"]; got != 0 {
		t.Errorf("progress[a] = %d, want 0", got)
	}
	if n := len(Orphans(tasks, projects)); n != 2 {
		t.Errorf("orphans = %d, want 2", n)
	}

	summaries := Summaries(projects, tasks)
	if summaries[0].Progress != 0 {
		t.Errorf("summary for id-less project = %d, want 0", summaries[0].Progress)
	}
}

func TestRecentSummaries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	projects := []model.Project{
		{ID: "old", CreatedAt: base},
		{ID: "newest", CreatedAt: base.AddDate(0, 0, 3)},
		{ID: "mid", CreatedAt: base.AddDate(0, 0, 1)},
		{ID: "newer", CreatedAt: base.AddDate(0, 0, 2)},
	}
	tasks := []model.Task{task("newest", model.TaskCompleted)}

	got := RecentSummaries(projects, tasks, 3)
	wantIDs := []string{"newest", "newer", "mid"}
	if len(got) != 3 {
		t.Fatalf("got %d summaries", len(got))
	}
	for i, id := range wantIDs {
		if got[i].ProjectID != id {
			t.Errorf("summary %d = %s, want %s", i, got[i].ProjectID, id)
		}
	}
	if got[0].Progress != 100 {
		t.Errorf("newest progress = %d", got[0].Progress)
	}
	if projects[0].ID != "old" {
		t.Error("input slice was reordered")
	}
}
