package metrics

import (
	"testing"
	"time"
)

func TestDueLabels(t *testing.T) {
	ref := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		target time.Time
		want   string
	}{
		{time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), "due today"},
		{time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC), "due today"},
		{time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), "tomorrow"},
		{time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "5 days overdue"},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "5 days left"},
	}
	for _, tt := range tests {
		if got := DueLabel(DaysUntil(tt.target, ref)); got != tt.want {
			t.Errorf("DueLabel for %s = %q, want %q", tt.target.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestDeadlineLabel(t *testing.T) {
	tests := map[int]string{
		5:  "5 days remaining",
		1:  "tomorrow",
		0:  "due today",
		-2: "2 days overdue",
	}
	for days, want := range tests {
		if got := DeadlineLabel(days); got != want {
			t.Errorf("DeadlineLabel(%d) = %q, want %q", days, got, want)
		}
	}
}

func TestDaysUntilUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2024, 1, 10, 20, 0, 0, 0, loc)
	// 02:00 UTC on the 11th is still the 10th in UTC-5.
	target := time.Date(2024, 1, 11, 2, 0, 0, 0, time.UTC)
	if got := DaysUntil(target, now); got != 0 {
		t.Errorf("DaysUntil = %d, want 0", got)
	}
}

func TestDaysUntilAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	target := time.Date(2024, 3, 12, 0, 0, 0, 0, loc)
	if got := DaysUntil(target, now); got != 3 {
		t.Errorf("DaysUntil across DST = %d, want 3", got)
	}
}

func TestUrgencyFor(t *testing.T) {
	tests := []struct {
		days int
		want Urgency
	}{
		{-1, UrgencyCritical},
		{3, UrgencyCritical},
		{4, UrgencyWarning},
		{7, UrgencyWarning},
		{8, UrgencyNormal},
	}
	for _, tt := range tests {
		if got := UrgencyFor(tt.days); got != tt.want {
			t.Errorf("UrgencyFor(%d) = %v, want %v", tt.days, got, tt.want)
		}
	}
}
