package metrics

import (
	"fmt"
	"time"
)

// DaysUntil returns the whole number of calendar days from now to target.
// Both instants are reduced to their calendar date in now's location, so
// the result ignores time of day and DST shifts. Negative means past.
func DaysUntil(target, now time.Time) int {
	t := target.In(now.Location())
	a := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b) / (24 * time.Hour))
}

// DueLabel renders a task due-date distance.
func DueLabel(days int) string {
	switch {
	case days > 1:
		return fmt.Sprintf("%d days left", days)
	case days == 1:
		return "tomorrow"
	case days == 0:
		return "due today"
	default:
		return fmt.Sprintf("%d days overdue", -days)
	}
}

// DeadlineLabel renders a project deadline distance. It shares DueLabel's
// wording for today, tomorrow and overdue.
func DeadlineLabel(days int) string {
	if days > 1 {
		return fmt.Sprintf("%d days remaining", days)
	}
	return DueLabel(days)
}

// Urgency classifies how close a deadline is.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyWarning
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyCritical:
		return "critical"
	case UrgencyWarning:
		return "warning"
	default:
		return "normal"
	}
}

// UrgencyFor maps a day count onto the dashboard badge level: three days
// or fewer is critical, a week or fewer is a warning.
func UrgencyFor(days int) Urgency {
	switch {
	case days <= 3:
		return UrgencyCritical
	case days <= 7:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}
