package tracker

import (
	"context"

	"github.com/nhle/tracerx/internal/model"
)

// LoadActivities fetches the full activity feed.
func (s *Service) LoadActivities(ctx context.Context) ([]model.Activity, error) {
	return s.api.ListActivities(ctx)
}

// MarkActivityRead marks a single entry as read.
func (s *Service) MarkActivityRead(ctx context.Context, id string) error {
	return s.api.MarkActivityRead(ctx, id)
}

// MarkAllActivitiesRead marks the whole feed as read.
func (s *Service) MarkAllActivitiesRead(ctx context.Context) error {
	return s.api.MarkAllActivitiesRead(ctx)
}

// UnreadCount counts unread entries.
func UnreadCount(activities []model.Activity) int {
	n := 0
	for _, a := range activities {
		if !a.Read {
			n++
		}
	}
	return n
}
