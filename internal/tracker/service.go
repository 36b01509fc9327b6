// Package tracker implements the screen-level operations of the client:
// each load joins its API requests all-or-nothing and derives the numbers
// the view shows through the metrics package.
package tracker

import (
	"time"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/metrics"
	"github.com/nhle/tracerx/internal/model"
)

// DateLayout is the wire format for calendar dates sent to the API.
const DateLayout = "2006-01-02"

// UserSource reports the signed-in user. session.Manager satisfies it.
type UserSource interface {
	User() (model.User, bool)
}

// Service runs screen operations against the API.
type Service struct {
	api    *api.Client
	users  UserSource
	logger *logging.Logger
	now    func() time.Time

	// paid selects which transactions count toward a project's paid total.
	paid metrics.StatusMatcher
}

// NewService creates a tracker service.
func NewService(client *api.Client, users UserSource, logger *logging.Logger) *Service {
	return &Service{
		api:    client,
		users:  users,
		logger: logging.OrDiscard(logger).WithComponent(logging.ComponentTracker),
		now:    time.Now,
		paid:   metrics.MatchStatus(model.TransactionStatusPaid),
	}
}

// SetClock replaces the time source used for day counts.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetPaidMatcher replaces the paid-status predicate for project finance.
func (s *Service) SetPaidMatcher(m metrics.StatusMatcher) {
	s.paid = m
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) today() string {
	return s.now().Format(DateLayout)
}
