package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/metrics"
	"github.com/nhle/tracerx/internal/model"
)

// ProjectDetail is the project detail view's tasks tab.
type ProjectDetail struct {
	ProjectRow
	Tasks []TaskRow
}

// LoadProjectDetail fetches the project and then its tasks.
func (s *Service) LoadProjectDetail(ctx context.Context, id string) (*ProjectDetail, error) {
	project, err := s.api.GetProject(ctx, id)
	if err != nil {
		s.logger.Warn("project load failed", "project", id, logging.FieldError, err)
		return nil, err
	}
	tasks, err := s.api.ListTasks(ctx, api.TaskFilter{ProjectID: id})
	if err != nil {
		s.logger.Warn("project tasks load failed", "project", id, logging.FieldError, err)
		return nil, err
	}

	// The task endpoint may ignore the project filter, so the join still
	// drops tasks that belong elsewhere.
	progress := metrics.Progress(tasks, []model.Project{*project})
	now := s.now()
	detail := &ProjectDetail{ProjectRow: newProjectRow(*project, progress[project.ID], now)}
	for _, t := range tasks {
		if t.ProjectID() == project.ID {
			detail.Tasks = append(detail.Tasks, newTaskRow(t, now))
		}
	}
	return detail, nil
}

// UpdateDeadline moves a project's deadline to the given calendar date.
func (s *Service) UpdateDeadline(ctx context.Context, projectID string, date time.Time) error {
	v := date.Format(DateLayout)
	return s.api.UpdateProject(ctx, projectID, api.ProjectUpdate{Deadline: &v})
}

// AddNote attaches an important note to a project.
func (s *Service) AddNote(ctx context.Context, projectID, content string) (*model.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.NewValidationError("note", "Note cannot be empty")
	}
	return s.api.AddProjectNote(ctx, projectID, api.NoteInput{Content: content, IsImportant: true})
}

// ProjectFinance is the project detail view's finance tab.
type ProjectFinance struct {
	Transactions []model.Transaction
	Rollup       metrics.Rollup
	Currency     string
}

// LoadProjectFinance fetches the project's transactions and computes the
// budget rollup.
func (s *Service) LoadProjectFinance(ctx context.Context, project model.Project) (*ProjectFinance, error) {
	txs, err := s.api.ListTransactions(ctx, api.TransactionFilter{ProjectID: project.ID})
	if err != nil {
		s.logger.Warn("payments load failed", "project", project.ID, logging.FieldError, err)
		return nil, err
	}
	return &ProjectFinance{
		Transactions: txs,
		Rollup:       metrics.ProjectRollup(project.Budget.Total, txs, s.paid),
		Currency:     project.Budget.Currency,
	}, nil
}

// ParseAmount validates a user-entered money amount. It must be a
// positive number.
func ParseAmount(text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, model.NewValidationError("amount", "Invalid amount")
	}
	return d, nil
}

// AddPayment records a paid client payment dated today and then refetches
// the finance tab. The refetch starts only after the create succeeds.
func (s *Service) AddPayment(ctx context.Context, project model.Project, amountText string) (*ProjectFinance, error) {
	amount, err := ParseAmount(amountText)
	if err != nil {
		return nil, err
	}

	_, err = s.api.CreateTransaction(ctx, api.TransactionInput{
		ProjectID:   project.ID,
		Amount:      jsonNumber(amount),
		Type:        string(model.TransactionPayment),
		Status:      model.TransactionStatusPaid,
		Currency:    project.Budget.Currency,
		Description: "Client payment",
		Date:        s.today(),
	})
	if err != nil {
		s.logger.Warn("payment create failed", "project", project.ID, logging.FieldError, err)
		return nil, err
	}
	s.logger.Info("payment recorded", "project", project.ID, "amount", amount.String())

	return s.LoadProjectFinance(ctx, project)
}
