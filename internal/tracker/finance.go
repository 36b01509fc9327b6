package tracker

import (
	"context"
	"strings"

	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/fetch"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/model"
)

// FinanceFilters are the filter keys offered by the finance view.
var FinanceFilters = []string{"all", "invoices", "payments", "pending"}

// FinanceQuery filters the finance view client-side.
type FinanceQuery struct {
	Filter string
	Search string
}

// Finance is the finance view: every transaction plus the server summary.
type Finance struct {
	Transactions []model.Transaction
	Summary      model.FinanceSummary
}

// LoadFinance fetches transactions and the finance summary concurrently.
func (s *Service) LoadFinance(ctx context.Context) (*Finance, error) {
	var (
		txs     []model.Transaction
		summary *model.FinanceSummary
	)
	err := fetch.All(ctx,
		func(ctx context.Context) (err error) {
			txs, err = s.api.ListTransactions(ctx, api.TransactionFilter{})
			return err
		},
		func(ctx context.Context) (err error) {
			summary, err = s.api.FinanceSummary(ctx, "")
			return err
		},
	)
	if err != nil {
		s.logger.Warn("finance load failed", logging.FieldError, err)
		return nil, err
	}
	return &Finance{Transactions: txs, Summary: *summary}, nil
}

// FilterTransactions applies a finance filter key and a search on the
// project title and description.
func FilterTransactions(txs []model.Transaction, q FinanceQuery) []model.Transaction {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Project), search) &&
			!strings.Contains(strings.ToLower(tx.Description), search) {
			continue
		}
		switch q.Filter {
		case "invoices":
			if tx.Type != model.TransactionInvoice {
				continue
			}
		case "payments":
			if tx.Type != model.TransactionPayment {
				continue
			}
		case "pending":
			if !strings.EqualFold(tx.Status, "pending") {
				continue
			}
		}
		out = append(out, tx)
	}
	return out
}

// MarkTransactionPaid sets a transaction's status to paid.
func (s *Service) MarkTransactionPaid(ctx context.Context, id string) error {
	return s.api.UpdateTransactionStatus(ctx, id, model.TransactionStatusPaid)
}
