package api

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/nhle/tracerx/internal/model"
)

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	ProjectID string
	Type      string
	Status    string
	Search    string
}

func (f TransactionFilter) query() url.Values {
	q := url.Values{}
	if f.ProjectID != "" {
		q.Set("project", f.ProjectID)
	}
	if f.Type != "" {
		q.Set("type", f.Type)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// TransactionInput is the payload for CreateTransaction.
type TransactionInput struct {
	ProjectID   string      `json:"project,omitempty"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Status      string      `json:"status"`
	Currency    string      `json:"currency,omitempty"`
	Description string      `json:"description,omitempty"`
	Date        string      `json:"date"`
}

// ListTransactions fetches invoices and payments matching f.
func (c *Client) ListTransactions(ctx context.Context, f TransactionFilter) ([]model.Transaction, error) {
	const endpoint = "/finance"
	raw, err := c.Get(ctx, withQuery(endpoint, f.query()))
	if err != nil {
		return nil, err
	}
	items, err := decodeList[wireTransaction](endpoint, "transactions", raw)
	if err != nil {
		return nil, err
	}
	return mapList(items, wireTransaction.toModel), nil
}

// CreateTransaction records an invoice or payment.
func (c *Client) CreateTransaction(ctx context.Context, in TransactionInput) (*model.Transaction, error) {
	const endpoint = "/finance"
	raw, err := c.Post(ctx, endpoint, in)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	w, err := decodeObject[wireTransaction](endpoint, "transaction", raw)
	if err != nil {
		return nil, err
	}
	tx := w.toModel()
	return &tx, nil
}

// UpdateTransactionStatus changes only the status of a transaction.
func (c *Client) UpdateTransactionStatus(ctx context.Context, id, status string) error {
	_, err := c.Patch(ctx, "/finance/"+escape(id)+"/status", map[string]string{"status": status})
	return err
}

// FinanceSummary fetches the totals for all projects, or for one when
// projectID is set.
func (c *Client) FinanceSummary(ctx context.Context, projectID string) (*model.FinanceSummary, error) {
	const endpoint = "/finance/summary"
	q := url.Values{}
	if projectID != "" {
		q.Set("project", projectID)
	}
	raw, err := c.Get(ctx, withQuery(endpoint, q))
	if err != nil {
		return nil, err
	}
	w, err := decodeObject[wireFinanceSummary](endpoint, "summary", raw)
	if err != nil {
		return nil, err
	}
	s := w.toModel()
	return &s, nil
}
