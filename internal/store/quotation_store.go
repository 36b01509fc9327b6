package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/tracerx/internal/model"
)

// ErrNotFound is returned when a quotation does not exist.
var ErrNotFound = errors.New("not found")

// SaveQuotation inserts a quotation, assigning an ID, a creation time and a
// title drawn from the body when they are unset.
func (s *SQLiteStore) SaveQuotation(ctx context.Context, q model.Quotation) (*model.Quotation, error) {
	if strings.TrimSpace(q.Body) == "" {
		return nil, fmt.Errorf("quotation body must not be empty")
	}
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	if strings.TrimSpace(q.Title) == "" {
		q.Title = model.QuotationTitle(q.Body)
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO quotations (id, title, prompt, body, created_at)
		VALUES (:id, :title, :prompt, :body, :created_at)`, q)
	if err != nil {
		return nil, fmt.Errorf("saving quotation: %w", err)
	}
	return &q, nil
}

// GetQuotations returns saved quotations, newest first.
func (s *SQLiteStore) GetQuotations(ctx context.Context, filter QuotationFilter) ([]model.Quotation, error) {
	query := "SELECT id, title, prompt, body, created_at FROM quotations"
	var args []interface{}

	if filter.Query != nil && *filter.Query != "" {
		query += " WHERE (title LIKE ? OR prompt LIKE ? OR body LIKE ?)"
		q := "%" + *filter.Query + "%"
		args = append(args, q, q, q)
	}
	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	var out []model.Quotation
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("querying quotations: %w", err)
	}
	return out, nil
}

// GetQuotationByID retrieves a single quotation.
func (s *SQLiteStore) GetQuotationByID(ctx context.Context, id string) (*model.Quotation, error) {
	var q model.Quotation
	err := s.db.GetContext(ctx, &q,
		"SELECT id, title, prompt, body, created_at FROM quotations WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quotation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting quotation %s: %w", id, err)
	}
	return &q, nil
}

// CountQuotations returns how many quotations are saved.
func (s *SQLiteStore) CountQuotations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM quotations"); err != nil {
		return 0, fmt.Errorf("counting quotations: %w", err)
	}
	return n, nil
}

// DeleteQuotation removes a quotation by ID.
func (s *SQLiteStore) DeleteQuotation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM quotations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting quotation %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("quotation %s: %w", id, ErrNotFound)
	}
	return nil
}
