package store

import (
	"context"

	"github.com/nhle/tracerx/internal/model"
)

// QuotationFilter controls searching and pagination for saved quotations.
type QuotationFilter struct {
	Query  *string // search title, prompt and body
	Limit  int
	Offset int
}

// Store defines the local persistence interface. Everything the API owns
// stays remote; only drafted quotations are kept on disk.
type Store interface {
	SaveQuotation(ctx context.Context, q model.Quotation) (*model.Quotation, error)
	GetQuotations(ctx context.Context, filter QuotationFilter) ([]model.Quotation, error)
	GetQuotationByID(ctx context.Context, id string) (*model.Quotation, error)
	CountQuotations(ctx context.Context) (int, error)
	DeleteQuotation(ctx context.Context, id string) error
	Close() error
}
