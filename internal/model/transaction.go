package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes billed amounts from received money.
type TransactionType string

const (
	TransactionInvoice TransactionType = "invoice"
	TransactionPayment TransactionType = "payment"
)

// TransactionStatusPaid is the status the client writes for recorded payments.
const TransactionStatusPaid = "paid"

// Transaction is an invoice or payment record. Status is kept verbatim
// because the API does not agree on its casing.
type Transaction struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id,omitempty"`
	Project     string          `json:"project,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Status      string          `json:"status"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
}
