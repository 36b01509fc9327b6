package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectCounts are the project counters in DashboardStats.
type ProjectCounts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// TaskCounts are the task counters in DashboardStats.
type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

// FinanceStats carries the server-side earnings figures.
type FinanceStats struct {
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	PendingPayments decimal.Decimal `json:"pending_payments"`
}

// DashboardStats is the aggregate returned by the dashboard stats endpoint.
type DashboardStats struct {
	Projects ProjectCounts `json:"projects"`
	Tasks    TaskCounts    `json:"tasks"`
	Finance  FinanceStats  `json:"finance"`
}

// Deadline is an upcoming due date surfaced on the dashboard.
type Deadline struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ProjectTitle string    `json:"project_title"`
	Deadline     time.Time `json:"deadline"`
}

// MonthlyEarning is one bar of the earnings chart.
type MonthlyEarning struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// FinanceOverview is the dashboard finance payload.
type FinanceOverview struct {
	MonthlyEarnings []MonthlyEarning `json:"monthly_earnings"`
	Transactions    []Transaction    `json:"transactions"`
}

// FinanceSummary is the aggregate returned by the finance summary endpoint.
type FinanceSummary struct {
	TotalInvoiced decimal.Decimal `json:"total_invoiced"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalPending  decimal.Decimal `json:"total_pending"`
	Currency      string          `json:"currency"`
}
