package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/nhle/tracerx/internal/model"
)

// StatusMatcher decides whether a transaction status counts as paid.
// Comparisons are exact; the API's casing is not normalised.
type StatusMatcher func(status string) bool

// MatchStatus accepts exactly status.
func MatchStatus(status string) StatusMatcher {
	return func(s string) bool { return s == status }
}

// MatchAnyStatus accepts any of statuses.
func MatchAnyStatus(statuses ...string) StatusMatcher {
	set := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return func(s string) bool {
		_, ok := set[s]
		return ok
	}
}

// MatchAll accepts every status.
func MatchAll(string) bool { return true }

// PaidTotal sums the amounts of transactions whose status match accepts.
func PaidTotal(txs []model.Transaction, match StatusMatcher) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if match(tx.Status) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// Rollup is a project's budget against money received.
type Rollup struct {
	Budget    decimal.Decimal
	Paid      decimal.Decimal
	Remaining decimal.Decimal

	// Overpaid is set when payments exceed the budget; Remaining is then
	// negative and is not clamped.
	Overpaid bool
}

// ProjectRollup computes the finance tab figures for one project.
func ProjectRollup(budget decimal.Decimal, txs []model.Transaction, match StatusMatcher) Rollup {
	paid := PaidTotal(txs, match)
	remaining := budget.Sub(paid)
	return Rollup{
		Budget:    budget,
		Paid:      paid,
		Remaining: remaining,
		Overpaid:  remaining.IsNegative(),
	}
}

// DashboardTotals are the dashboard money cards. TotalEarnings comes from
// the server's stats and is independent of any transaction list.
type DashboardTotals struct {
	TotalBudget   decimal.Decimal
	TotalEarnings decimal.Decimal
	Pending       decimal.Decimal
}

// DashboardRollup sums project budgets and subtracts server-reported
// earnings. Currencies are not converted.
func DashboardRollup(projects []model.Project, stats model.DashboardStats) DashboardTotals {
	budget := decimal.Zero
	for _, p := range projects {
		budget = budget.Add(p.Budget.Total)
	}
	earnings := stats.Finance.TotalEarnings
	return DashboardTotals{
		TotalBudget:   budget,
		TotalEarnings: earnings,
		Pending:       budget.Sub(earnings),
	}
}
