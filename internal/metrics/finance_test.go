package metrics

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nhle/tracerx/internal/model"
)

func tx(amount int64, status string) model.Transaction {
	return model.Transaction{Amount: decimal.NewFromInt(amount), Status: status}
}

func TestProjectRollup(t *testing.T) {
	txs := []model.Transaction{tx(3000, "paid"), tx(2000, "pending")}
	r := ProjectRollup(decimal.NewFromInt(10000), txs, MatchStatus("paid"))

	if !r.Paid.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("paid = %s, want 3000", r.Paid)
	}
	if !r.Remaining.Equal(decimal.NewFromInt(7000)) {
		t.Errorf("remaining = %s, want 7000", r.Remaining)
	}
	if r.Overpaid {
		t.Error("should not be overpaid")
	}
}

func TestProjectRollupOverpaid(t *testing.T) {
	txs := []model.Transaction{tx(800, "paid"), tx(400, "paid")}
	r := ProjectRollup(decimal.NewFromInt(1000), txs, MatchStatus("paid"))
	if !r.Remaining.Equal(decimal.NewFromInt(-200)) {
		t.Errorf("remaining = %s, want -200", r.Remaining)
	}
	if !r.Overpaid {
		t.Error("overpaid signal not set")
	}
}

func TestMatchersAreExact(t *testing.T) {
	txs := []model.Transaction{tx(100, "paid"), tx(200, "Paid"), tx(400, "Completed"), tx(800, "pending")}

	tests := []struct {
		name  string
		match StatusMatcher
		want  int64
	}{
		{"lowercase paid", MatchStatus("paid"), 100},
		{"display casing", MatchAnyStatus("Paid", "Completed"), 600},
		{"all", MatchAll, 1500},
	}
	for _, tt := range tests {
		if got := PaidTotal(txs, tt.match); !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("%s: PaidTotal = %s, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPaidTotalKeepsCents(t *testing.T) {
	txs := []model.Transaction{
		{Amount: decimal.RequireFromString("0.1"), Status: "paid"},
		{Amount: decimal.RequireFromString("0.2"), Status: "paid"},
	}
	if got := PaidTotal(txs, MatchStatus("paid")); got.String() != "0.3" {
		t.Errorf("PaidTotal = %s, want 0.3", got)
	}
}

func TestDashboardRollupUsesStatsEarnings(t *testing.T) {
	projects := []model.Project{
		{Budget: model.Budget{Total: decimal.NewFromInt(5000)}},
		{Budget: model.Budget{Total: decimal.NewFromInt(3000)}},
		{},
	}
	stats := model.DashboardStats{Finance: model.FinanceStats{TotalEarnings: decimal.NewFromInt(2500)}}

	got := DashboardRollup(projects, stats)
	if !got.TotalBudget.Equal(decimal.NewFromInt(8000)) {
		t.Errorf("budget = %s", got.TotalBudget)
	}
	if !got.TotalEarnings.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("earnings = %s", got.TotalEarnings)
	}
	if !got.Pending.Equal(decimal.NewFromInt(5500)) {
		t.Errorf("pending = %s", got.Pending)
	}
}
