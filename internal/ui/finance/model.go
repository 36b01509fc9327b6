package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/fetch"
	"github.com/nhle/tracerx/internal/keys"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/theme"
	"github.com/nhle/tracerx/internal/tracker"
	"github.com/nhle/tracerx/internal/ui"
)

// LoadedMsg is sent when the finance load finishes.
type LoadedMsg struct {
	gen     fetch.Generation
	finance *tracker.Finance
	err     error
}

type changedMsg struct {
	notice string
	err    error
}

// Model is the finance screen: summary figures over a filterable
// transaction list.
type Model struct {
	svc         *tracker.Service
	keys        *keys.KeyMap
	scope       *fetch.Scope
	finance     *tracker.Finance
	visible     []model.Transaction
	filterIdx   int
	selectedIdx int
	search      textinput.Model
	searching   bool
	loading     bool
	err         error
	statusMsg   string
	width       int
	height      int
}

// New creates the finance screen.
func New(svc *tracker.Service, k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search project or description..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		svc:    svc,
		keys:   k,
		scope:  &fetch.Scope{},
		search: si,
		width:  width,
		height: height,
	}
}

// Load fetches transactions and the summary.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	ctx, gen := m.scope.Begin(context.Background())
	svc := m.svc
	return func() tea.Msg {
		f, err := svc.LoadFinance(ctx)
		return LoadedMsg{gen: gen, finance: f, err: err}
	}
}

// Cancel aborts an in-flight load.
func (m *Model) Cancel() {
	m.scope.Cancel()
	m.loading = false
}

// Loading reports whether a load is in flight.
func (m Model) Loading() bool {
	return m.loading
}

// InputFocused reports whether the search box has focus.
func (m Model) InputFocused() bool {
	return m.searching
}

func (m *Model) applyFilter() {
	if m.finance == nil {
		m.visible = nil
		return
	}
	m.visible = tracker.FilterTransactions(m.finance.Transactions, tracker.FinanceQuery{
		Filter: tracker.FinanceFilters[m.filterIdx],
		Search: m.search.Value(),
	})
	m.selectedIdx = ui.Clamp(m.selectedIdx, len(m.visible))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if !m.scope.Current(msg.gen) {
			return m, nil
		}
		m.scope.Done(msg.gen)
		m.loading = false
		m.err = msg.err
		m.finance = msg.finance
		m.applyFilter()
		return m, ui.CheckAuth(msg.err)

	case changedMsg:
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
			return m, ui.CheckAuth(msg.err)
		}
		m.statusMsg = msg.notice
		return m, m.Load()

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Reset()
		m.search.Blur()
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if n := len(m.visible); n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}
	case key.Matches(msg, m.keys.Up):
		if n := len(m.visible); n > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + n) % n
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.CycleFilter):
		m.filterIdx = (m.filterIdx + 1) % len(tracker.FinanceFilters)
		m.applyFilter()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()
	case key.Matches(msg, m.keys.MarkPaid):
		if len(m.visible) == 0 {
			return m, nil
		}
		tx := m.visible[ui.Clamp(m.selectedIdx, len(m.visible))]
		if strings.EqualFold(tx.Status, model.TransactionStatusPaid) {
			m.statusMsg = "Already paid"
			return m, nil
		}
		svc := m.svc
		return m, func() tea.Msg {
			err := svc.MarkTransactionPaid(context.Background(), tx.ID)
			return changedMsg{notice: "Marked as paid", err: err}
		}
	}
	return m, nil
}

// View renders the finance screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Finance"))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(theme.ErrorStyle.Render(ui.ErrorText(m.err)))
		return m.frame(b.String())
	case m.finance == nil:
		b.WriteString(theme.NoticeStyle.Render("Loading finance..."))
		return m.frame(b.String())
	}

	b.WriteString(m.renderSummary())
	b.WriteString("\n\n")
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")
	if m.searching || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(theme.HelpStyle.Render("No transactions."))
	} else {
		b.WriteString(m.renderRows())
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}
	return m.frame(b.String())
}

func (m Model) frame(content string) string {
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(content)
}

func (m Model) renderSummary() string {
	s := m.finance.Summary
	card := func(label, value string, color lipgloss.TerminalColor) string {
		return theme.CardStyle.Render(
			theme.DimmedStyle.Render(label) + "\n" +
				lipgloss.NewStyle().Bold(true).Foreground(color).Render(value),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Invoiced", ui.Money(s.TotalInvoiced, s.Currency), theme.ColorBlue),
		card("Paid", ui.Money(s.TotalPaid, s.Currency), theme.ColorGreen),
		card("Pending", ui.Money(s.TotalPending, s.Currency), theme.ColorYellow),
	)
}

func (m Model) renderFilterBar() string {
	parts := make([]string, 0, len(tracker.FinanceFilters))
	for i, f := range tracker.FinanceFilters {
		if i == m.filterIdx {
			parts = append(parts, theme.SectionStyle.Render("["+f+"]"))
		} else {
			parts = append(parts, theme.DimmedStyle.Render(f))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderRows() string {
	var b strings.Builder
	start, end := ui.Window(m.selectedIdx, len(m.visible), m.height-16)
	for i := start; i < end; i++ {
		tx := m.visible[i]
		line := fmt.Sprintf("%-12s %-20s %-8s %-16s %-9s %s",
			ui.Date(tx.Date),
			ui.Truncate(tx.Project, 20),
			string(tx.Type),
			theme.TransactionStyle(string(tx.Type), tx.Status).Render(ui.Money(tx.Amount, tx.Currency)),
			tx.Status,
			theme.DimmedStyle.Render(ui.Truncate(tx.Description, 30)),
		)
		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = width - 4
}
