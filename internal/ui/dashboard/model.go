package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/nhle/tracerx/internal/fetch"
	"github.com/nhle/tracerx/internal/keys"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/theme"
	"github.com/nhle/tracerx/internal/tracker"
	"github.com/nhle/tracerx/internal/ui"
)

// LoadedMsg is sent when a dashboard load finishes. Results from a
// superseded load are dropped.
type LoadedMsg struct {
	gen       fetch.Generation
	dashboard *tracker.Dashboard
	err       error
}

type markedReadMsg struct{ err error }

// Model is the dashboard screen.
type Model struct {
	svc       *tracker.Service
	keys      *keys.KeyMap
	scope     *fetch.Scope
	dashboard *tracker.Dashboard
	err       error
	loading   bool
	viewport  viewport.Model
	userName  string
	width     int
	height    int
}

// New creates the dashboard screen.
func New(svc *tracker.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:      svc,
		keys:     k,
		scope:    &fetch.Scope{},
		viewport: viewport.New(width, height),
		width:    width,
		height:   height,
	}
}

// SetUser sets the name used in the greeting.
func (m *Model) SetUser(name string) {
	m.userName = name
}

// Load starts a fresh load, superseding any in flight.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	ctx, gen := m.scope.Begin(context.Background())
	svc := m.svc
	return func() tea.Msg {
		d, err := svc.LoadDashboard(ctx)
		return LoadedMsg{gen: gen, dashboard: d, err: err}
	}
}

// Cancel aborts an in-flight load, e.g. when the screen is left.
func (m *Model) Cancel() {
	m.scope.Cancel()
	m.loading = false
}

// Loading reports whether a load is in flight.
func (m Model) Loading() bool {
	return m.loading
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
		// A failed load shows the error and no partial figures.
		m.err = msg.err
		m.dashboard = msg.dashboard
		m.refreshViewport()
		return m, ui.CheckAuth(msg.err)

	case markedReadMsg:
		if msg.err != nil {
			return m, tea.Batch(
				func() tea.Msg { return ui.StatusMsg("Error: " + msg.err.Error()) },
				ui.CheckAuth(msg.err),
			)
		}
		return m, m.Load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load()
		case key.Matches(msg, m.keys.MarkRead):
			if m.dashboard == nil || tracker.UnreadCount(m.dashboard.Activities) == 0 {
				return m, nil
			}
			svc := m.svc
			return m, func() tea.Msg {
				return markedReadMsg{err: svc.MarkAllActivitiesRead(context.Background())}
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	return lipgloss.NewStyle().Padding(0, 1).Render(m.viewport.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 2
	m.viewport.Height = height
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.render())
}

func (m Model) render() string {
	var b strings.Builder

	greeting := "Dashboard"
	if m.userName != "" {
		greeting = fmt.Sprintf("Welcome back, %s", m.userName)
	}
	b.WriteString(theme.TitleStyle.Render(greeting))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(theme.ErrorStyle.Render(ui.ErrorText(m.err)))
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render("Press r to retry."))
		return b.String()
	case m.dashboard == nil:
		b.WriteString(theme.NoticeStyle.Render("Loading dashboard..."))
		return b.String()
	}

	d := m.dashboard
	b.WriteString(m.renderCards(d))
	b.WriteString("\n\n")
	b.WriteString(renderRecentProjects(d.RecentProjects, m.width))
	b.WriteString("\n")
	b.WriteString(renderDeadlines(d.Deadlines))
	b.WriteString("\n")
	b.WriteString(renderActivities(d.Activities))
	b.WriteString("\n")
	b.WriteString(renderEarnings(d.MonthlyEarnings, m.width))

	if d.OrphanedTasks > 0 {
		b.WriteString("\n")
		b.WriteString(theme.DimmedStyle.Render(
			fmt.Sprintf("%d task(s) belong to no known project and are not counted.", d.OrphanedTasks)))
	}
	b.WriteString("\n")
	b.WriteString(theme.DimmedStyle.Render("Updated " + d.LoadedAt.Format("15:04:05")))
	return b.String()
}

func (m Model) renderCards(d *tracker.Dashboard) string {
	card := func(title string, lines ...string) string {
		body := theme.SectionStyle.Render(title) + "\n" + strings.Join(lines, "\n")
		return theme.CardStyle.Render(body)
	}

	s := d.Stats
	projects := card("Projects",
		fmt.Sprintf("%d total", s.Projects.Total),
		fmt.Sprintf("%d active", s.Projects.Active),
		fmt.Sprintf("%d completed", s.Projects.Completed),
	)
	overdue := fmt.Sprintf("%d overdue", s.Tasks.Overdue)
	if s.Tasks.Overdue > 0 {
		overdue = theme.ErrorStyle.Render(overdue)
	}
	tasks := card("Tasks",
		fmt.Sprintf("%d total", s.Tasks.Total),
		fmt.Sprintf("%d completed", s.Tasks.Completed),
		overdue,
	)
	finance := card("Budget",
		"Total    "+ui.Money(d.Totals.TotalBudget, ""),
		"Earned   "+lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(ui.Money(d.Totals.TotalEarnings, "")),
		"Pending  "+lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(ui.Money(d.Totals.Pending, "")),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, projects, " ", tasks, " ", finance)
}

func renderRecentProjects(summaries []model.ProjectSummary, width int) string {
	var b strings.Builder
	b.WriteString(theme.SectionStyle.Render("Recent projects"))
	b.WriteString("\n")
	if len(summaries) == 0 {
		b.WriteString(theme.HelpStyle.Render("No projects yet."))
		b.WriteString("\n")
		return b.String()
	}
	barWidth := 20
	if width < 70 {
		barWidth = 10
	}
	for _, s := range summaries {
		status := theme.ProjectStatusStyle(string(s.Status)).Render(s.Status.Label())
		fmt.Fprintf(&b, "  %-28s %-18s %s %3d%%  %s\n",
			ui.Truncate(s.Title, 28), ui.Truncate(s.Client, 18),
			theme.ProgressBar(s.Progress, barWidth), s.Progress, status)
	}
	return b.String()
}

func renderDeadlines(items []tracker.DeadlineItem) string {
	var b strings.Builder
	b.WriteString(theme.SectionStyle.Render("Upcoming deadlines"))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(theme.HelpStyle.Render("Nothing due."))
		b.WriteString("\n")
		return b.String()
	}
	for _, dl := range items {
		label := theme.UrgencyStyle(dl.Urgency.String()).Render(dl.Label)
		fmt.Fprintf(&b, "  %-28s %-20s %s\n",
			ui.Truncate(dl.Title, 28), ui.Truncate(dl.ProjectTitle, 20), label)
	}
	return b.String()
}

func renderActivities(activities []model.Activity) string {
	var b strings.Builder
	header := "Recent activity"
	if n := tracker.UnreadCount(activities); n > 0 {
		header = fmt.Sprintf("Recent activity (%d unread)", n)
	}
	b.WriteString(theme.SectionStyle.Render(header))
	b.WriteString("\n")
	if len(activities) == 0 {
		b.WriteString(theme.HelpStyle.Render("No activity yet."))
		b.WriteString("\n")
		return b.String()
	}
	for _, a := range activities {
		marker := " "
		if !a.Read {
			marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
		}
		project := ""
		if a.Project != nil && a.Project.Title != "" {
			project = theme.DimmedStyle.Render(" · " + a.Project.Title)
		}
		when := ""
		if !a.CreatedAt.IsZero() {
			when = theme.DimmedStyle.Render("  " + a.CreatedAt.Format("Jan 2 15:04"))
		}
		fmt.Fprintf(&b, " %s %s %s%s%s\n", marker, theme.ActivityIcon(string(a.Type)), a.Title, project, when)
	}
	return b.String()
}

func renderEarnings(months []model.MonthlyEarning, width int) string {
	var b strings.Builder
	b.WriteString(theme.SectionStyle.Render("Monthly earnings"))
	b.WriteString("\n")
	if len(months) == 0 {
		b.WriteString(theme.HelpStyle.Render("No earnings recorded."))
		b.WriteString("\n")
		return b.String()
	}

	peak := decimal.Zero
	for _, mo := range months {
		if mo.Amount.GreaterThan(peak) {
			peak = mo.Amount
		}
	}
	barWidth := width - 40
	if barWidth > 40 {
		barWidth = 40
	}
	if barWidth < 5 {
		barWidth = 5
	}
	for _, mo := range months {
		pct := 0
		if peak.IsPositive() {
			pct = int(mo.Amount.Mul(decimal.NewFromInt(100)).Div(peak).IntPart())
		}
		fmt.Fprintf(&b, "  %-8s %s %s\n", ui.Truncate(mo.Month, 8),
			theme.ProgressBar(pct, barWidth), ui.Money(mo.Amount, ""))
	}
	return b.String()
}
