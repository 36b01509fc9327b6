package projectdetail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/fetch"
	"github.com/nhle/tracerx/internal/keys"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/theme"
	"github.com/nhle/tracerx/internal/tracker"
	"github.com/nhle/tracerx/internal/ui"
)

// BackMsg signals the parent to navigate back to the project list.
type BackMsg struct{}

// NewTaskMsg asks the parent to open the task form for this project.
type NewTaskMsg struct {
	ProjectID string
}

// LoadedMsg carries the project and its tasks.
type LoadedMsg struct {
	gen    fetch.Generation
	detail *tracker.ProjectDetail
	err    error
}

// FinanceLoadedMsg carries the finance tab.
type FinanceLoadedMsg struct {
	gen     fetch.Generation
	finance *tracker.ProjectFinance
	err     error
}

type changedMsg struct {
	notice  string
	finance *tracker.ProjectFinance
	err     error
}

type tab int

const (
	tabTasks tab = iota
	tabFinance
)

type detailMode int

const (
	modeView detailMode = iota
	modePayment
	modeDeadline
	modeNote
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	amount   string
	deadline string
	note     string
}

// Model is the project detail screen with a tasks tab and a finance tab.
type Model struct {
	svc          *tracker.Service
	keys         *keys.KeyMap
	scope        *fetch.Scope
	financeScope *fetch.Scope
	project      model.Project
	detail       *tracker.ProjectDetail
	finance      *tracker.ProjectFinance
	tab          tab
	mode         detailMode
	form         *huh.Form
	fb           *formBindings
	selectedIdx  int
	loading      bool
	financeBusy  bool
	err          error
	financeErr   error
	statusMsg    string
	width        int
	height       int
}

// New creates the project detail screen.
func New(svc *tracker.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		svc:          svc,
		keys:         k,
		scope:        &fetch.Scope{},
		financeScope: &fetch.Scope{},
		fb:           &formBindings{},
		width:        width,
		height:       height,
	}
}

// Open switches the screen to project p and starts loading it.
func (m *Model) Open(p model.Project) tea.Cmd {
	m.Cancel()
	m.project = p
	m.detail = nil
	m.finance = nil
	m.err = nil
	m.financeErr = nil
	m.statusMsg = ""
	m.tab = tabTasks
	m.mode = modeView
	m.selectedIdx = 0
	return m.Load()
}

// ProjectID returns the open project's id.
func (m Model) ProjectID() string {
	return m.project.ID
}

// Load refetches the project and its tasks, and the finance tab when it
// is showing.
func (m *Model) Load() tea.Cmd {
	if m.tab == tabFinance {
		return tea.Batch(m.loadDetail(), m.loadFinance())
	}
	return m.loadDetail()
}

func (m *Model) loadDetail() tea.Cmd {
	m.loading = true
	ctx, gen := m.scope.Begin(context.Background())
	svc, id := m.svc, m.project.ID
	return func() tea.Msg {
		d, err := svc.LoadProjectDetail(ctx, id)
		return LoadedMsg{gen: gen, detail: d, err: err}
	}
}

func (m *Model) loadFinance() tea.Cmd {
	m.financeBusy = true
	ctx, gen := m.financeScope.Begin(context.Background())
	svc, p := m.svc, m.project
	return func() tea.Msg {
		f, err := svc.LoadProjectFinance(ctx, p)
		return FinanceLoadedMsg{gen: gen, finance: f, err: err}
	}
}

// Cancel aborts in-flight loads.
func (m *Model) Cancel() {
	m.scope.Cancel()
	m.financeScope.Cancel()
	m.loading = false
	m.financeBusy = false
}

// Loading reports whether a load is in flight.
func (m Model) Loading() bool {
	return m.loading || m.financeBusy
}

// InputFocused reports whether a form is capturing input.
func (m Model) InputFocused() bool {
	return m.mode != modeView
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
		m.detail = msg.detail
		if msg.detail != nil {
			m.project = msg.detail.Project
			m.selectedIdx = ui.Clamp(m.selectedIdx, len(msg.detail.Tasks))
		}
		return m, ui.CheckAuth(msg.err)

	case FinanceLoadedMsg:
		if !m.financeScope.Current(msg.gen) {
			return m, nil
		}
		m.financeScope.Done(msg.gen)
		m.financeBusy = false
		m.financeErr = msg.err
		if msg.err == nil {
			m.finance = msg.finance
		}
		return m, ui.CheckAuth(msg.err)

	case changedMsg:
		m.mode = modeView
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
			return m, ui.CheckAuth(msg.err)
		}
		m.statusMsg = msg.notice
		if msg.finance != nil {
			// The payment call already refetched the finance tab.
			m.financeScope.Cancel()
			m.financeBusy = false
			m.finance = msg.finance
			m.financeErr = nil
			m.tab = tabFinance
			return m, m.loadDetail()
		}
		return m, m.Load()

	case tea.KeyMsg:
		if m.mode == modeView {
			return m.handleKey(msg)
		}
	}

	if m.mode != modeView {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.Cancel()
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.SwitchTab):
		if m.tab == tabTasks {
			m.tab = tabFinance
			if m.finance == nil {
				return m, m.loadFinance()
			}
			return m, nil
		}
		m.tab = tabTasks
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()

	case key.Matches(msg, m.keys.Payment):
		m.fb.amount = ""
		return m.startForm(modePayment)

	case key.Matches(msg, m.keys.Deadline):
		m.fb.deadline = ""
		if m.project.Deadline != nil {
			m.fb.deadline = m.project.Deadline.Format(tracker.DateLayout)
		}
		return m.startForm(modeDeadline)

	case key.Matches(msg, m.keys.Note):
		m.fb.note = ""
		return m.startForm(modeNote)

	case key.Matches(msg, m.keys.New):
		id := m.project.ID
		return m, func() tea.Msg { return NewTaskMsg{ProjectID: id} }
	}

	if m.tab != tabTasks || m.detail == nil {
		return m, nil
	}
	n := len(m.detail.Tasks)
	switch {
	case key.Matches(msg, m.keys.Down):
		if n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}
	case key.Matches(msg, m.keys.Up):
		if n > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + n) % n
		}
	case key.Matches(msg, m.keys.Toggle):
		if n > 0 {
			return m, m.toggleTask(m.detail.Tasks[ui.Clamp(m.selectedIdx, n)].Task)
		}
	}
	return m, nil
}

func (m Model) startForm(mode detailMode) (Model, tea.Cmd) {
	m.mode = mode
	m.statusMsg = ""
	var field huh.Field
	switch mode {
	case modePayment:
		field = huh.NewInput().
			Title("Payment amount").
			Description("Recorded as a paid client payment dated today.").
			Placeholder("1000").
			Value(&m.fb.amount).
			Validate(func(s string) error {
				_, err := tracker.ParseAmount(s)
				return err
			})
	case modeDeadline:
		field = huh.NewInput().
			Title("New deadline").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.deadline).
			Validate(func(s string) error {
				if _, err := time.ParseInLocation(tracker.DateLayout, strings.TrimSpace(s), time.Local); err != nil {
					return fmt.Errorf("invalid date format, use YYYY-MM-DD")
				}
				return nil
			})
	case modeNote:
		field = huh.NewText().
			Title("Important note").
			Value(&m.fb.note).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("note cannot be empty")
				}
				return nil
			})
	}
	m.form = huh.NewForm(huh.NewGroup(field)).
		WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height))
	return m, m.form.Init()
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeView
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateAborted:
		m.mode = modeView
		return m, nil
	case huh.StateCompleted:
		return m, m.submit()
	}
	return m, cmd
}

func (m Model) submit() tea.Cmd {
	svc, p := m.svc, m.project
	switch m.mode {
	case modePayment:
		amount := m.fb.amount
		return func() tea.Msg {
			f, err := svc.AddPayment(context.Background(), p, amount)
			if err != nil {
				return changedMsg{err: err}
			}
			return changedMsg{notice: "Payment recorded", finance: f}
		}
	case modeDeadline:
		date, _ := time.ParseInLocation(tracker.DateLayout, strings.TrimSpace(m.fb.deadline), time.Local)
		return func() tea.Msg {
			err := svc.UpdateDeadline(context.Background(), p.ID, date)
			return changedMsg{notice: "Deadline updated", err: err}
		}
	case modeNote:
		note := m.fb.note
		return func() tea.Msg {
			_, err := svc.AddNote(context.Background(), p.ID, note)
			return changedMsg{notice: "Note added", err: err}
		}
	}
	return nil
}

func (m Model) toggleTask(t model.Task) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		next, err := svc.ToggleTask(context.Background(), t)
		return changedMsg{notice: fmt.Sprintf("%s → %s", t.Title, next.Label()), err: err}
	}
}

// View renders the screen.
func (m Model) View() string {
	if m.mode != modeView && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(
			theme.TitleStyle.Render(m.project.Title) + "\n" + m.form.View(),
		)
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(m.project.Title))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(theme.ErrorStyle.Render(ui.ErrorText(m.err)))
		return m.frame(b.String())
	case m.detail == nil:
		b.WriteString(theme.NoticeStyle.Render("Loading project..."))
		return m.frame(b.String())
	}

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	if m.tab == tabTasks {
		b.WriteString(m.renderTasks())
	} else {
		b.WriteString(m.renderFinance())
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

func (m Model) renderHeader() string {
	d := m.detail
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	deadline := theme.DimmedStyle.Render("no deadline")
	if d.HasDeadline {
		deadline = theme.DueStyle(d.DaysLeft).Render(ui.Date(*d.Deadline) + "  " + d.DeadlineLabel)
	}

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Top,
			theme.ProjectStatusStyle(string(d.Status)).Render(d.Status.Label()),
			"  ",
			metaStyle.Render("Client: "), d.Client,
		),
		metaStyle.Render("Deadline: ") + deadline,
		metaStyle.Render("Budget:   ") + ui.Money(d.Budget.Total, d.Budget.Currency),
		metaStyle.Render("Progress: ") + theme.ProgressBar(d.Progress, 20) + fmt.Sprintf(" %d%%", d.Progress),
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		lines = append(lines, "", desc)
	}
	for _, n := range d.Notes {
		prefix := "• "
		if n.Important {
			prefix = "! "
		}
		lines = append(lines, theme.NoticeStyle.Render(prefix+n.Content))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderTabs() string {
	tasks := fmt.Sprintf("Tasks (%d)", len(m.detail.Tasks))
	if m.tab == tabTasks {
		return theme.SectionStyle.Render("["+tasks+"]") + "  " + theme.DimmedStyle.Render("Finance")
	}
	return theme.DimmedStyle.Render(tasks) + "  " + theme.SectionStyle.Render("[Finance]")
}

func (m Model) renderTasks() string {
	tasks := m.detail.Tasks
	if len(tasks) == 0 {
		return theme.HelpStyle.Render("No tasks yet. Press 'n' to add one.")
	}
	var b strings.Builder
	start, end := ui.Window(m.selectedIdx, len(tasks), m.height-18)
	for i := start; i < end; i++ {
		t := tasks[i]
		check := "[ ]"
		if t.IsCompleted() {
			check = "[x]"
		}
		due := ""
		if t.HasDue {
			due = theme.DueStyle(t.DaysLeft).Render(t.DueLabel)
		}
		line := fmt.Sprintf("%s %-34s %-8s %s",
			check,
			ui.Truncate(t.Title, 34),
			theme.PriorityStyle(string(t.Priority)).Render(string(t.Priority)),
			due,
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

func (m Model) renderFinance() string {
	switch {
	case m.financeErr != nil:
		return theme.ErrorStyle.Render(ui.ErrorText(m.financeErr))
	case m.finance == nil:
		return theme.NoticeStyle.Render("Loading payments...")
	}

	f := m.finance
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	remaining := ui.Money(f.Rollup.Remaining, f.Currency)
	if f.Rollup.Overpaid {
		remaining = theme.ErrorStyle.Render(remaining + " (overpaid)")
	}

	var b strings.Builder
	b.WriteString(metaStyle.Render("Budget:    ") + ui.Money(f.Rollup.Budget, f.Currency) + "\n")
	b.WriteString(metaStyle.Render("Paid:      ") + ui.Money(f.Rollup.Paid, f.Currency) + "\n")
	b.WriteString(metaStyle.Render("Remaining: ") + remaining + "\n\n")

	if len(f.Transactions) == 0 {
		b.WriteString(theme.HelpStyle.Render("No payments yet. Press 'p' to record one."))
		return b.String()
	}
	for _, tx := range f.Transactions {
		b.WriteString(fmt.Sprintf("%-12s %-8s %s  %s\n",
			ui.Date(tx.Date),
			string(tx.Type),
			theme.TransactionStyle(string(tx.Type), tx.Status).Render(ui.Money(tx.Amount, tx.Currency)),
			theme.DimmedStyle.Render(tx.Status+"  "+tx.Description),
		))
	}
	return b.String()
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
