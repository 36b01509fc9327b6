package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
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

// SelectedProjectMsg asks the parent to open a project's detail screen.
type SelectedProjectMsg struct {
	Project model.Project
}

// NewProjectMsg asks the parent to open the new-project form.
type NewProjectMsg struct{}

// LoadedMsg is sent when a project list load finishes.
type LoadedMsg struct {
	gen  fetch.Generation
	rows []tracker.ProjectRow
	err  error
}

type changedMsg struct {
	notice string
	err    error
}

type projectMode int

const (
	modeList projectMode = iota
	modeSearch
	modeConfirmDelete
)

type formBindings struct {
	confirm bool
}

// Model is the project list screen.
type Model struct {
	svc         *tracker.Service
	keys        *keys.KeyMap
	scope       *fetch.Scope
	mode        projectMode
	filterIdx   int
	rows        []tracker.ProjectRow
	visible     []tracker.ProjectRow
	marked      map[string]bool
	selectedIdx int
	search      textinput.Model
	confirmForm *huh.Form
	fb          *formBindings
	loading     bool
	err         error
	statusMsg   string
	width       int
	height      int
}

// New creates the project list screen.
func New(svc *tracker.Service, k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search title or client..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		svc:    svc,
		keys:   k,
		scope:  &fetch.Scope{},
		marked: make(map[string]bool),
		search: si,
		fb:     &formBindings{},
		width:  width, height: height,
	}
}

// Filter returns the active status filter key.
func (m Model) Filter() string {
	return tracker.ProjectFilters[m.filterIdx]
}

// Load fetches projects for the active filter.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	ctx, gen := m.scope.Begin(context.Background())
	svc := m.svc
	q := tracker.ProjectQuery{Status: m.Filter()}
	return func() tea.Msg {
		rows, err := svc.LoadProjects(ctx, q)
		return LoadedMsg{gen: gen, rows: rows, err: err}
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

// InputFocused reports whether the screen is capturing text input.
func (m Model) InputFocused() bool {
	return m.mode != modeList
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
		if msg.err != nil {
			m.rows = nil
		} else {
			m.rows = msg.rows
		}
		m.applySearch()
		m.pruneMarks()
		return m, ui.CheckAuth(msg.err)

	case changedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
			// Some deletes may have succeeded; reload either way.
			return m, tea.Batch(m.Load(), ui.CheckAuth(msg.err))
		}
		m.statusMsg = msg.notice
		return m, m.Load()

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmDelete {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeList
		m.search.Reset()
		m.search.Blur()
		m.applySearch()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applySearch()
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if len(m.visible) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.visible)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.visible) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.visible) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedProjectMsg{Project: row.Project} }

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.CycleFilter):
		m.filterIdx = (m.filterIdx + 1) % len(tracker.ProjectFilters)
		m.selectedIdx = 0
		return m, m.Load()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()

	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewProjectMsg{} }

	case key.Matches(msg, m.keys.Mark):
		if row, ok := m.selected(); ok {
			if m.marked[row.ID] {
				delete(m.marked, row.ID)
			} else {
				m.marked[row.ID] = true
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if len(m.deleteTargets()) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()

	case key.Matches(msg, m.keys.Archive):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.toggleArchive(row.Project)

	case key.Matches(msg, m.keys.Status):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.cycleStatus(row.Project)
	}
	return m, nil
}

func (m Model) selected() (tracker.ProjectRow, bool) {
	if len(m.visible) == 0 {
		return tracker.ProjectRow{}, false
	}
	return m.visible[ui.Clamp(m.selectedIdx, len(m.visible))], true
}

// deleteTargets returns the marked ids, or the selected row when nothing
// is marked.
func (m Model) deleteTargets() []string {
	var ids []string
	for _, r := range m.rows {
		if m.marked[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) == 0 {
		if row, ok := m.selected(); ok {
			ids = append(ids, row.ID)
		}
	}
	return ids
}

func (m *Model) applySearch() {
	m.visible = tracker.FilterProjects(m.rows, m.search.Value())
	m.selectedIdx = ui.Clamp(m.selectedIdx, len(m.visible))
}

func (m *Model) pruneMarks() {
	present := make(map[string]bool, len(m.rows))
	for _, r := range m.rows {
		present[r.ID] = true
	}
	for id := range m.marked {
		if !present[id] {
			delete(m.marked, id)
		}
	}
}

func (m Model) buildConfirmForm() *huh.Form {
	ids := m.deleteTargets()
	title := fmt.Sprintf("Delete %d projects?", len(ids))
	if len(ids) == 1 {
		for _, r := range m.rows {
			if r.ID == ids[0] {
				title = fmt.Sprintf("Delete project %q?", r.Title)
			}
		}
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description("This cannot be undone.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			ids := m.deleteTargets()
			m.marked = make(map[string]bool)
			return m, m.deleteProjects(ids)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) deleteProjects(ids []string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		err := svc.DeleteProjects(context.Background(), ids)
		return changedMsg{notice: fmt.Sprintf("Deleted %d project(s)", len(ids)), err: err}
	}
}

func (m Model) toggleArchive(p model.Project) tea.Cmd {
	svc := m.svc
	archive := p.Status != model.ProjectArchived
	return func() tea.Msg {
		err := svc.SetProjectArchived(context.Background(), p.ID, archive)
		notice := "Project restored"
		if archive {
			notice = "Project archived"
		}
		return changedMsg{notice: notice, err: err}
	}
}

func (m Model) cycleStatus(p model.Project) tea.Cmd {
	svc := m.svc
	next := tracker.NextProjectStatus(p.Status)
	return func() tea.Msg {
		err := svc.SetProjectStatus(context.Background(), p.ID, next)
		return changedMsg{notice: fmt.Sprintf("%s → %s", p.Title, next.Label()), err: err}
	}
}

// View renders the project list.
func (m Model) View() string {
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Projects"))
	b.WriteString("\n")
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n")
	if m.mode == modeSearch || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(theme.ErrorStyle.Render(ui.ErrorText(m.err)))
	case m.loading && len(m.rows) == 0:
		b.WriteString(theme.NoticeStyle.Render("Loading projects..."))
	case len(m.visible) == 0:
		b.WriteString(theme.HelpStyle.Render("No projects found. Press 'n' to create one."))
	default:
		b.WriteString(m.renderRows())
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}
	if n := len(m.marked); n > 0 {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(fmt.Sprintf("%d marked", n)))
	}

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderFilterBar() string {
	parts := make([]string, 0, len(tracker.ProjectFilters))
	for i, f := range tracker.ProjectFilters {
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
	listHeight := m.height - 10
	start, end := ui.Window(m.selectedIdx, len(m.visible), listHeight)
	for i := start; i < end; i++ {
		r := m.visible[i]
		mark := "  "
		if m.marked[r.ID] {
			mark = "✓ "
		}
		deadline := theme.DimmedStyle.Render("no deadline")
		if r.HasDeadline {
			deadline = theme.DueStyle(r.DaysLeft).Render(r.DeadlineLabel)
		}
		line := fmt.Sprintf("%s%-26s %-16s %s %3d%%  %-12s %s",
			mark,
			ui.Truncate(r.Title, 26),
			ui.Truncate(r.Client, 16),
			theme.ProgressBar(r.Progress, 10),
			r.Progress,
			theme.ProjectStatusStyle(string(r.Status)).Render(r.Status.Label()),
			deadline,
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
