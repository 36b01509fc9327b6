package tasks

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

// NewTaskMsg asks the parent to open the new-task form.
type NewTaskMsg struct{}

// SelectedProjectMsg asks the parent to open the task's project.
type SelectedProjectMsg struct {
	ProjectID string
	Title     string
}

// LoadedMsg is sent when the task list load finishes.
type LoadedMsg struct {
	gen  fetch.Generation
	rows []tracker.TaskRow
	err  error
}

type changedMsg struct {
	notice string
	err    error
}

type taskMode int

const (
	modeList taskMode = iota
	modeSearch
	modeConfirmDelete
	modeComment
)

type formBindings struct {
	confirm bool
	comment string
}

// Model is the task list screen.
type Model struct {
	svc         *tracker.Service
	keys        *keys.KeyMap
	scope       *fetch.Scope
	mode        taskMode
	filterIdx   int
	rows        []tracker.TaskRow
	visible     []tracker.TaskRow
	selectedIdx int
	search      textinput.Model
	form        *huh.Form
	fb          *formBindings
	target      model.Task
	loading     bool
	err         error
	statusMsg   string
	width       int
	height      int
}

// New creates the task list screen.
func New(svc *tracker.Service, k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search task or project..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		svc:    svc,
		keys:   k,
		scope:  &fetch.Scope{},
		search: si,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Load fetches every task. Filtering happens client-side.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	ctx, gen := m.scope.Begin(context.Background())
	svc := m.svc
	return func() tea.Msg {
		rows, err := svc.LoadTasks(ctx)
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

func (m Model) query() tracker.TaskQuery {
	return tracker.TaskQuery{Status: tracker.TaskFilters[m.filterIdx], Search: m.search.Value()}
}

func (m *Model) applyFilter() {
	m.visible = tracker.FilterTasks(m.rows, m.query())
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
		if msg.err != nil {
			m.rows = nil
		} else {
			m.rows = msg.rows
		}
		m.applyFilter()
		return m, ui.CheckAuth(msg.err)

	case changedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = "Error: " + msg.err.Error()
			return m, ui.CheckAuth(msg.err)
		}
		m.statusMsg = msg.notice
		return m, m.Load()

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.handleSearchKey(msg)
		case modeConfirmDelete, modeComment:
			return m.updateForm(msg)
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmDelete || m.mode == modeComment {
		return m.updateForm(msg)
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
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
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
		m.mode = modeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.CycleFilter):
		m.filterIdx = (m.filterIdx + 1) % len(tracker.TaskFilters)
		m.applyFilter()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()
	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewTaskMsg{} }
	case key.Matches(msg, m.keys.Select):
		if t, ok := m.selected(); ok && t.ProjectID() != "" {
			id, title := t.ProjectID(), t.ProjectTitle()
			return m, func() tea.Msg { return SelectedProjectMsg{ProjectID: id, Title: title} }
		}
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			return m, m.toggle(t.Task)
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			m.target = t.Task
			m.fb.confirm = false
			m.mode = modeConfirmDelete
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	case key.Matches(msg, m.keys.Comment):
		if t, ok := m.selected(); ok {
			m.target = t.Task
			m.fb.comment = ""
			m.mode = modeComment
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	}
	return m, nil
}

func (m Model) selected() (tracker.TaskRow, bool) {
	if len(m.visible) == 0 {
		return tracker.TaskRow{}, false
	}
	return m.visible[ui.Clamp(m.selectedIdx, len(m.visible))], true
}

func (m Model) buildForm() *huh.Form {
	var field huh.Field
	if m.mode == modeComment {
		field = huh.NewText().
			Title(fmt.Sprintf("Comment on %q", m.target.Title)).
			Value(&m.fb.comment).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("comment cannot be empty")
				}
				return nil
			})
	} else {
		field = huh.NewConfirm().
			Title(fmt.Sprintf("Delete task %q?", m.target.Title)).
			Description("This cannot be undone.").
			Affirmative("Yes, delete").
			Negative("Cancel").
			Value(&m.fb.confirm)
	}
	return huh.NewForm(huh.NewGroup(field)).
		WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height))
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateAborted:
		m.mode = modeList
		return m, nil
	case huh.StateCompleted:
		svc, t := m.svc, m.target
		if m.mode == modeComment {
			text := m.fb.comment
			return m, func() tea.Msg {
				err := svc.CommentOnTask(context.Background(), t.ID, text)
				return changedMsg{notice: "Comment added", err: err}
			}
		}
		if !m.fb.confirm {
			m.mode = modeList
			return m, nil
		}
		return m, func() tea.Msg {
			err := svc.DeleteTask(context.Background(), t.ID)
			return changedMsg{notice: "Task deleted", err: err}
		}
	}
	return m, cmd
}

func (m Model) toggle(t model.Task) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		next, err := svc.ToggleTask(context.Background(), t)
		return changedMsg{notice: fmt.Sprintf("%s → %s", t.Title, next.Label()), err: err}
	}
}

// View renders the task list.
func (m Model) View() string {
	if (m.mode == modeConfirmDelete || m.mode == modeComment) && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Tasks"))
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
		b.WriteString(theme.NoticeStyle.Render("Loading tasks..."))
	case len(m.visible) == 0:
		b.WriteString(theme.HelpStyle.Render("No tasks found. Press 'n' to create one."))
	default:
		b.WriteString(m.renderRows())
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderFilterBar() string {
	parts := make([]string, 0, len(tracker.TaskFilters))
	for i, f := range tracker.TaskFilters {
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
	start, end := ui.Window(m.selectedIdx, len(m.visible), m.height-10)
	for i := start; i < end; i++ {
		r := m.visible[i]
		check := "[ ]"
		if r.IsCompleted() {
			check = "[x]"
		}
		project := r.ProjectTitle()
		if project == "" {
			project = "—"
		}
		due := theme.DimmedStyle.Render("no due date")
		if r.HasDue {
			due = theme.DueStyle(r.DaysLeft).Render(r.DueLabel)
		}
		line := fmt.Sprintf("%s %-30s %-18s %-8s %-12s %s",
			check,
			ui.Truncate(r.Title, 30),
			ui.Truncate(project, 18),
			theme.PriorityStyle(string(r.Priority)).Render(string(r.Priority)),
			theme.TaskStatusStyle(string(r.Status)).Render(r.Status.Label()),
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

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = width - 4
}
