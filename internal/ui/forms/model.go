package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/theme"
	"github.com/nhle/tracerx/internal/tracker"
	"github.com/nhle/tracerx/internal/ui"
)

// ProjectCreatedMsg is dispatched when the new-project form succeeds.
type ProjectCreatedMsg struct {
	Project model.Project
}

// TaskCreatedMsg is dispatched when the new-task form succeeds.
type TaskCreatedMsg struct {
	Task model.Task
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

type optionsLoadedMsg struct {
	opts *tracker.TaskFormOptions
	err  error
}

type submittedMsg struct {
	project *model.Project
	task    *model.Task
	err     error
}

type formKind int

const (
	kindProject formKind = iota
	kindTask
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	project tracker.ProjectForm
	task    tracker.TaskForm
}

// Model is the create form for projects and tasks.
type Model struct {
	svc        *tracker.Service
	kind       formKind
	form       *huh.Form
	fb         *formBindings
	opts       *tracker.TaskFormOptions
	submitting bool
	loading    bool
	err        error
	width      int
	height     int
}

// New creates a form model.
func New(svc *tracker.Service, width, height int) Model {
	return Model{
		svc:    svc,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartProject initializes the form for a new project.
func (m *Model) StartProject() tea.Cmd {
	m.kind = kindProject
	m.err = nil
	m.submitting = false
	m.loading = false
	m.fb.project = tracker.ProjectForm{Currency: "USD"}
	m.form = m.buildProjectForm()
	return m.form.Init()
}

// StartTask initializes the form for a new task. The project and assignee
// pick lists are fetched first; projectID preselects a project when set.
func (m *Model) StartTask(projectID string) tea.Cmd {
	m.kind = kindTask
	m.err = nil
	m.submitting = false
	m.loading = true
	m.form = nil
	m.fb.task = m.svc.NewTaskForm()
	m.fb.task.ProjectID = projectID
	svc := m.svc
	return func() tea.Msg {
		opts, err := svc.LoadTaskFormOptions(context.Background())
		return optionsLoadedMsg{opts: opts, err: err}
	}
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case optionsLoadedMsg:
		if m.kind != kindTask || !m.loading {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, ui.CheckAuth(msg.err)
		}
		m.opts = msg.opts
		m.form = m.buildTaskForm()
		return m, m.form.Init()

	case submittedMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err
			// Keep the entered values and let the user retry.
			m.form = m.rebuild()
			return m, tea.Batch(m.form.Init(), ui.CheckAuth(msg.err))
		}
		if msg.project != nil {
			p := *msg.project
			return m, func() tea.Msg { return ProjectCreatedMsg{Project: p} }
		}
		t := *msg.task
		return m, func() tea.Msg { return TaskCreatedMsg{Task: t} }

	case tea.KeyMsg:
		if m.form == nil && msg.String() == "esc" {
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	if m.form == nil || m.submitting {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.submitting = true
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	titleText := "New Project"
	if m.kind == kindTask {
		titleText = "New Task"
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(titleText))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	switch {
	case m.loading:
		b.WriteString(theme.NoticeStyle.Render("Loading projects and collaborators..."))
	case m.submitting:
		b.WriteString(theme.NoticeStyle.Render("Saving..."))
	case m.form != nil:
		b.WriteString(m.form.View())
	default:
		b.WriteString(theme.HelpStyle.Render("esc to go back"))
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(b.String())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) rebuild() *huh.Form {
	if m.kind == kindTask {
		return m.buildTaskForm()
	}
	return m.buildProjectForm()
}

func (m *Model) buildProjectForm() *huh.Form {
	p := &m.fb.project
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Website redesign").
				Value(&p.Title).
				Validate(validateRequired("Title")),
			huh.NewInput().
				Title("Client Name").
				Value(&p.ClientName).
				Validate(validateRequired("Client Name")),
			huh.NewInput().
				Title("Budget").
				Placeholder("5000").
				Value(&p.Budget).
				Validate(validateAmount),
			huh.NewSelect[string]().
				Title("Currency").
				Options(huh.NewOptions("USD", "EUR", "GBP", "VND")...).
				Value(&p.Currency),
			huh.NewInput().
				Title("Deadline").
				Placeholder("YYYY-MM-DD").
				Value(&p.Deadline).
				Validate(validateDate),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&p.Description),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m *Model) buildTaskForm() *huh.Form {
	t := &m.fb.task

	var projectOpts []huh.Option[string]
	var userOpts []huh.Option[string]
	if m.opts != nil {
		for _, p := range m.opts.Projects {
			if p.Status != model.ProjectArchived {
				projectOpts = append(projectOpts, huh.NewOption(p.Title, p.ID))
			}
		}
		for _, u := range m.opts.Collaborators {
			userOpts = append(userOpts, huh.NewOption(u.Name, u.ID))
		}
	}
	if t.AssigneeID != "" && !hasOption(userOpts, t.AssigneeID) {
		userOpts = append([]huh.Option[string]{huh.NewOption("Me", t.AssigneeID)}, userOpts...)
	}
	if len(projectOpts) == 0 {
		projectOpts = []huh.Option[string]{huh.NewOption("No projects yet", "")}
	}
	if len(userOpts) == 0 {
		userOpts = []huh.Option[string]{huh.NewOption("Nobody available", "")}
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&t.Title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&t.Description),
			huh.NewSelect[string]().
				Title("Project").
				Options(projectOpts...).
				Value(&t.ProjectID).
				Validate(validateRequired("Project")),
			huh.NewSelect[string]().
				Title("Assignee").
				Options(userOpts...).
				Value(&t.AssigneeID).
				Validate(validateRequired("Assignee")),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD").
				Value(&t.DueDate).
				Validate(validateDate),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("Low", string(model.PriorityLow)),
					huh.NewOption("Medium", string(model.PriorityMedium)),
					huh.NewOption("High", string(model.PriorityHigh)),
					huh.NewOption("Urgent", string(model.PriorityUrgent)),
				).
				Value(&t.Priority),
		),
	).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) handleSubmit() tea.Cmd {
	svc := m.svc
	if m.kind == kindTask {
		f := m.fb.task
		return func() tea.Msg {
			t, err := svc.CreateTask(context.Background(), f)
			return submittedMsg{task: t, err: err}
		}
	}
	f := m.fb.project
	return func() tea.Msg {
		p, err := svc.CreateProject(context.Background(), f)
		return submittedMsg{project: p, err: err}
	}
}

func hasOption(opts []huh.Option[string], value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(tracker.DateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("Budget is required")
	}
	if _, err := tracker.ParseAmount(s); err != nil {
		return fmt.Errorf("budget must be a positive number")
	}
	return nil
}
