package login

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/auth"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/theme"
	"github.com/nhle/tracerx/internal/ui"
)

// LoggedInMsg is sent once a login or registration succeeded and the
// session is stored.
type LoggedInMsg struct {
	User model.User
}

// authResultMsg carries the outcome of a login or register request.
type authResultMsg struct {
	user *model.User
	err  error
}

type mode int

const (
	modeLogin mode = iota
	modeRegister
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name     string
	email    string
	password string
	register bool
}

// Model is the sign-in screen.
type Model struct {
	auth       *auth.Service
	form       *huh.Form
	fb         *formBindings
	mode       mode
	submitting bool
	errMsg     string
	width      int
	height     int
}

// New creates the sign-in screen.
func New(a *auth.Service, width, height int) Model {
	return Model{
		auth:   a,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Init builds the form for the current mode.
func (m *Model) Init() tea.Cmd {
	m.form = m.buildForm()
	return m.form.Init()
}

// Reset clears the entered credentials and any error, e.g. after logout.
func (m *Model) Reset() tea.Cmd {
	m.fb.name = ""
	m.fb.password = ""
	m.errMsg = ""
	m.submitting = false
	m.mode = modeLogin
	return m.Init()
}

// SetError shows msg above the form, e.g. why the session ended.
func (m *Model) SetError(msg string) {
	m.errMsg = msg
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.fb.password = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.errMsg = ""
		m.fb.password = ""
		user := *msg.user
		return m, func() tea.Msg { return LoggedInMsg{User: user} }

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		if msg.String() == "ctrl+r" {
			if m.mode == modeLogin {
				m.mode = modeRegister
			} else {
				m.mode = modeLogin
			}
			m.errMsg = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	}

	if m.form == nil || m.submitting {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateCompleted:
		m.submitting = true
		return m, m.submit()
	case huh.StateAborted:
		m.form = m.buildForm()
		return m, m.form.Init()
	}
	return m, cmd
}

func (m Model) buildForm() *huh.Form {
	var fields []huh.Field
	if m.mode == modeRegister {
		fields = append(fields,
			huh.NewInput().
				Title("Name").
				Placeholder("Your full name").
				Value(&m.fb.name),
		)
	}
	fields = append(fields,
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&m.fb.email),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password),
	)
	return huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(false).
		WithWidth(ui.FormWidth(m.width)).
		WithHeight(ui.FormHeight(m.height))
}

// submit validates locally before any request, then calls the auth API.
func (m Model) submit() tea.Cmd {
	a := m.auth
	name := strings.TrimSpace(m.fb.name)
	email := strings.TrimSpace(m.fb.email)
	password := m.fb.password
	register := m.mode == modeRegister
	return func() tea.Msg {
		var (
			user *model.User
			err  error
		)
		if register {
			if err = auth.ValidateRegistration(name, email, password); err == nil {
				user, err = a.Register(context.Background(), name, email, password)
			}
		} else {
			if err = auth.ValidateLogin(email, password); err == nil {
				user, err = a.Login(context.Background(), email, password)
			}
		}
		return authResultMsg{user: user, err: err}
	}
}

// View renders the sign-in screen.
func (m Model) View() string {
	var b strings.Builder

	title := "Sign in to TracerX"
	if m.mode == modeRegister {
		title = "Create a TracerX account"
	}
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n")

	if m.submitting {
		b.WriteString(theme.NoticeStyle.Render("Contacting server..."))
	} else if m.form != nil {
		b.WriteString(m.form.View())
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
	}

	b.WriteString("\n\n")
	switchHint := "ctrl+r create an account"
	if m.mode == modeRegister {
		switchHint = "ctrl+r back to sign in"
	}
	b.WriteString(theme.HelpStyle.Render("enter next | " + switchHint + " | ctrl+c quit"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(ui.FormWidth(width)).WithHeight(ui.FormHeight(height))
	}
}
