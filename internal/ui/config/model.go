package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/keys"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/session"
	"github.com/nhle/tracerx/internal/theme"
)

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeSummary ConfigMode = iota // Show the effective settings
	ModeForm                      // Editing
	ModeSaving                    // Writing config and keyring
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// ConfigSavedMsg carries the settings that were written. APIKey is set
// only when a new Gemini key was entered.
type ConfigSavedMsg struct {
	Config *model.AppConfig
	APIKey string
}

type savedInternalMsg struct {
	cfg    *model.AppConfig
	apiKey string
	err    error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	apiBaseURL  string
	authBaseURL string
	refreshSec  string
	logLevel    string
	aiModel     string
	apiKey      string
	clearKey    bool
}

// Model is the settings screen. Endpoints and preferences go to the YAML
// config file; the Gemini key goes to the keyring.
type Model struct {
	mode      ConfigMode
	cfg       *model.AppConfig
	path      string
	secrets   session.Store
	form      *huh.Form
	fb        *formBindings
	spinner   spinner.Model
	statusMsg string
	err       error
	hasKey    bool

	keys          *keys.KeyMap
	width, height int
}

// New creates the settings view. secrets may be nil, in which case the
// key field is hidden.
func New(cfg *model.AppConfig, path string, secrets session.Store, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeSummary,
		cfg:     cfg,
		path:    path,
		secrets: secrets,
		fb:      &formBindings{},
		spinner: sp,
		hasKey:  cfg.AI.APIKey != "",
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// InputFocused reports whether the form is capturing input.
func (m Model) InputFocused() bool {
	return m.mode != ModeSummary
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.mode != ModeSaving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case savedInternalMsg:
		m.mode = ModeSummary
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.cfg = msg.cfg
		if msg.apiKey != "" {
			m.hasKey = true
		}
		if m.fb.clearKey {
			m.hasKey = false
		}
		m.statusMsg = "Settings saved to " + m.path
		saved := ConfigSavedMsg{Config: msg.cfg, APIKey: msg.apiKey}
		return m, func() tea.Msg { return saved }

	case tea.KeyMsg:
		if m.mode == ModeSummary {
			return m.handleSummaryKeys(msg)
		}
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleSummaryKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	case key.Matches(msg, m.keys.Select), msg.String() == "e":
		m.resetFormFields()
		m.form = m.buildForm()
		m.mode = ModeForm
		m.statusMsg = ""
		return m, m.form.Init()
	}
	return m, nil
}

func (m *Model) resetFormFields() {
	m.fb.apiBaseURL = m.cfg.API.BaseURL
	m.fb.authBaseURL = m.cfg.Auth.BaseURL
	m.fb.refreshSec = strconv.Itoa(m.cfg.Display.RefreshIntervalSec)
	m.fb.logLevel = m.cfg.Log.Level
	m.fb.aiModel = m.cfg.AI.Model
	m.fb.apiKey = ""
	m.fb.clearKey = false
}

func (m *Model) buildForm() *huh.Form {
	groups := []*huh.Group{
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Value(&m.fb.apiBaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Auth base URL").
				Value(&m.fb.authBaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Auto refresh (seconds, 0 disables)").
				Value(&m.fb.refreshSec).
				Validate(validateInterval),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&m.fb.logLevel),
		),
	}
	if m.secrets != nil {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title("Gemini model").
				Value(&m.fb.aiModel).
				Validate(validateRequired("Model")),
			huh.NewInput().
				Title("Gemini API key").
				Description("Leave empty to keep the stored key.").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.apiKey),
			huh.NewConfirm().
				Title("Remove the stored key?").
				Value(&m.fb.clearKey),
		))
	}
	return huh.NewForm(groups...).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = ModeSummary
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateAborted:
		m.mode = ModeSummary
		return m, nil
	case huh.StateCompleted:
		m.mode = ModeSaving
		return m, tea.Batch(m.spinner.Tick, m.save())
	}
	return m, cmd
}

func (m Model) save() tea.Cmd {
	next := *m.cfg
	next.API.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.apiBaseURL), "/")
	next.Auth.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.authBaseURL), "/")
	next.Display.RefreshIntervalSec, _ = strconv.Atoi(strings.TrimSpace(m.fb.refreshSec))
	next.Log.Level = m.fb.logLevel
	if s := strings.TrimSpace(m.fb.aiModel); s != "" {
		next.AI.Model = s
	}
	apiKey := strings.TrimSpace(m.fb.apiKey)
	clearKey := m.fb.clearKey
	path, secrets := m.path, m.secrets

	return func() tea.Msg {
		if err := next.Validate(); err != nil {
			return savedInternalMsg{err: err}
		}
		if err := model.SaveConfig(path, &next); err != nil {
			return savedInternalMsg{err: err}
		}
		if secrets != nil {
			switch {
			case clearKey:
				if err := secrets.Delete(session.AIKeyName); err != nil {
					return savedInternalMsg{err: fmt.Errorf("removing API key: %w", err)}
				}
				next.AI.APIKey = ""
			case apiKey != "":
				if err := secrets.Set(session.AIKeyName, apiKey); err != nil {
					return savedInternalMsg{err: fmt.Errorf("storing API key: %w", err)}
				}
				next.AI.APIKey = apiKey
			}
		}
		return savedInternalMsg{cfg: &next, apiKey: apiKey}
	}
}

// View renders the settings screen.
func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		if m.form != nil {
			return lipgloss.NewStyle().Padding(1, 2).Render(
				theme.TitleStyle.Render("Edit Settings") + "\n" + m.form.View(),
			)
		}
	case ModeSaving:
		return lipgloss.NewStyle().Padding(1, 2).Render(m.spinner.View() + " Saving settings...")
	}

	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(18)
	row := func(label, value string) string {
		return labelStyle.Render(label) + value
	}

	keyState := theme.ErrorStyle.Render("not configured")
	if m.hasKey {
		keyState = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("configured")
	}
	refresh := "off"
	if m.cfg.Display.RefreshIntervalSec > 0 {
		refresh = fmt.Sprintf("every %ds", m.cfg.Display.RefreshIntervalSec)
	}

	lines := []string{
		theme.TitleStyle.Render("Settings"),
		row("Config file", m.path),
		row("API", m.cfg.API.BaseURL),
		row("Auth", m.cfg.Auth.BaseURL),
		row("Auto refresh", refresh),
		row("Log level", m.cfg.Log.Level),
		row("Gemini model", m.cfg.AI.Model),
		row("Gemini key", keyState),
		row("Quotations db", m.cfg.Store.Path),
		"",
		theme.HelpStyle.Render("enter/e: edit  esc: back"),
	}
	if m.err != nil {
		lines = append(lines, theme.ErrorStyle.Render("Error: "+m.err.Error()))
	}
	if m.statusMsg != "" {
		lines = append(lines, theme.NoticeStyle.Render(m.statusMsg))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	return nil
}

func validateInterval(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of seconds")
	}
	if n > 0 && n < 15 {
		return fmt.Errorf("minimum interval is 15 seconds")
	}
	return nil
}
