package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tracerx/internal/ai"
	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/auth"
	"github.com/nhle/tracerx/internal/keys"
	"github.com/nhle/tracerx/internal/logging"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/session"
	"github.com/nhle/tracerx/internal/store"
	appsync "github.com/nhle/tracerx/internal/sync"
	"github.com/nhle/tracerx/internal/tracker"
	"github.com/nhle/tracerx/internal/ui"
	"github.com/nhle/tracerx/internal/ui/chat"
	"github.com/nhle/tracerx/internal/ui/command"
	configview "github.com/nhle/tracerx/internal/ui/config"
	"github.com/nhle/tracerx/internal/ui/dashboard"
	"github.com/nhle/tracerx/internal/ui/finance"
	"github.com/nhle/tracerx/internal/ui/forms"
	helpview "github.com/nhle/tracerx/internal/ui/help"
	"github.com/nhle/tracerx/internal/ui/login"
	"github.com/nhle/tracerx/internal/ui/projectdetail"
	"github.com/nhle/tracerx/internal/ui/projects"
	"github.com/nhle/tracerx/internal/ui/quotes"
	"github.com/nhle/tracerx/internal/ui/tasks"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewDashboard
	ViewProjects
	ViewProjectDetail
	ViewTasks
	ViewFinance
	ViewChat
	ViewQuotes
	ViewForm
	ViewSettings
	ViewHelp
	ViewCommand
)

var viewNames = map[ViewState]string{
	ViewLogin:         "Sign in",
	ViewDashboard:     "Dashboard",
	ViewProjects:      "Projects",
	ViewProjectDetail: "Project",
	ViewTasks:         "Tasks",
	ViewFinance:       "Finance",
	ViewChat:          "Quotie",
	ViewQuotes:        "Quotations",
	ViewForm:          "New",
	ViewSettings:      "Settings",
	ViewHelp:          "Help",
	ViewCommand:       "Command",
}

// String returns the screen name shown in the header.
func (v ViewState) String() string {
	return viewNames[v]
}

const sessionExpiredText = "Your session has expired. Please sign in again."

// Deps are the services the UI runs on. Store may be nil when the local
// quotation database is unavailable.
type Deps struct {
	Config     *model.AppConfig
	ConfigPath string
	Sessions   *session.Manager
	Secrets    session.Store
	Auth       *auth.Service
	Tracker    *tracker.Service
	Assistant  *ai.Assistant
	Store      store.Store
	Logger     *logging.Logger
}

// Model is the root Bubble Tea model that manages view routing, layout,
// the session lifecycle and background refresh.
type Model struct {
	deps         Deps
	logger       *logging.Logger
	currentView  ViewState
	previousView ViewState
	// listView is where project detail returns to.
	listView ViewState
	// formReturn is where the create forms return to.
	formReturn ViewState
	layout     ui.Layout
	keys       *keys.KeyMap

	loginView     login.Model
	dashboardView dashboard.Model
	projectsView  projects.Model
	detailView    projectdetail.Model
	tasksView     tasks.Model
	financeView   finance.Model
	chatView      chat.Model
	quotesView    quotes.Model
	formView      forms.Model
	settingsView  configview.Model
	helpView      helpview.Model
	commandView   command.Model

	poller      *appsync.Poller
	tickGen     int
	ready       bool
	unreadCount int
	statusMsg   string
	lastRefresh time.Time
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	logger := logging.OrDiscard(d.Logger).WithComponent(logging.ComponentUI)

	m := Model{
		deps:          d,
		logger:        logger,
		currentView:   ViewLogin,
		listView:      ViewProjects,
		formReturn:    ViewDashboard,
		keys:          k,
		loginView:     login.New(d.Auth, 80, 24),
		dashboardView: dashboard.New(d.Tracker, k, 80, 24),
		projectsView:  projects.New(d.Tracker, k, 80, 24),
		detailView:    projectdetail.New(d.Tracker, k, 80, 24),
		tasksView:     tasks.New(d.Tracker, k, 80, 24),
		financeView:   finance.New(d.Tracker, k, 80, 24),
		chatView:      chat.New(d.Assistant, d.Store, k, 80, 24),
		quotesView:    quotes.New(d.Store, k, 80, 24),
		formView:      forms.New(d.Tracker, 80, 24),
		settingsView:  configview.New(d.Config, d.ConfigPath, d.Secrets, k, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
		poller:        appsync.New(d.Tracker, refreshInterval(d.Config), d.Logger),
	}
	if d.Sessions.IsAuthenticated() {
		m.currentView = ViewDashboard
	}
	return m
}

func refreshInterval(cfg *model.AppConfig) time.Duration {
	if cfg == nil {
		return 0
	}
	return time.Duration(cfg.Display.RefreshIntervalSec) * time.Second
}

// CurrentView returns the active screen.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// Init shows the login form, or the dashboard when a session was restored.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewLogin {
		return m.loginView.Init()
	}
	return m.startSession()
}

// startSession loads the dashboard and starts background refresh.
func (m *Model) startSession() tea.Cmd {
	if u, ok := m.deps.Sessions.User(); ok {
		m.dashboardView.SetUser(u.Name)
	}
	m.currentView = ViewDashboard
	m.tickGen++
	return tea.Batch(
		m.dashboardView.Load(),
		m.poller.Start(),
		appsync.RefreshEvery(refreshInterval(m.deps.Config), m.tickGen),
	)
}

// endSession clears the session and returns to the login form.
func (m *Model) endSession(notice string) tea.Cmd {
	if err := m.deps.Auth.Logout(); err != nil {
		m.logger.Warn("clearing session failed", logging.FieldError, err)
	}
	m.poller.Stop()
	m.cancelLoads()
	m.tickGen++
	m.unreadCount = 0
	m.statusMsg = ""
	m.chatView.Reset()
	m.currentView = ViewLogin
	cmd := m.loginView.Reset()
	m.loginView.SetError(notice)
	return cmd
}

func (m *Model) cancelLoads() {
	m.dashboardView.Cancel()
	m.projectsView.Cancel()
	m.detailView.Cancel()
	m.tasksView.Cancel()
	m.financeView.Cancel()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		m.dashboardView.SetSize(w, h)
		m.projectsView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.tasksView.SetSize(w, h)
		m.financeView.SetSize(w, h)
		m.chatView.SetSize(w, h)
		m.quotesView.SetSize(w, h)
		m.formView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case ui.SessionExpiredMsg:
		if m.currentView == ViewLogin {
			return m, nil
		}
		m.logger.Info("session expired")
		return m, m.endSession(sessionExpiredText)

	case ui.StatusMsg:
		m.statusMsg = string(msg)
		return m, nil

	case login.LoggedInMsg:
		m.logger.Info("signed in", "user", msg.User.ID)
		m.statusMsg = "Welcome, " + msg.User.Name
		return m, m.startSession()

	case appsync.ActivityResultMsg:
		wait := m.poller.WaitForNextResult()
		if msg.Error != nil {
			return m, tea.Batch(wait, ui.CheckAuth(msg.Error))
		}
		m.unreadCount = msg.Unread
		if msg.NewCount > 0 {
			m.statusMsg = fmt.Sprintf("%d new activit%s", msg.NewCount, plural(msg.NewCount, "y", "ies"))
		}
		return m, wait

	case appsync.RefreshTickMsg:
		if msg.Gen != m.tickGen || m.currentView == ViewLogin {
			return m, nil
		}
		next := appsync.RefreshEvery(refreshInterval(m.deps.Config), m.tickGen)
		if m.inputFocused() || m.activeLoading() {
			return m, next
		}
		return m, tea.Batch(next, m.reloadActive())

	// Load results go to their screen even when it is not showing; each
	// screen drops results from loads it has since replaced or cancelled.
	case dashboard.LoadedMsg:
		m.lastRefresh = time.Now()
		var cmd tea.Cmd
		m.dashboardView, cmd = m.dashboardView.Update(msg)
		return m, cmd
	case projects.LoadedMsg:
		m.lastRefresh = time.Now()
		var cmd tea.Cmd
		m.projectsView, cmd = m.projectsView.Update(msg)
		return m, cmd
	case projectdetail.LoadedMsg, projectdetail.FinanceLoadedMsg:
		m.lastRefresh = time.Now()
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd
	case tasks.LoadedMsg:
		m.lastRefresh = time.Now()
		var cmd tea.Cmd
		m.tasksView, cmd = m.tasksView.Update(msg)
		return m, cmd
	case finance.LoadedMsg:
		m.lastRefresh = time.Now()
		var cmd tea.Cmd
		m.financeView, cmd = m.financeView.Update(msg)
		return m, cmd
	case chat.ReplyMsg:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case projects.SelectedProjectMsg:
		m.listView = ViewProjects
		return m, m.openProject(msg.Project)

	case tasks.SelectedProjectMsg:
		m.listView = ViewTasks
		return m, m.openProject(model.Project{ID: msg.ProjectID, Title: msg.Title})

	case projectdetail.BackMsg:
		return m, m.switchTo(m.listView)

	case projects.NewProjectMsg:
		m.formReturn = ViewProjects
		m.currentView = ViewForm
		return m, m.formView.StartProject()

	case tasks.NewTaskMsg:
		m.formReturn = ViewTasks
		m.currentView = ViewForm
		return m, m.formView.StartTask("")

	case projectdetail.NewTaskMsg:
		m.formReturn = ViewProjectDetail
		m.currentView = ViewForm
		return m, m.formView.StartTask(msg.ProjectID)

	case forms.ProjectCreatedMsg:
		m.statusMsg = fmt.Sprintf("Project %q created", msg.Project.Title)
		return m, m.switchTo(ViewProjects)

	case forms.TaskCreatedMsg:
		m.statusMsg = fmt.Sprintf("Task %q created", msg.Task.Title)
		return m, m.switchTo(m.formReturn)

	case forms.CancelMsg:
		m.currentView = m.formReturn
		return m, nil

	case chat.CloseMsg:
		m.currentView = ViewDashboard
		return m, nil

	case chat.QuotationSavedMsg:
		return m, m.quotesView.Load()

	case configview.ConfigDoneMsg:
		m.currentView = m.previousView
		return m, nil

	case configview.ConfigSavedMsg:
		return m, m.applyConfig(msg)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(command.Command(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.poller.Stop()
			return m, tea.Quit
		}
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes navigation keys that work on every screen
// not capturing text.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.currentView == ViewLogin {
		return nil, false
	}

	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	}

	if m.inputFocused() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.poller.Stop()
		return tea.Quit, true
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.helpView.SetScreen(m.currentView.String())
		m.currentView = ViewHelp
		return nil, true
	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true
	case key.Matches(msg, m.keys.Settings):
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m.settingsView.Init(), true
	case key.Matches(msg, m.keys.Logout):
		m.logger.Info("signed out")
		return m.endSession(""), true
	case key.Matches(msg, m.keys.Dashboard):
		return m.switchTo(ViewDashboard), true
	case key.Matches(msg, m.keys.Projects):
		return m.switchTo(ViewProjects), true
	case key.Matches(msg, m.keys.Tasks):
		return m.switchTo(ViewTasks), true
	case key.Matches(msg, m.keys.Finance):
		return m.switchTo(ViewFinance), true
	case key.Matches(msg, m.keys.Chat):
		return m.switchTo(ViewChat), true
	case key.Matches(msg, m.keys.Quotes):
		return m.switchTo(ViewQuotes), true
	}
	return nil, false
}

// switchTo leaves the current screen and loads the target one. In-flight
// loads of other screens are cancelled.
func (m *Model) switchTo(v ViewState) tea.Cmd {
	m.cancelLoads()
	m.currentView = v
	switch v {
	case ViewChat:
		return m.chatView.Focus()
	case ViewQuotes:
		return m.quotesView.Load()
	}
	return m.reloadActive()
}

func (m *Model) openProject(p model.Project) tea.Cmd {
	m.cancelLoads()
	m.currentView = ViewProjectDetail
	return m.detailView.Open(p)
}

// reloadActive refetches the data behind the current screen.
func (m *Model) reloadActive() tea.Cmd {
	switch m.currentView {
	case ViewDashboard:
		return m.dashboardView.Load()
	case ViewProjects:
		return m.projectsView.Load()
	case ViewProjectDetail:
		return m.detailView.Load()
	case ViewTasks:
		return m.tasksView.Load()
	case ViewFinance:
		return m.financeView.Load()
	case ViewQuotes:
		return m.quotesView.Load()
	}
	return nil
}

func (m Model) activeLoading() bool {
	switch m.currentView {
	case ViewDashboard:
		return m.dashboardView.Loading()
	case ViewProjects:
		return m.projectsView.Loading()
	case ViewProjectDetail:
		return m.detailView.Loading()
	case ViewTasks:
		return m.tasksView.Loading()
	case ViewFinance:
		return m.financeView.Loading()
	}
	return false
}

// inputFocused reports whether the active screen is capturing text, in
// which case single-key shortcuts go to the screen.
func (m Model) inputFocused() bool {
	switch m.currentView {
	case ViewLogin, ViewChat, ViewForm, ViewCommand:
		return true
	case ViewProjects:
		return m.projectsView.InputFocused()
	case ViewProjectDetail:
		return m.detailView.InputFocused()
	case ViewTasks:
		return m.tasksView.InputFocused()
	case ViewFinance:
		return m.financeView.InputFocused()
	case ViewQuotes:
		return m.quotesView.InputFocused()
	case ViewSettings:
		return m.settingsView.InputFocused()
	}
	return false
}

// applyConfig takes over settings saved from the settings screen.
// Endpoint changes need a restart; the assistant and refresh schedule
// are replaced in place.
func (m *Model) applyConfig(msg configview.ConfigSavedMsg) tea.Cmd {
	prev := m.deps.Config
	m.deps.Config = msg.Config

	if msg.Config.AI.APIKey != prev.AI.APIKey || msg.Config.AI.Model != prev.AI.Model {
		m.deps.Assistant = ai.New(msg.Config.AI, m.deps.Logger)
		m.chatView.SetAssistant(m.deps.Assistant)
	}

	if msg.Config.API.BaseURL != prev.API.BaseURL || msg.Config.Auth.BaseURL != prev.Auth.BaseURL {
		m.statusMsg = "Endpoint changes apply after restart"
	}

	if refreshInterval(msg.Config) == refreshInterval(prev) {
		return nil
	}
	m.tickGen++
	return appsync.RefreshEvery(refreshInterval(msg.Config), m.tickGen)
}

// executeCommand runs a command palette entry.
func (m *Model) executeCommand(c command.Command) tea.Cmd {
	switch c.Name {
	case "dashboard":
		return m.switchTo(ViewDashboard)
	case "projects":
		return m.switchTo(ViewProjects)
	case "tasks":
		return m.switchTo(ViewTasks)
	case "finance":
		return m.switchTo(ViewFinance)
	case "chat":
		return m.switchTo(ViewChat)
	case "quotes":
		return m.switchTo(ViewQuotes)
	case "new-project":
		m.formReturn = ViewProjects
		m.currentView = ViewForm
		return m.formView.StartProject()
	case "new-task":
		m.formReturn = m.currentView
		m.currentView = ViewForm
		return m.formView.StartTask("")
	case "refresh":
		m.poller.Refresh()
		return m.reloadActive()
	case "logout":
		return m.endSession("")
	case "quit":
		m.poller.Stop()
		return tea.Quit
	}
	return nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewDashboard:
		m.dashboardView, cmd = m.dashboardView.Update(msg)
	case ViewProjects:
		m.projectsView, cmd = m.projectsView.Update(msg)
	case ViewProjectDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewTasks:
		m.tasksView, cmd = m.tasksView.Update(msg)
	case ViewFinance:
		m.financeView, cmd = m.financeView.Update(msg)
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewQuotes:
		m.quotesView, cmd = m.quotesView.Update(msg)
	case ViewForm:
		m.formView, cmd = m.formView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.header())
	content := m.renderContent()
	notice := ""
	if m.currentView != ViewLogin {
		notice = m.statusMsg
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints(), notice)

	return m.layout.Frame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewDashboard:
		return m.dashboardView.View()
	case ViewProjects:
		return m.projectsView.View()
	case ViewProjectDetail:
		return m.detailView.View()
	case ViewTasks:
		return m.tasksView.View()
	case ViewFinance:
		return m.financeView.View()
	case ViewChat:
		return m.chatView.View()
	case ViewQuotes:
		return m.quotesView.View()
	case ViewForm:
		return m.formView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// header collects the session and refresh state for the top bar.
func (m Model) header() ui.Header {
	h := ui.Header{
		Screen:      m.currentView.String(),
		SignedIn:    m.currentView != ViewLogin,
		Unread:      m.unreadCount,
		Refreshing:  m.activeLoading(),
		LastRefresh: m.lastRefresh,
	}
	if u, ok := m.deps.Sessions.User(); ok {
		h.User = u.Name
	}
	if st := m.poller.Status(); st.State == appsync.SyncError && !api.IsUnauthorized(st.Error) {
		h.Offline = true
	}
	return h
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+r switch sign in/register | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDashboard:
		return "1-6 screens | r refresh | m mark all read | : command | ? help | q quit"
	case ViewProjects:
		return "enter open | n new | space mark | d delete | A archive | s status | f filter | / search"
	case ViewProjectDetail:
		return "tab switch | n new task | x toggle | p payment | D deadline | o note | esc back"
	case ViewTasks:
		return "enter project | n new | x toggle | c comment | d delete | f filter | / search"
	case ViewFinance:
		return "m mark paid | f filter | / search | r refresh"
	case ViewChat:
		return "enter send | ctrl+y copy | ctrl+s save | ctrl+l clear | esc back"
	case ViewQuotes:
		return "enter view | ctrl+y copy | d delete | / search | esc back"
	case ViewForm:
		return "enter next | esc cancel"
	case ViewSettings:
		return "enter edit | esc back"
	}
	return "q quit | ? help"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
