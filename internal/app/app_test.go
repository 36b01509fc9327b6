package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/99designs/keyring"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tracerx/internal/ai"
	"github.com/nhle/tracerx/internal/api"
	"github.com/nhle/tracerx/internal/auth"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/session"
	appsync "github.com/nhle/tracerx/internal/sync"
	"github.com/nhle/tracerx/internal/tracker"
	"github.com/nhle/tracerx/internal/ui"
	"github.com/nhle/tracerx/internal/ui/command"
)

func newTestApp(t *testing.T, signedIn bool) (Model, *session.Manager) {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	secrets := session.NewKeyringStore(keyring.NewArrayKeyring(nil))
	sessions := session.NewManager(secrets, nil)
	if signedIn {
		if err := sessions.Save("token", model.User{ID: "u1", Name: "Lan"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	client := api.NewClient(srv.URL, sessions, time.Second, nil)
	m := New(Deps{
		Config:     &model.AppConfig{},
		ConfigPath: t.TempDir() + "/config.yaml",
		Sessions:   sessions,
		Secrets:    secrets,
		Auth:       auth.NewService(srv.URL, sessions, time.Second, nil),
		Tracker:    tracker.NewService(client, sessions, nil),
		Assistant:  ai.New(model.AIConfig{}, nil),
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), sessions
}

func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, _ := m.Update(k)
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStartsAtLoginWithoutSession(t *testing.T) {
	m, _ := newTestApp(t, false)
	if m.CurrentView() != ViewLogin {
		t.Fatalf("CurrentView = %v, want login", m.CurrentView())
	}
	// Digits are typed into the form, not used for navigation.
	m = press(t, m, runes("2"))
	if m.CurrentView() != ViewLogin {
		t.Errorf("CurrentView after 2 = %v, want login", m.CurrentView())
	}
}

func TestStartsAtDashboardWithSession(t *testing.T) {
	m, _ := newTestApp(t, true)
	if m.CurrentView() != ViewDashboard {
		t.Fatalf("CurrentView = %v, want dashboard", m.CurrentView())
	}
}

func TestScreenNavigation(t *testing.T) {
	m, _ := newTestApp(t, true)

	m = press(t, m, runes("2"))
	if m.CurrentView() != ViewProjects {
		t.Fatalf("after 2: %v, want projects", m.CurrentView())
	}
	m = press(t, m, runes("?"))
	if m.CurrentView() != ViewHelp {
		t.Fatalf("after ?: %v, want help", m.CurrentView())
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.CurrentView() != ViewProjects {
		t.Fatalf("after esc: %v, want projects", m.CurrentView())
	}
	m = press(t, m, runes("4"))
	if m.CurrentView() != ViewFinance {
		t.Fatalf("after 4: %v, want finance", m.CurrentView())
	}
}

func TestCommandPaletteSwitchesScreen(t *testing.T) {
	m, _ := newTestApp(t, true)
	m = press(t, m, runes(":"))
	if m.CurrentView() != ViewCommand {
		t.Fatalf("after ':': %v, want command", m.CurrentView())
	}
	next, _ := m.Update(command.CommandMsg{Name: "tasks"})
	m = next.(Model)
	if m.CurrentView() != ViewTasks {
		t.Errorf("after tasks command: %v, want tasks", m.CurrentView())
	}
}

func TestSessionExpiredReturnsToLogin(t *testing.T) {
	m, sessions := newTestApp(t, true)
	m = press(t, m, runes("3"))

	next, _ := m.Update(ui.SessionExpiredMsg{})
	m = next.(Model)
	if m.CurrentView() != ViewLogin {
		t.Fatalf("CurrentView = %v, want login", m.CurrentView())
	}
	if sessions.IsAuthenticated() {
		t.Error("session should be cleared")
	}
	if v := m.View(); v == "" {
		t.Error("empty view")
	}
}

func TestStaleRefreshTickIgnored(t *testing.T) {
	m, _ := newTestApp(t, true)
	m.tickGen = 2
	_, cmd := m.Update(appsyncTick(1))
	if cmd != nil {
		t.Error("tick from a replaced schedule should be ignored")
	}
}

func appsyncTick(gen int) tea.Msg {
	return appsync.RefreshTickMsg{Gen: gen, At: time.Now()}
}
