package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tracerx/internal/api"
)

// SessionExpiredMsg tells the root model the server rejected the token.
type SessionExpiredMsg struct{}

// StatusMsg asks the root model to show a transient status-bar message.
type StatusMsg string

// CheckAuth returns a command that reports an expired session when err is
// a 401, or nil otherwise.
func CheckAuth(err error) tea.Cmd {
	if !api.IsUnauthorized(err) {
		return nil
	}
	return func() tea.Msg { return SessionExpiredMsg{} }
}

// ErrorText renders a load error for a screen body.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + err.Error()
}
