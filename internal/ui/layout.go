package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/theme"
)

// Layout splits the terminal into a one-line header, the active screen
// and a one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the width a screen may draw into.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left between header and status bar.
func (l Layout) ContentHeight() int {
	if l.Height < 2 {
		return 0
	}
	return l.Height - 2
}

// Header is what the top bar reports: where the user is, who is signed
// in and how fresh the data on screen is.
type Header struct {
	Screen      string
	User        string
	SignedIn    bool
	Unread      int
	Refreshing  bool
	Offline     bool
	LastRefresh time.Time
}

// Title is the left side of the bar.
func (h Header) Title() string {
	title := "TracerX · " + h.Screen
	if h.Unread > 0 {
		title = fmt.Sprintf("%s [%d unread]", title, h.Unread)
	}
	return title
}

// Status is the right side of the bar. A load in progress wins over an
// offline poller, which wins over the last refresh time.
func (h Header) Status() string {
	if !h.SignedIn {
		return "not signed in"
	}
	prefix := ""
	if h.User != "" {
		prefix = h.User + " · "
	}
	switch {
	case h.Refreshing:
		return prefix + "refreshing..."
	case h.Offline:
		return prefix + "⚠ offline"
	case h.LastRefresh.IsZero():
		return prefix + "idle"
	default:
		return prefix + "updated " + h.LastRefresh.Format("15:04")
	}
}

// RenderHeader draws the header bar across the full width.
func (l Layout) RenderHeader(h Header) string {
	title := theme.HeaderStyle.Render(h.Title())
	status := theme.HeaderStyle.Render(h.Status())
	return title + fill(theme.HeaderStyle, l.Width-lipgloss.Width(title)-lipgloss.Width(status)) + status
}

// RenderStatusBar draws the bottom bar. A non-empty notice replaces the
// key hints.
func (l Layout) RenderStatusBar(hints, notice string) string {
	text := hints
	if notice != "" {
		text = notice
	}
	bar := theme.StatusBarStyle.Render(text)
	return bar + fill(theme.StatusBarStyle, l.Width-lipgloss.Width(bar))
}

// Frame stacks header, screen and status bar.
func (l Layout) Frame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

func fill(style lipgloss.Style, n int) string {
	if n <= 0 {
		return ""
	}
	return lipgloss.NewStyle().Width(n).Background(style.GetBackground()).Render("")
}

// FormWidth clamps a huh form width to the content area.
func FormWidth(width int) int {
	w := width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// FormHeight clamps a huh form height to the content area.
func FormHeight(height int) int {
	h := height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// Clamp keeps a list cursor inside [0, n).
func Clamp(idx, n int) int {
	if n == 0 || idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// Window returns the [start, end) slice of n rows to draw so that the
// selected row stays visible within height rows.
func Window(selected, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := selected - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}
