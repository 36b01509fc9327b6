package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/theme"
)

// Command is a parsed palette entry.
type Command struct {
	Name string
	Arg  string
}

// CommandMsg is emitted when the user executes a known command.
type CommandMsg Command

// Spec describes one palette command.
type Spec struct {
	Name    string
	Aliases []string
	Help    string
}

// Commands lists everything the palette understands.
var Commands = []Spec{
	{Name: "dashboard", Aliases: []string{"home"}, Help: "overview of projects, deadlines and earnings"},
	{Name: "projects", Help: "project list"},
	{Name: "tasks", Help: "task list"},
	{Name: "finance", Help: "invoices and payments"},
	{Name: "chat", Aliases: []string{"quotie", "ai"}, Help: "AI quotation assistant"},
	{Name: "quotes", Help: "saved quotations"},
	{Name: "new-project", Help: "create a project"},
	{Name: "new-task", Help: "create a task"},
	{Name: "refresh", Help: "reload the current screen"},
	{Name: "logout", Help: "sign out and clear the session"},
	{Name: "quit", Aliases: []string{"q", "exit"}, Help: "exit tracerx"},
}

// Parse resolves the first word of input to a command name, accepting
// aliases. The rest of the line is returned as Arg.
func Parse(input string) (Command, bool) {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	name = strings.ToLower(name)
	if name == "" {
		return Command{}, false
	}
	for _, c := range Commands {
		if c.Name == name {
			return Command{Name: c.Name, Arg: strings.TrimSpace(arg)}, true
		}
		for _, a := range c.Aliases {
			if a == name {
				return Command{Name: c.Name, Arg: strings.TrimSpace(arg)}, true
			}
		}
	}
	return Command{}, false
}

// Complete returns the command names starting with prefix.
func Complete(prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []string
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, prefix) {
			out = append(out, c.Name)
		}
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command... (tab completes)"
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			raw := m.input.Value()
			if strings.TrimSpace(raw) == "" {
				return m, nil
			}
			c, ok := Parse(raw)
			if !ok {
				m.err = "unknown command: " + strings.Fields(raw)[0]
				return m, nil
			}
			m.input.Reset()
			m.err = ""
			return m, func() tea.Msg { return CommandMsg(c) }
		case "tab":
			if matches := Complete(m.input.Value()); len(matches) == 1 {
				m.input.SetValue(matches[0])
				m.input.CursorEnd()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.err = ""
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View()}
	if m.err != "" {
		lines = append(lines, theme.ErrorStyle.Render(m.err))
	}

	var hints []string
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, strings.ToLower(strings.TrimSpace(m.input.Value()))) {
			hints = append(hints, theme.SectionStyle.Render(c.Name)+" "+theme.DimmedStyle.Render(c.Help))
		}
	}
	if len(hints) > 0 {
		lines = append(lines, "")
		lines = append(lines, hints...)
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.err = ""
	return m.input.Focus()
}
