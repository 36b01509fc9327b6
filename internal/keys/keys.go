package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Screens
	Dashboard key.Binding
	Projects  key.Binding
	Tasks     key.Binding
	Finance   key.Binding
	Chat      key.Binding
	Quotes    key.Binding

	// List actions
	New         key.Binding
	Delete      key.Binding
	Toggle      key.Binding
	Mark        key.Binding
	Archive     key.Binding
	Comment     key.Binding
	CycleFilter key.Binding

	// Project detail
	SwitchTab key.Binding
	Payment   key.Binding
	Deadline  key.Binding
	Note      key.Binding
	Status    key.Binding

	// Activity feed / finance
	MarkRead key.Binding
	MarkPaid key.Binding

	// Quotations
	Copy key.Binding
	Save key.Binding

	// Session
	Logout   key.Binding
	Settings key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "dashboard"),
		),
		Projects: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "projects"),
		),
		Tasks: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "tasks"),
		),
		Finance: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "finance"),
		),
		Chat: key.NewBinding(
			key.WithKeys("5", "a"),
			key.WithHelp("5/a", "Quotie chat"),
		),
		Quotes: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "saved quotes"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "toggle done"),
		),
		Mark: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "mark"),
		),
		Archive: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "archive/restore"),
		),
		Comment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comment"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle filter"),
		),
		SwitchTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch tab"),
		),
		Payment: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "add payment"),
		),
		Deadline: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "change deadline"),
		),
		Note: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "add note"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark all read"),
		),
		MarkPaid: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark paid"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy quote"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save quote"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "settings"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Dashboard, k.Projects, k.Tasks, k.Finance, k.Chat, k.Quotes},
		{k.Search, k.Command, k.Help, k.Refresh, k.Settings, k.Logout},
		{k.New, k.Delete, k.Toggle, k.Mark, k.Archive, k.Comment, k.CycleFilter},
		{k.SwitchTab, k.Payment, k.Deadline, k.Note, k.Status, k.MarkPaid},
		{k.Copy, k.Save, k.MarkRead},
	}
}
