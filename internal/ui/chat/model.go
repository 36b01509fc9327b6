package chat

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/ai"
	"github.com/nhle/tracerx/internal/keys"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/store"
	"github.com/nhle/tracerx/internal/theme"
)

// CloseMsg signals the parent to leave the chat screen.
type CloseMsg struct{}

// QuotationSavedMsg is sent after a drafted quotation is stored locally.
type QuotationSavedMsg struct {
	Quotation model.Quotation
}

// ReplyMsg carries the assistant's answer to one user message.
type ReplyMsg struct {
	Reply ai.Reply
}

type savedMsg struct {
	quotation model.Quotation
	err       error
}

const (
	roleUser      = "You"
	roleAssistant = "Quotie"
)

// displayMessage represents a message rendered in the conversation viewport.
type displayMessage struct {
	Role        string
	Content     string
	IsQuotation bool
	Failed      bool
}

// Model is the Quotie chat screen.
type Model struct {
	assistant *ai.Assistant
	store     store.Store
	keys      *keys.KeyMap
	input     textarea.Model
	viewport  viewport.Model
	messages  []displayMessage
	waiting   bool
	statusMsg string
	width     int
	height    int

	// lastPrompt is the user text that produced the latest quotation.
	lastPrompt string
}

// New creates the chat screen. s may be nil, in which case quotations
// can be copied but not saved.
func New(assistant *ai.Assistant, s store.Store, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Describe a project to get a quotation, or just ask..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 4000
	ta.Focus()

	vp := viewport.New(width-4, viewportHeight(height))
	vp.Style = lipgloss.NewStyle()

	m := Model{
		assistant: assistant,
		store:     s,
		keys:      k,
		input:     ta,
		viewport:  vp,
		width:     width,
		height:    height,
	}
	m.messages = []displayMessage{{Role: roleAssistant, Content: ai.Greeting}}
	m.refreshViewport()
	return m
}

func viewportHeight(height int) int {
	h := height - 9
	if h < 4 {
		h = 4
	}
	return h
}

// Init returns the initial command for the chat screen.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the chat screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReplyMsg:
		m.waiting = false
		m.messages = append(m.messages, displayMessage{
			Role:        roleAssistant,
			Content:     msg.Reply.Text,
			IsQuotation: msg.Reply.IsQuotation,
			Failed:      msg.Reply.Failed,
		})
		if msg.Reply.IsQuotation {
			m.statusMsg = "ctrl+y copy · ctrl+s save quotation"
		}
		m.refreshViewport()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.statusMsg = "Save failed: " + msg.err.Error()
			return m, nil
		}
		m.statusMsg = "Quotation saved: " + msg.quotation.Title
		q := msg.quotation
		return m, func() tea.Msg { return QuotationSavedMsg{Quotation: q} }

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd
	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}
	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the chat screen.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if m.waiting {
			return m, nil
		}
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Copy):
		q, ok := m.lastQuotation()
		if !ok {
			m.statusMsg = "No quotation to copy"
			return m, nil
		}
		if err := clipboard.WriteAll(q.Content); err != nil {
			m.statusMsg = "Copy failed: " + err.Error()
		} else {
			m.statusMsg = "Quotation copied to clipboard"
		}
		return m, nil

	case key.Matches(msg, m.keys.Save):
		q, ok := m.lastQuotation()
		if !ok {
			m.statusMsg = "No quotation to save"
			return m, nil
		}
		if m.store == nil {
			m.statusMsg = "Quotation storage is unavailable"
			return m, nil
		}
		st, prompt, body := m.store, m.lastPrompt, q.Content
		return m, func() tea.Msg {
			saved, err := st.SaveQuotation(context.Background(), model.Quotation{Prompt: prompt, Body: body})
			if err != nil {
				return savedMsg{err: err}
			}
			return savedMsg{quotation: *saved}
		}
	}

	switch msg.String() {
	case "ctrl+l":
		if !m.waiting {
			m.Reset()
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		if m.waiting {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.messages = append(m.messages, displayMessage{Role: roleUser, Content: text})
		if ai.IsQuotationRequest(text) {
			m.lastPrompt = text
		}
		m.waiting = true
		m.statusMsg = ""
		m.refreshViewport()
		return m, m.sendMessage(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sendMessage returns a command that asks the assistant for a reply.
func (m Model) sendMessage(text string) tea.Cmd {
	assistant := m.assistant
	return func() tea.Msg {
		return ReplyMsg{Reply: assistant.Respond(context.Background(), text)}
	}
}

func (m Model) lastQuotation() (displayMessage, bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].IsQuotation && !m.messages[i].Failed {
			return m.messages[i], true
		}
	}
	return displayMessage{}, false
}

// refreshViewport re-renders the conversation content and scrolls to bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation builds the conversation display string.
func (m Model) renderConversation() string {
	var sections []string

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	assistantStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite).Width(m.width - 8)
	quoteStyle := theme.BorderStyle.Padding(0, 1).Width(m.width - 10)

	for _, msg := range m.messages {
		label := userStyle.Render(msg.Role + ":")
		if msg.Role == roleAssistant {
			label = assistantStyle.Render(msg.Role + ":")
		}
		sections = append(sections, label)
		switch {
		case msg.Failed:
			sections = append(sections, theme.ErrorStyle.Render(msg.Content))
		case msg.IsQuotation:
			sections = append(sections, quoteStyle.Render(msg.Content))
		default:
			sections = append(sections, contentStyle.Render(msg.Content))
		}
		sections = append(sections, "")
	}

	if m.waiting {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Quotie is typing..."))
	}

	return strings.Join(sections, "\n")
}

// View renders the chat screen.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Quotie · AI quotation assistant")
	if m.assistant == nil || !m.assistant.Configured() {
		title += "\n" + theme.ErrorStyle.Render(
			"No Gemini API key configured. Set GEMINI_API_KEY or store it with the settings screen.")
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-6, 80), 0)))

	status := ""
	if m.statusMsg != "" {
		status = theme.NoticeStyle.Render(m.statusMsg)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		separator,
		m.input.View(),
		status,
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the chat screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)
	m.viewport.Width = width - 4
	m.viewport.Height = viewportHeight(height)
	m.refreshViewport()
}

// SetAssistant swaps the assistant, e.g. after the API key changed. The
// conversation starts over.
func (m *Model) SetAssistant(a *ai.Assistant) {
	m.assistant = a
	m.Reset()
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Reset clears the conversation and the assistant's history.
func (m *Model) Reset() {
	m.messages = []displayMessage{{Role: roleAssistant, Content: ai.Greeting}}
	m.waiting = false
	m.lastPrompt = ""
	m.statusMsg = ""
	m.input.Reset()
	m.refreshViewport()
	if m.assistant != nil {
		m.assistant.Reset()
	}
}
