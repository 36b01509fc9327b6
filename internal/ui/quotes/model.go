package quotes

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tracerx/internal/keys"
	"github.com/nhle/tracerx/internal/model"
	"github.com/nhle/tracerx/internal/store"
	"github.com/nhle/tracerx/internal/theme"
	"github.com/nhle/tracerx/internal/ui"
)

type quoteMode int

const (
	modeList quoteMode = iota
	modeSearch
	modeView
	modeConfirmDelete
)

type formBindings struct {
	confirm bool
}

type quotesLoadedMsg struct {
	quotes []model.Quotation
	total  int
	err    error
}

type quoteDeletedMsg struct{ err error }

// Model lists the quotations saved from the chat screen.
type Model struct {
	mode        quoteMode
	store       store.Store
	keys        *keys.KeyMap
	quotes      []model.Quotation
	total       int
	selectedIdx int
	search      textinput.Model
	viewport    viewport.Model
	confirmForm *huh.Form
	fb          *formBindings
	err         error
	statusMsg   string
	width       int
	height      int
}

// New creates the saved quotations screen. s may be nil when the local
// database could not be opened.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	si := textinput.New()
	si.Placeholder = "search quotations..."
	si.Prompt = "/ "
	si.Width = width - 4

	vp := viewport.New(width-4, height-6)
	vp.Style = lipgloss.NewStyle()

	return Model{
		mode:     modeList,
		store:    s,
		keys:     k,
		search:   si,
		viewport: vp,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
}

// Load reads quotations from the store, applying the search box.
func (m Model) Load() tea.Cmd {
	st := m.store
	if st == nil {
		return nil
	}
	q := strings.TrimSpace(m.search.Value())
	return func() tea.Msg {
		ctx := context.Background()
		quotes, err := st.GetQuotations(ctx, store.QuotationFilter{Query: &q})
		if err != nil {
			return quotesLoadedMsg{err: err}
		}
		total, err := st.CountQuotations(ctx)
		return quotesLoadedMsg{quotes: quotes, total: total, err: err}
	}
}

// InputFocused reports whether the screen is capturing text input.
func (m Model) InputFocused() bool {
	return m.mode == modeSearch || m.mode == modeConfirmDelete
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case quotesLoadedMsg:
		m.err = msg.err
		m.quotes = msg.quotes
		m.total = msg.total
		m.selectedIdx = ui.Clamp(m.selectedIdx, len(m.quotes))
		return m, nil

	case quoteDeletedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Quotation deleted"
		}
		return m, m.Load()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == modeConfirmDelete {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		switch msg.String() {
		case "enter":
			m.mode = modeList
			m.search.Blur()
			return m, nil
		case "esc":
			m.mode = modeList
			m.search.Reset()
			m.search.Blur()
			return m, m.Load()
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, tea.Batch(cmd, m.Load())

	case modeConfirmDelete:
		return m.updateConfirm(msg)

	case modeView:
		switch {
		case key.Matches(msg, m.keys.Back):
			m.mode = modeList
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			m.copySelected()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if n := len(m.quotes); n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}
	case key.Matches(msg, m.keys.Up):
		if n := len(m.quotes); n > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + n) % n
		}
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.Load()
	case key.Matches(msg, m.keys.Select):
		if q, ok := m.selected(); ok {
			m.mode = modeView
			m.viewport.SetContent(m.renderQuote(q))
			m.viewport.GotoTop()
		}
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	case key.Matches(msg, m.keys.Delete):
		if q, ok := m.selected(); ok {
			m.fb.confirm = false
			m.confirmForm = huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete quotation %q?", q.Title)).
						Affirmative("Yes, delete").
						Negative("Cancel").
						Value(&m.fb.confirm),
				),
			).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
			m.mode = modeConfirmDelete
			return m, m.confirmForm.Init()
		}
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		q, ok := m.selected()
		if !m.fb.confirm || !ok {
			m.mode = modeList
			return m, nil
		}
		st := m.store
		return m, func() tea.Msg {
			return quoteDeletedMsg{err: st.DeleteQuotation(context.Background(), q.ID)}
		}
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) selected() (model.Quotation, bool) {
	if len(m.quotes) == 0 {
		return model.Quotation{}, false
	}
	return m.quotes[ui.Clamp(m.selectedIdx, len(m.quotes))], true
}

func (m *Model) copySelected() {
	q, ok := m.selected()
	if !ok {
		return
	}
	if err := clipboard.WriteAll(q.Body); err != nil {
		m.statusMsg = "Copy failed: " + err.Error()
		return
	}
	m.statusMsg = "Quotation copied to clipboard"
}

func (m Model) renderQuote(q model.Quotation) string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(q.Title))
	b.WriteString("\n")
	b.WriteString(theme.DimmedStyle.Render("Saved " + q.CreatedAt.Local().Format("Jan 2, 2006 15:04")))
	b.WriteString("\n\n")
	if q.Prompt != "" {
		b.WriteString(theme.SectionStyle.Render("Request"))
		b.WriteString("\n")
		b.WriteString(q.Prompt)
		b.WriteString("\n\n")
	}
	b.WriteString(lipgloss.NewStyle().Width(m.width - 8).Render(q.Body))
	return b.String()
}

// View renders the screen.
func (m Model) View() string {
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}
	if m.mode == modeView {
		view := m.viewport.View()
		if m.statusMsg != "" {
			view += "\n" + theme.NoticeStyle.Render(m.statusMsg)
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(view)
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(fmt.Sprintf("Saved Quotations (%d)", m.total)))
	b.WriteString("\n")
	if m.mode == modeSearch || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.store == nil:
		b.WriteString(theme.ErrorStyle.Render("Local quotation storage is unavailable."))
	case m.err != nil:
		b.WriteString(theme.ErrorStyle.Render(ui.ErrorText(m.err)))
	case len(m.quotes) == 0:
		b.WriteString(theme.HelpStyle.Render("No saved quotations. Draft one in chat and press ctrl+s."))
	default:
		start, end := ui.Window(m.selectedIdx, len(m.quotes), m.height-8)
		for i := start; i < end; i++ {
			q := m.quotes[i]
			line := fmt.Sprintf("%-44s %s",
				ui.Truncate(q.Title, 44),
				theme.DimmedStyle.Render(q.CreatedAt.Local().Format("Jan 2, 2006")),
			)
			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.NoticeStyle.Render(m.statusMsg))
	}
	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = width - 4
	m.viewport.Width = width - 4
	m.viewport.Height = height - 6
}
