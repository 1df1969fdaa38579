package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/degreedialog/dialog-go/internal/api"
	"github.com/degreedialog/dialog-go/internal/chat"
)

// chatTheme holds the color scheme for the chat display.
type chatTheme struct {
	Title     lipgloss.Color
	User      lipgloss.Color
	Assistant lipgloss.Color
	Timestamp lipgloss.Color
	Hint      lipgloss.Color
	Error     lipgloss.Color
	Selected  lipgloss.Color
}

var defaultChatTheme = chatTheme{
	Title:     lipgloss.Color("#5FAFD7"), // light blue
	User:      lipgloss.Color("#89B4FA"), // blue
	Assistant: lipgloss.Color("#CDD6F4"), // near white
	Timestamp: lipgloss.Color("#6C6C6C"), // dim gray
	Hint:      lipgloss.Color("#6C6C6C"),
	Error:     lipgloss.Color("#FF005F"), // red
	Selected:  lipgloss.Color("#00D787"), // green
}

func (t chatTheme) titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Title).Bold(true)
}

func (t chatTheme) userStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.User).Bold(true)
}

func (t chatTheme) assistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Assistant)
}

func (t chatTheme) timestampStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Timestamp)
}

func (t chatTheme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t chatTheme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t chatTheme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Selected).Bold(true)
}

// uiMode selects between the transcript and the session picker overlay.
type uiMode int

const (
	modeChat uiMode = iota
	modePicker
)

const typingTickInterval = 300 * time.Millisecond

// typingTickMsg advances the typing indicator animation.
type typingTickMsg time.Time

// historyLoadedMsg carries a finished history fetch, keyed by generation.
type historyLoadedMsg struct {
	gen  int
	msgs []chat.Message
	err  error
}

// sendResultMsg carries the outcome of a send round-trip.
type sendResultMsg struct {
	resp *api.ChatResponse
	err  error
}

// sessionsLoadedMsg carries a refreshed session list for the picker.
type sessionsLoadedMsg struct {
	summaries []chat.SessionSummary
	err       error
}

// chatModel is the bubbletea model for the interactive chat.
type chatModel struct {
	conv  *chat.Conversation
	list  *chat.SessionList
	recon *chat.Reconciler

	input  textinput.Model
	theme  chatTheme
	mode   uiMode
	cursor int
	width  int

	loading     bool
	typingFrame int

	// initialSession resumes an existing session on startup.
	initialSession string

	notice   string
	fatalErr error
}

// newChatModel wires the controllers into a fresh model, optionally
// resuming an existing session.
func newChatModel(conv *chat.Conversation, list *chat.SessionList, recon *chat.Reconciler, sessionID string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 2000

	return chatModel{
		conv:           conv,
		list:           list,
		recon:          recon,
		input:          ti,
		theme:          defaultChatTheme,
		initialSession: sessionID,
		width:          80,
	}
}

// Init focuses the composer and starts the initial history load, if any.
func (m chatModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.input.Focus()}
	if m.initialSession != "" {
		gen, ok := m.conv.LoadBegin(m.initialSession)
		if ok {
			cmds = append(cmds, m.loadHistoryCmd(gen, m.initialSession))
		}
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model.
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyPressMsg:
		if m.mode == modePicker {
			return m.updatePicker(msg)
		}
		return m.updateChat(msg)

	case typingTickMsg:
		if !m.conv.Sending() {
			return m, nil
		}
		m.typingFrame++
		return m, typingTickCmd()

	case historyLoadedMsg:
		m.conv.LoadComplete(msg.gen, msg.msgs, msg.err)
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.deauthenticate()
		}
		return m, nil

	case sendResultMsg:
		m.conv.SendComplete(msg.resp, msg.err)
		if errors.Is(msg.err, api.ErrUnauthorized) {
			return m.deauthenticate()
		}
		return m, nil

	case sessionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				return m.deauthenticate()
			}
			m.notice = "Could not load sessions."
			return m, nil
		}
		m.list.Replace(msg.summaries)
		if m.cursor >= len(msg.summaries) {
			m.cursor = 0
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateChat handles keys in transcript mode.
func (m chatModel) updateChat(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "ctrl+n":
		m.conv.LoadBegin("")
		m.notice = ""
		return m, nil

	case "ctrl+p":
		m.mode = modePicker
		m.cursor = 0
		if m.list.Stale() {
			m.loading = true
			return m, m.loadSessionsCmd()
		}
		return m, nil

	case "enter":
		text := m.input.Value()
		sessionID, ok := m.conv.SendBegin(text)
		if !ok {
			return m, nil
		}
		// The input clears together with the optimistic append, before
		// the network resolves.
		m.input.Reset()
		m.notice = ""
		m.typingFrame = 0
		return m, tea.Batch(m.sendCmd(text, sessionID), typingTickCmd())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updatePicker handles keys in the session picker overlay.
func (m chatModel) updatePicker(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	sessions := m.list.Sessions()

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc", "ctrl+p":
		m.mode = modeChat
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(sessions)-1 {
			m.cursor++
		}
		return m, nil

	case "enter":
		m.mode = modeChat
		if m.cursor >= len(sessions) {
			return m, nil
		}
		gen, ok := m.conv.LoadBegin(sessions[m.cursor].ID)
		if !ok {
			return m, nil
		}
		return m, m.loadHistoryCmd(gen, sessions[m.cursor].ID)
	}

	return m, nil
}

// deauthenticate clears stored credentials and ends the session. This is
// the TUI's half of the single de-auth coordinator.
func (m chatModel) deauthenticate() (tea.Model, tea.Cmd) {
	m.fatalErr = checkAuthErr(api.ErrUnauthorized)
	return m, tea.Quit
}

// View renders the chat or the picker.
func (m chatModel) View() tea.View {
	if m.mode == modePicker {
		return tea.NewView(m.renderPicker())
	}
	return tea.NewView(m.renderChat())
}

func (m chatModel) renderChat() string {
	var b strings.Builder

	b.WriteString(m.theme.titleStyle().Render("Degree Dialog"))
	if id := m.conv.SessionID(); id != "" {
		b.WriteString(m.theme.timestampStyle().Render("  session " + id))
	} else {
		b.WriteString(m.theme.timestampStyle().Render("  new conversation"))
	}
	b.WriteString("\n\n")

	switch {
	case m.conv.LoadingHistory():
		b.WriteString(m.theme.hintStyle().Render("Loading conversation...") + "\n")
	case len(m.conv.Messages()) == 0:
		b.WriteString(m.theme.hintStyle().Render("Ask anything about admissions, scholarships, or campus life.") + "\n")
	default:
		for _, msg := range m.conv.Messages() {
			b.WriteString(m.renderMessage(msg))
		}
	}

	if m.conv.Sending() {
		dots := strings.Repeat(".", m.typingFrame%4)
		b.WriteString(m.theme.hintStyle().Render("Advisor is typing"+dots) + "\n")
	}
	if m.notice != "" {
		b.WriteString(m.theme.errorStyle().Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.input.View() + "\n")
	b.WriteString(m.theme.hintStyle().Render("enter send · ctrl+n new chat · ctrl+p sessions · esc quit"))
	return b.String()
}

func (m chatModel) renderMessage(msg chat.Message) string {
	var label lipgloss.Style
	if msg.Role == chat.RoleUser {
		label = m.theme.userStyle()
	} else {
		label = m.theme.assistantStyle().Bold(true)
	}
	return fmt.Sprintf("%s %s\n%s\n\n",
		label.Render(msg.Role.DisplayName()),
		m.theme.timestampStyle().Render(msg.Timestamp.Local().Format("3:04 PM")),
		m.theme.assistantStyle().Render(msg.Content),
	)
}

func (m chatModel) renderPicker() string {
	var b strings.Builder

	b.WriteString(m.theme.titleStyle().Render("Conversations") + "\n\n")

	sessions := m.list.Sessions()
	switch {
	case m.loading:
		b.WriteString(m.theme.hintStyle().Render("Loading sessions...") + "\n")
	case len(sessions) == 0:
		b.WriteString(m.theme.hintStyle().Render("No chat history yet.") + "\n")
	default:
		now := time.Now()
		for i, s := range sessions {
			line := fmt.Sprintf("%-9s  %s", formatSessionDate(s.CreatedAt, now), s.Preview)
			if i == m.cursor {
				b.WriteString(m.theme.selectedStyle().Render("> "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
	}

	b.WriteString("\n" + m.theme.hintStyle().Render("enter open · esc back"))
	return b.String()
}

// sendCmd performs the network half of a send off the event loop.
func (m chatModel) sendCmd(text, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		resp, err := client.SendMessage(ctx, text, sessionID)
		return sendResultMsg{resp: resp, err: err}
	}
}

// loadHistoryCmd fetches and extracts one session's history off the event
// loop. The generation travels with the result so stale loads are dropped.
func (m chatModel) loadHistoryCmd(gen int, sessionID string) tea.Cmd {
	recon := m.recon
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		raw, err := recon.FetchHistory(ctx)
		if err != nil {
			return historyLoadedMsg{gen: gen, err: err}
		}
		return historyLoadedMsg{gen: gen, msgs: chat.ExtractSession(raw, sessionID)}
	}
}

// typingTickCmd drives the typing indicator while a send is in flight.
func typingTickCmd() tea.Cmd {
	return tea.Tick(typingTickInterval, func(t time.Time) tea.Msg {
		return typingTickMsg(t)
	})
}

// loadSessionsCmd fetches history and builds picker rows off the event loop.
func (m chatModel) loadSessionsCmd() tea.Cmd {
	recon := m.recon
	previewLen := cfg.PreviewLength
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		raw, err := recon.FetchHistory(ctx)
		if err != nil {
			return sessionsLoadedMsg{err: err}
		}
		return sessionsLoadedMsg{summaries: chat.BuildSummaries(raw, previewLen)}
	}
}

// runChatTUI runs the interactive chat until the user quits or the session
// is de-authenticated.
func runChatTUI(sessionID string) error {
	conv, list, recon := newControllers()

	model := newChatModel(conv, list, recon, sessionID)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}

	if m, ok := finalModel.(chatModel); ok && m.fatalErr != nil {
		return m.fatalErr
	}
	return nil
}
