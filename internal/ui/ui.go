package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chuongle2003/chorus-cli/internal/chat"
	"github.com/chuongle2003/chorus-cli/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RosterView ViewState = iota
	ConversationView
	SearchView
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	session *chat.Session
	view    ViewState
	width   int
	height  int

	rosterList  list.Model
	rosterReady bool
	searchList  list.Model
	searchReady bool
	compose     textinput.Model
	searchInput textinput.Model

	active  models.Conversation
	status  string
	notice  string
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model around a started chat session.
func NewModel(ctx context.Context, session *chat.Session) *Model {
	compose := textinput.New()
	compose.Placeholder = "type a message"
	compose.CharLimit = 2000

	search := textinput.New()
	search.Placeholder = "search users (3+ characters)"
	search.CharLimit = 100

	return &Model{
		ctx:         ctx,
		session:     session,
		view:        RosterView,
		compose:     compose,
		searchInput: search,
		status:      chat.StateDisconnected.String(),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the session and begins pumping its events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startSession(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.rosterReady {
			m.rosterList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.searchReady {
			m.searchList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RosterView:
			return m.handleRosterKeys(msg)
		case ConversationView:
			return m.handleConversationKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		}

	case Msg:
		return m.handleAppMsg(msg)
	}

	return m.updateFocused(msg)
}

func (m *Model) handleAppMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionStarted:
		if err, ok := msg.data.(error); ok && err != nil {
			m.err = err
			return m, tea.Quit
		}
		m.refreshRosterList()
		return m, nil

	case MsgHistoryOpened:
		data := msg.data.(struct {
			conversationID string
			err            error
		})
		if data.err != nil {
			m.notice = fmt.Sprintf("failed to load history: %v", data.err)
			return m, nil
		}
		return m, m.markRead()

	case MsgSessionEvent:
		ev := msg.data.(chat.Event)
		m.applyEvent(ev)
		return m, m.waitForEvent()

	case MsgSendDone:
		if err, ok := msg.data.(error); ok && err != nil {
			m.notice = fmt.Sprintf("send failed: %v", err)
		}
		return m, nil

	case MsgConversationStarted:
		data := msg.data.(struct {
			conv models.Conversation
			err  error
		})
		if data.err != nil {
			m.notice = fmt.Sprintf("could not start conversation: %v", data.err)
			return m, nil
		}
		return m, m.openConversation(data.conv)
	}

	return m, nil
}

func (m *Model) applyEvent(ev chat.Event) {
	switch ev.Kind {
	case chat.EventRosterUpdated:
		m.refreshRosterList()
	case chat.EventHistoryLoaded, chat.EventMessageReceived, chat.EventMessageDeleted:
		// the conversation renders straight from the store snapshot
	case chat.EventSearchResults:
		m.refreshSearchList(ev.Users)
	case chat.EventConnState:
		m.status = ev.State.String()
	case chat.EventNotice:
		m.notice = ev.Text
	case chat.EventServerError:
		m.notice = fmt.Sprintf("server: %s", ev.Text)
	case chat.EventTerminal:
		m.notice = fmt.Sprintf("disconnected for good (%d): %s", ev.Code, ev.Text)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case RosterView:
		return m.renderRoster()
	case ConversationView:
		return m.renderConversation()
	case SearchView:
		return m.renderSearch()
	default:
		return ""
	}
}

func (m *Model) handleRosterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.session.Stop()
		return m, tea.Quit
	case "/":
		m.view = SearchView
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		return m, textinput.Blink
	case "enter":
		if !m.rosterReady {
			return m, nil
		}
		if item, ok := m.rosterList.SelectedItem().(conversationItem); ok {
			return m, m.openConversation(item.conversation)
		}
	}

	var cmd tea.Cmd
	if m.rosterReady {
		m.rosterList, cmd = m.rosterList.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleConversationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Stop()
		return m, tea.Quit
	case "esc":
		m.view = RosterView
		m.compose.Blur()
		return m, nil
	case "ctrl+d":
		return m, m.deleteLastOwnMessage()
	case "enter":
		content := strings.TrimSpace(m.compose.Value())
		if content == "" {
			return m, nil
		}
		m.compose.SetValue("")
		return m, m.sendText(content)
	}

	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Stop()
		return m, tea.Quit
	case "esc":
		m.view = RosterView
		m.searchInput.Blur()
		return m, nil
	case "enter":
		if m.searchReady {
			if item, ok := m.searchList.SelectedItem().(userItem); ok {
				return m, m.startConversation(item.user.ID)
			}
		}
		return m, nil
	case "up", "down":
		var cmd tea.Cmd
		if m.searchReady {
			m.searchList, cmd = m.searchList.Update(msg)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.session.Search(m.ctx, m.searchInput.Value())
	return m, cmd
}

func (m *Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case RosterView:
		if m.rosterReady {
			m.rosterList, cmd = m.rosterList.Update(msg)
		}
	case ConversationView:
		m.compose, cmd = m.compose.Update(msg)
	case SearchView:
		m.searchInput, cmd = m.searchInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) startSession() tea.Cmd {
	return func() tea.Msg {
		return sessionStartedMsg(m.session.Start(m.ctx))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return sessionEventMsg(<-m.session.Events())
	}
}

func (m *Model) openConversation(conv models.Conversation) tea.Cmd {
	m.active = conv
	m.view = ConversationView
	m.compose.Focus()
	return tea.Batch(textinput.Blink, func() tea.Msg {
		return historyOpenedMsg(conv.ID, m.session.Open(m.ctx, conv.ID))
	})
}

func (m *Model) sendText(content string) tea.Cmd {
	return func() tea.Msg {
		return sendDoneMsg(m.session.SendText(m.ctx, content))
	}
}

// deleteLastOwnMessage removes the newest message the current user sent
// in the open conversation.
func (m *Model) deleteLastOwnMessage() tea.Cmd {
	me := m.session.CurrentUser().ID
	msgs := m.session.Store().Messages()
	var target int64
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Sender.ID == me {
			target = msgs[i].ID
			break
		}
	}
	if target == 0 {
		return nil
	}
	return func() tea.Msg {
		return sendDoneMsg(m.session.DeleteMessage(m.ctx, target))
	}
}

func (m *Model) startConversation(partnerID string) tea.Cmd {
	return func() tea.Msg {
		conv, err := m.session.StartConversation(m.ctx, partnerID)
		return conversationStartedMsg(conv, err)
	}
}

func (m *Model) markRead() tea.Cmd {
	return func() tea.Msg {
		if err := m.session.MarkRead(m.ctx); err != nil {
			return sendDoneMsg(err)
		}
		return nil
	}
}

func (m *Model) refreshRosterList() {
	convs := m.session.Roster().Conversations()
	items := make([]list.Item, len(convs))
	for i, conv := range convs {
		items[i] = conversationItem{conversation: conv}
	}
	if !m.rosterReady {
		m.rosterList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.rosterList.Title = "Conversations"
		m.rosterList.SetSize(m.width-4, m.height-8)
		m.rosterReady = true
		return
	}
	m.rosterList.SetItems(items)
}

func (m *Model) refreshSearchList(users []models.User) {
	items := make([]list.Item, len(users))
	for i, user := range users {
		items[i] = userItem{user: user}
	}
	if !m.searchReady {
		m.searchList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.searchList.Title = "Users"
		m.searchList.SetSize(m.width-4, m.height-8)
		m.searchReady = true
		return
	}
	m.searchList.SetItems(items)
}

func (m *Model) renderRoster() string {
	header := m.renderHeader("Chorus Chat")
	if total := m.session.Roster().TotalUnread(); total > 0 {
		header += "\n" + styles.unread.Render(fmt.Sprintf("%d unread", total))
	}
	body := styles.help.Render("no conversations yet, press / to find someone")
	if m.rosterReady {
		body = m.rosterList.View()
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.search, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", header, body, helpView)
}

func (m *Model) renderConversation() string {
	header := m.renderHeader(m.active.Partner.Username)

	var lines []string
	me := m.session.CurrentUser().ID
	msgs := m.session.Store().Messages()
	start := 0
	if max := m.height - 10; max > 0 && len(msgs) > max {
		start = len(msgs) - max
	}
	for _, msg := range msgs[start:] {
		name := styles.them.Render(msg.Sender.Username)
		if msg.Sender.ID == me {
			name = styles.me.Render("me")
		}
		lines = append(lines, fmt.Sprintf("%s  %s", name, msg.Preview()))
	}
	if len(lines) == 0 {
		lines = append(lines, styles.help.Render("no messages yet"))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.delete, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n%s", header, strings.Join(lines, "\n"), m.compose.View(), helpView)
}

func (m *Model) renderSearch() string {
	header := m.renderHeader("Find People")
	body := styles.help.Render("keep typing, results appear after a pause")
	if m.searchReady && len(m.searchList.Items()) > 0 {
		body = m.searchList.View()
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n%s", header, m.searchInput.View(), body, helpView)
}

func (m *Model) renderHeader(title string) string {
	status := styles.warn.Render(m.status)
	if m.status == chat.StateConnected.String() {
		status = styles.ok.Render(m.status)
	}
	line := fmt.Sprintf("%s  [%s]", styles.title.Render(title), status)
	if m.notice != "" {
		line += "\n" + styles.warn.Render(m.notice)
	}
	return line
}
