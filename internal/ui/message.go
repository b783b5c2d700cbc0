package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chuongle2003/chorus-cli/internal/chat"
	"github.com/chuongle2003/chorus-cli/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionStarted MsgKind = iota
	MsgHistoryOpened
	MsgSessionEvent
	MsgSendDone
	MsgConversationStarted
)

// sessionStartedMsg is the constructor for [MsgSessionStarted]
func sessionStartedMsg(err error) Msg {
	return Msg{kind: MsgSessionStarted, data: err}
}

// historyOpenedMsg is the constructor for [MsgHistoryOpened]
func historyOpenedMsg(conversationID string, err error) Msg {
	return Msg{
		kind: MsgHistoryOpened,
		data: struct {
			conversationID string
			err            error
		}{conversationID, err},
	}
}

// sessionEventMsg is the constructor for [MsgSessionEvent]
func sessionEventMsg(ev chat.Event) Msg {
	return Msg{kind: MsgSessionEvent, data: ev}
}

// sendDoneMsg is the constructor for [MsgSendDone]
func sendDoneMsg(err error) Msg {
	return Msg{kind: MsgSendDone, data: err}
}

// conversationStartedMsg is the constructor for [MsgConversationStarted]
func conversationStartedMsg(conv models.Conversation, err error) Msg {
	return Msg{
		kind: MsgConversationStarted,
		data: struct {
			conv models.Conversation
			err  error
		}{conv, err},
	}
}
