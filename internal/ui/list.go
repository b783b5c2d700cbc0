package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

var (
	_ list.Item = conversationItem{}
	_ list.Item = userItem{}
)

// conversationItem wraps [models.Conversation] to implement [list.Item].
type conversationItem struct {
	conversation models.Conversation
}

func (i conversationItem) FilterValue() string { return i.conversation.Partner.Username }
func (i conversationItem) Title() string {
	title := i.conversation.Partner.Username
	if i.conversation.UnreadCount > 0 {
		title = fmt.Sprintf("%s (%d)", title, i.conversation.UnreadCount)
	}
	return title
}
func (i conversationItem) Description() string {
	if i.conversation.LastMessage == nil {
		return "no messages yet"
	}
	return i.conversation.LastMessage.Preview()
}

// userItem wraps [models.User] to implement [list.Item].
type userItem struct {
	user models.User
}

func (i userItem) FilterValue() string { return i.user.Username }
func (i userItem) Title() string       { return i.user.Username }
func (i userItem) Description() string { return i.user.ID }
