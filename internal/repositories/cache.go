package repositories

import (
	"database/sql"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

// Cache bundles both repositories behind the write-through surface the
// chat session expects.
type Cache struct {
	Conversations *ConversationRepository
	Messages      *MessageRepository
}

// NewCache creates a cache over an open database.
func NewCache(db *sql.DB) *Cache {
	return &Cache{
		Conversations: NewConversationRepository(db),
		Messages:      NewMessageRepository(db),
	}
}

// SaveConversation writes one roster entry through to SQLite.
func (c *Cache) SaveConversation(conv models.Conversation) error {
	return c.Conversations.Upsert(conv)
}

// SaveMessage writes one message through to SQLite and trims the
// conversation back down to the retention cap. Messages without a
// conversation id (e.g. from the cross-user history endpoint) are
// skipped silently.
func (c *Cache) SaveMessage(msg models.Message) error {
	if msg.ConversationID == "" {
		return nil
	}
	if err := c.Messages.Upsert(msg); err != nil {
		return err
	}
	return c.Messages.Prune(msg.ConversationID, defaultKeep)
}

// ResetUnread zeroes the cached unread counter.
func (c *Cache) ResetUnread(conversationID string) error {
	return c.Conversations.ResetUnread(conversationID)
}
