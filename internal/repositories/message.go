package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

// defaultKeep is how many messages Prune retains per conversation.
const defaultKeep = 200

// MessageRepository caches message history in SQLite.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new [MessageRepository] with the given database connection
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Upsert inserts or refreshes one message.
func (r *MessageRepository) Upsert(msg models.Message) error {
	if !msg.Valid() {
		return fmt.Errorf("refusing to cache malformed message %d", msg.ID)
	}
	if msg.ConversationID == "" {
		return fmt.Errorf("message %d has no conversation", msg.ID)
	}

	var attachment sql.NullString
	if msg.Attachment != nil {
		raw, err := json.Marshal(msg.Attachment)
		if err != nil {
			return fmt.Errorf("failed to encode attachment: %w", err)
		}
		attachment = sql.NullString{String: string(raw), Valid: true}
	}

	query := `
		INSERT INTO messages (id, conversation_id, sender_id, sender_username, receiver_id, receiver_username, content, message_type, attachment_json, sent_at, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			content = excluded.content,
			attachment_json = excluded.attachment_json,
			is_read = excluded.is_read
	`

	_, err := r.db.Exec(query,
		msg.ID, msg.ConversationID,
		msg.Sender.ID, msg.Sender.Username,
		msg.Receiver.ID, msg.Receiver.Username,
		msg.Content, string(msg.Type), attachment, msg.Timestamp, msg.IsRead)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}

	return nil
}

// ListByConversation returns cached messages oldest first.
func (r *MessageRepository) ListByConversation(conversationID string) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, sender_username, receiver_id, receiver_username, content, message_type, attachment_json, sent_at, is_read
		FROM messages
		WHERE conversation_id = ?
		ORDER BY sent_at ASC, id ASC
	`

	rows, err := r.db.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var (
			msg        models.Message
			rawType    string
			attachment sql.NullString
		)

		err := rows.Scan(&msg.ID, &msg.ConversationID,
			&msg.Sender.ID, &msg.Sender.Username,
			&msg.Receiver.ID, &msg.Receiver.Username,
			&msg.Content, &rawType, &attachment, &msg.Timestamp, &msg.IsRead)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Type = models.ParseMessageType(rawType)
		if attachment.Valid {
			var att models.Attachment
			if err := json.Unmarshal([]byte(attachment.String), &att); err == nil {
				msg.Attachment = &att
			}
		}

		msgs = append(msgs, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return msgs, nil
}

// Delete drops one cached message.
func (r *MessageRepository) Delete(messageID int64) error {
	if _, err := r.db.Exec(`DELETE FROM messages WHERE id = ?`, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// MarkAllRead flags cached messages addressed to userID as read.
func (r *MessageRepository) MarkAllRead(conversationID, userID string) error {
	_, err := r.db.Exec(`UPDATE messages SET is_read = 1 WHERE conversation_id = ? AND receiver_id = ?`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// Prune keeps only the newest keep messages of a conversation. A keep
// of zero or less falls back to the default.
func (r *MessageRepository) Prune(conversationID string, keep int) error {
	if keep <= 0 {
		keep = defaultKeep
	}

	query := `
		DELETE FROM messages
		WHERE conversation_id = ? AND id NOT IN (
			SELECT id FROM messages
			WHERE conversation_id = ?
			ORDER BY sent_at DESC, id DESC
			LIMIT ?
		)
	`

	if _, err := r.db.Exec(query, conversationID, conversationID, keep); err != nil {
		return fmt.Errorf("failed to prune messages: %w", err)
	}
	return nil
}
