package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

// ConversationRepository caches roster entries in SQLite.
type ConversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new [ConversationRepository] with the given database connection
func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Upsert inserts or refreshes one roster entry, keyed by partner.
func (r *ConversationRepository) Upsert(conv models.Conversation) error {
	if conv.ID == "" || conv.Partner.ID == "" {
		return fmt.Errorf("conversation missing id or partner")
	}

	var (
		lastID      sql.NullInt64
		lastPreview sql.NullString
		lastAt      sql.NullTime
	)
	if conv.LastMessage != nil {
		lastID = sql.NullInt64{Int64: conv.LastMessage.ID, Valid: true}
		lastPreview = sql.NullString{String: conv.LastMessage.Preview(), Valid: true}
		lastAt = sql.NullTime{Time: conv.LastMessage.Timestamp, Valid: true}
	}

	query := `
		INSERT INTO conversations (id, partner_id, partner_username, partner_avatar, last_message_id, last_message_preview, last_message_at, unread_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (partner_id) DO UPDATE SET
			id = excluded.id,
			partner_username = excluded.partner_username,
			partner_avatar = excluded.partner_avatar,
			last_message_id = excluded.last_message_id,
			last_message_preview = excluded.last_message_preview,
			last_message_at = excluded.last_message_at,
			unread_count = excluded.unread_count,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query,
		conv.ID, conv.Partner.ID, conv.Partner.Username, conv.Partner.Avatar,
		lastID, lastPreview, lastAt, conv.UnreadCount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	return nil
}

// List returns cached conversations, most recent activity first.
func (r *ConversationRepository) List() ([]models.Conversation, error) {
	query := `
		SELECT id, partner_id, partner_username, partner_avatar, last_message_id, last_message_preview, last_message_at, unread_count
		FROM conversations
		ORDER BY last_message_at DESC NULLS LAST, updated_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var (
			conv        models.Conversation
			avatar      sql.NullString
			lastID      sql.NullInt64
			lastPreview sql.NullString
			lastAt      sql.NullTime
		)

		err := rows.Scan(&conv.ID, &conv.Partner.ID, &conv.Partner.Username, &avatar, &lastID, &lastPreview, &lastAt, &conv.UnreadCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}

		conv.Partner.Avatar = avatar.String
		if lastID.Valid {
			conv.LastMessage = &models.Message{
				ID:             lastID.Int64,
				ConversationID: conv.ID,
				Content:        lastPreview.String,
				Type:           models.TypeText,
				Timestamp:      lastAt.Time,
			}
		}

		convs = append(convs, conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return convs, nil
}

// ResetUnread zeroes the cached unread counter of one conversation.
func (r *ConversationRepository) ResetUnread(conversationID string) error {
	_, err := r.db.Exec(`UPDATE conversations SET unread_count = 0, updated_at = ? WHERE id = ?`, time.Now(), conversationID)
	if err != nil {
		return fmt.Errorf("failed to reset unread count: %w", err)
	}
	return nil
}

// Delete removes one conversation and its cached messages.
func (r *ConversationRepository) Delete(conversationID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete cached messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE id = ?`, conversationID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	return tx.Commit()
}

// Clear empties the whole cache.
func (r *ConversationRepository) Clear() error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM messages`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM conversations`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear conversations: %w", err)
	}

	return tx.Commit()
}
