package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// ConversationMessages retrieves the full message history of a conversation.
// All three backend response shapes are tolerated (see normalizeMessageList).
func (c *Client) ConversationMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	path := fmt.Sprintf("/conversations/%s/messages/", conversationID)

	resp, raw, err := c.authedGet(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrConversationNotFound, conversationID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	msgs := normalizeMessageList(raw, c.logger)
	for i := range msgs {
		msgs[i].ConversationID = conversationID
	}
	return msgs, nil
}

// MessageHistory retrieves the message history between two users.
func (c *Client) MessageHistory(ctx context.Context, user1, user2 string) ([]models.Message, error) {
	query := url.Values{"user1": {user1}, "user2": {user2}}
	path := "/messages/history/?" + query.Encode()

	resp, raw, err := c.authedGet(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return normalizeMessageList(raw, c.logger), nil
}

// authedGet is a GET that keeps the raw body so history endpoints can apply
// shape normalization instead of strict decoding. It still refreshes once on 401.
func (c *Client) authedGet(ctx context.Context, path string) (*http.Response, []byte, error) {
	resp, raw, err := c.roundTrip(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.Refresh(ctx); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
		}
		if resp, raw, err = c.roundTrip(ctx, http.MethodGet, path, nil); err != nil {
			return nil, nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, nil, c.forceLogout()
		}
	}

	return resp, raw, nil
}

// CreateMessageInput holds the fields for POST /messages/create/.
// Exactly one payload field may be set for non-TEXT types.
type CreateMessageInput struct {
	ReceiverID string             `json:"receiver_id"`
	Content    string             `json:"content"`
	Type       models.MessageType `json:"message_type"`
	SongID     string             `json:"song_id,omitempty"`
	PlaylistID string             `json:"playlist_id,omitempty"`
	Image      string             `json:"image,omitempty"`
	Attachment string             `json:"attachment,omitempty"`
	VoiceNote  string             `json:"voice_note,omitempty"`
}

// CreateMessage sends a message over REST. The realtime path (Session.Send*)
// is preferred while a socket is bound; this endpoint backs media messages
// and offline sends.
func (c *Client) CreateMessage(ctx context.Context, input CreateMessageInput) (models.Message, error) {
	if input.ReceiverID == "" {
		return models.Message{}, fmt.Errorf("%w: receiver_id is required", shared.ErrInvalidInput)
	}
	if input.Type == "" {
		input.Type = models.TypeText
	}

	var wire wireMessage
	if err := c.do(ctx, http.MethodPost, "/messages/create/", input, &wire); err != nil {
		return models.Message{}, fmt.Errorf("failed to create message: %w", err)
	}

	msg := wire.toModel()
	if !msg.Valid() {
		return models.Message{}, fmt.Errorf("%w: malformed message in response", shared.ErrAPIRequest)
	}
	return msg, nil
}

// DeleteMessage deletes a message by id. Irreversible; the UI confirms first.
func (c *Client) DeleteMessage(ctx context.Context, messageID int64) error {
	path := fmt.Sprintf("/messages/%d/", messageID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
