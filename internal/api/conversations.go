package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

// ListConversations retrieves the user's conversation roster.
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var wire []wireConversation
	if err := c.do(ctx, http.MethodGet, "/conversations/", nil, &wire); err != nil {
		return nil, err
	}

	conversations := make([]models.Conversation, 0, len(wire))
	for _, w := range wire {
		conversations = append(conversations, w.toModel())
	}
	return conversations, nil
}

// StartConversation creates (or returns the existing) conversation with the
// given partner. Callers should prefer Session.StartOrReuse, which checks the
// roster cache first.
func (c *Client) StartConversation(ctx context.Context, partnerID string) (models.Conversation, error) {
	body := map[string]string{"user_id": partnerID}

	var wire wireConversation
	if err := c.do(ctx, http.MethodPost, "/conversations/start/", body, &wire); err != nil {
		return models.Conversation{}, fmt.Errorf("failed to start conversation: %w", err)
	}
	if wire.ID == "" {
		return models.Conversation{}, fmt.Errorf("%w: empty conversation in response", shared.ErrAPIRequest)
	}
	return wire.toModel(), nil
}

// MarkRead marks all messages in the conversation as read on the server.
func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/conversations/%s/mark-read/", conversationID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}
