package chat

import (
	"context"
	"sort"
	"sync"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

// RosterCache is the in-memory conversation list, ordered by recency:
// whichever conversation saw the latest message sits at the front.
type RosterCache struct {
	mu            sync.Mutex
	conversations []models.Conversation
}

func NewRosterCache() *RosterCache {
	return &RosterCache{}
}

// ReplaceAll swaps the whole roster, typically after a REST refresh.
// Entries are re-sorted by recency; server order is not trusted.
func (r *RosterCache) ReplaceAll(convs []models.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations = append(r.conversations[:0], convs...)
	sort.SliceStable(r.conversations, func(i, j int) bool {
		return r.conversations[i].LastActivity().After(r.conversations[j].LastActivity())
	})
}

// Conversations returns a snapshot in display order.
func (r *RosterCache) Conversations() []models.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Conversation, len(r.conversations))
	copy(out, r.conversations)
	return out
}

// Get returns a conversation by id.
func (r *RosterCache) Get(conversationID string) (models.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.ID == conversationID {
			return c, true
		}
	}
	return models.Conversation{}, false
}

// UpsertFromMessage folds one inbound message into the roster. The entry
// whose partner matches the message's counterpart gets its last message
// updated and moves to the front; a missing entry is synthesized. The
// unread count grows only when the current user is the receiver and the
// conversation is not the active one. Returns the updated entry.
func (r *RosterCache) UpsertFromMessage(m models.Message, currentUserID, activeConversationID string) models.Conversation {
	partner := models.PartnerOf(m, currentUserID)

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, c := range r.conversations {
		if c.Partner.ID == partner.ID {
			idx = i
			break
		}
	}

	var entry models.Conversation
	if idx >= 0 {
		entry = r.conversations[idx]
		r.conversations = append(r.conversations[:idx], r.conversations[idx+1:]...)
	} else {
		entry = models.Conversation{
			ID:      m.ConversationID,
			Partner: partner,
		}
	}
	if entry.ID == "" {
		entry.ID = m.ConversationID
	}

	last := m
	entry.LastMessage = &last
	if m.Receiver.ID == currentUserID && entry.ID != activeConversationID {
		entry.UnreadCount++
	}

	r.conversations = append([]models.Conversation{entry}, r.conversations...)
	return entry
}

// StartOrReuse returns the existing conversation for a partner, or calls
// create to open one and inserts the result at the front. The partner is
// re-checked before the insert, so two concurrent calls for the same
// partner cannot both insert.
func (r *RosterCache) StartOrReuse(ctx context.Context, partnerID string, create func(context.Context, string) (models.Conversation, error)) (models.Conversation, error) {
	r.mu.Lock()
	for _, c := range r.conversations {
		if c.Partner.ID == partnerID {
			r.mu.Unlock()
			return c, nil
		}
	}
	r.mu.Unlock()

	conv, err := create(ctx, partnerID)
	if err != nil {
		return models.Conversation{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.Partner.ID == partnerID {
			// the server answered a concurrent start first
			return c, nil
		}
	}
	r.conversations = append([]models.Conversation{conv}, r.conversations...)
	return conv, nil
}

// ResetUnread zeroes the unread counter on one conversation.
func (r *RosterCache) ResetUnread(conversationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.conversations {
		if r.conversations[i].ID == conversationID {
			r.conversations[i].UnreadCount = 0
			return
		}
	}
}

// TotalUnread sums unread counters across the roster.
func (r *RosterCache) TotalUnread() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, c := range r.conversations {
		total += c.UnreadCount
	}
	return total
}
