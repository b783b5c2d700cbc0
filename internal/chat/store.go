package chat

import (
	"sync"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

// MessageStore holds the ordered message list of the active conversation.
// Order is arrival order: history loads replace wholesale, live frames
// append at the tail.
type MessageStore struct {
	mu             sync.Mutex
	conversationID string
	messages       []models.Message
	index          map[int64]struct{}
}

func NewMessageStore() *MessageStore {
	return &MessageStore{index: make(map[int64]struct{})}
}

// Replace swaps the entire list, typically after a history fetch.
// Malformed entries are filtered rather than stored.
func (s *MessageStore) Replace(conversationID string, msgs []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversationID = conversationID
	s.messages = s.messages[:0]
	s.index = make(map[int64]struct{}, len(msgs))
	for _, m := range msgs {
		if !m.Valid() {
			continue
		}
		if _, dup := s.index[m.ID]; dup {
			continue
		}
		s.messages = append(s.messages, m)
		s.index[m.ID] = struct{}{}
	}
}

// Append adds one message at the tail. Duplicates by id and malformed
// messages are ignored. Reports whether the message was stored.
func (s *MessageStore) Append(m models.Message) bool {
	if !m.Valid() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.index[m.ID]; dup {
		return false
	}
	s.messages = append(s.messages, m)
	s.index[m.ID] = struct{}{}
	return true
}

// Remove drops a message by id. Reports whether it was present.
func (s *MessageStore) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	return true
}

// MarkAllRead flags every message addressed to userID as read.
func (s *MessageStore) MarkAllRead(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].Receiver.ID == userID {
			s.messages[i].IsRead = true
		}
	}
}

// Contains reports whether a message id is stored.
func (s *MessageStore) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// ConversationID returns the conversation the store currently holds.
func (s *MessageStore) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Messages returns a snapshot of the list in arrival order.
func (s *MessageStore) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the stored message count.
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
