package chat

import (
	"fmt"
	"testing"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

func textMessage(id int64, senderID, receiverID, content string) models.Message {
	return models.Message{
		ID:       id,
		Sender:   models.User{ID: senderID, Username: "user-" + senderID},
		Receiver: models.User{ID: receiverID, Username: "user-" + receiverID},
		Content:  content,
		Type:     models.TypeText,
	}
}

func TestMessageStore(t *testing.T) {
	t.Run("append preserves arrival order", func(t *testing.T) {
		s := NewMessageStore()
		for i := int64(1); i <= 5; i++ {
			s.Append(textMessage(i, "u1", "u2", fmt.Sprintf("msg %d", i)))
		}

		msgs := s.Messages()
		if len(msgs) != 5 {
			t.Fatalf("expected 5 messages, got %d", len(msgs))
		}
		for i, m := range msgs {
			if m.ID != int64(i+1) {
				t.Errorf("position %d holds id %d", i, m.ID)
			}
		}
	})

	t.Run("append drops duplicates by id", func(t *testing.T) {
		s := NewMessageStore()
		if !s.Append(textMessage(1, "u1", "u2", "first")) {
			t.Fatal("first append rejected")
		}
		if s.Append(textMessage(1, "u1", "u2", "echo")) {
			t.Error("duplicate id accepted")
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 message, got %d", s.Len())
		}
	})

	t.Run("append drops malformed messages", func(t *testing.T) {
		s := NewMessageStore()
		if s.Append(models.Message{ID: 0, Sender: models.User{ID: "u1"}}) {
			t.Error("message without id accepted")
		}
		if s.Append(models.Message{ID: 2}) {
			t.Error("message without sender accepted")
		}
		if s.Len() != 0 {
			t.Errorf("expected empty store, got %d", s.Len())
		}
	})

	t.Run("replace swaps wholesale and filters", func(t *testing.T) {
		s := NewMessageStore()
		s.Append(textMessage(1, "u1", "u2", "stale"))

		s.Replace("c1", []models.Message{
			textMessage(10, "u1", "u2", "a"),
			{ID: 0},
			textMessage(11, "u2", "u1", "b"),
			textMessage(10, "u1", "u2", "dup"),
		})

		msgs := s.Messages()
		if len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(msgs))
		}
		if msgs[0].ID != 10 || msgs[1].ID != 11 {
			t.Errorf("unexpected order: %d, %d", msgs[0].ID, msgs[1].ID)
		}
		if s.ConversationID() != "c1" {
			t.Errorf("conversation id = %q", s.ConversationID())
		}
		if s.Contains(1) {
			t.Error("replaced store still holds old message")
		}
	})

	t.Run("remove drops by id", func(t *testing.T) {
		s := NewMessageStore()
		s.Append(textMessage(1, "u1", "u2", "a"))
		s.Append(textMessage(2, "u1", "u2", "b"))

		if !s.Remove(1) {
			t.Fatal("remove reported missing")
		}
		if s.Remove(1) {
			t.Error("second remove reported present")
		}
		msgs := s.Messages()
		if len(msgs) != 1 || msgs[0].ID != 2 {
			t.Errorf("unexpected remainder: %+v", msgs)
		}
	})

	t.Run("mark all read flags only the receiver's messages", func(t *testing.T) {
		s := NewMessageStore()
		s.Append(textMessage(1, "u1", "u2", "for me"))
		s.Append(textMessage(2, "u2", "u1", "from me"))

		s.MarkAllRead("u2")

		msgs := s.Messages()
		if !msgs[0].IsRead {
			t.Error("inbound message not marked read")
		}
		if msgs[1].IsRead {
			t.Error("outbound message marked read")
		}
	})

	t.Run("messages returns a copy", func(t *testing.T) {
		s := NewMessageStore()
		s.Append(textMessage(1, "u1", "u2", "a"))

		snapshot := s.Messages()
		snapshot[0].Content = "mutated"

		if s.Messages()[0].Content != "a" {
			t.Error("snapshot mutation leaked into store")
		}
	})
}
