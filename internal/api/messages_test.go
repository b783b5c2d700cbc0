package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/chuongle2003/chorus-cli/internal/models"
	"github.com/chuongle2003/chorus-cli/internal/shared"
)

const sampleMessage = `{
	"id": 7,
	"sender": {"id": "u1", "username": "ana"},
	"receiver": {"id": "u2", "username": "ben"},
	"content": "hi",
	"message_type": "TEXT",
	"timestamp": "2025-06-01T12:00:00Z",
	"is_read": false
}`

func messagesServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestConversationMessages(t *testing.T) {
	t.Run("Bare Array Shape", func(t *testing.T) {
		server := messagesServer(t, "["+sampleMessage+"]")
		defer server.Close()

		c := newTestClient(t, server.URL)
		msgs, err := c.ConversationMessages(context.Background(), "42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 1 || msgs[0].ID != 7 {
			t.Errorf("unexpected messages: %+v", msgs)
		}
	})

	t.Run("Messages Wrapper Shape", func(t *testing.T) {
		server := messagesServer(t, `{"messages": [`+sampleMessage+`]}`)
		defer server.Close()

		c := newTestClient(t, server.URL)
		msgs, err := c.ConversationMessages(context.Background(), "42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 1 {
			t.Errorf("expected 1 message, got %d", len(msgs))
		}
	})

	t.Run("Data Wrapper Shape", func(t *testing.T) {
		server := messagesServer(t, `{"data": [`+sampleMessage+`]}`)
		defer server.Close()

		c := newTestClient(t, server.URL)
		msgs, err := c.ConversationMessages(context.Background(), "42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 1 {
			t.Errorf("expected 1 message, got %d", len(msgs))
		}
	})

	t.Run("Unknown Shape Resolves Empty", func(t *testing.T) {
		server := messagesServer(t, `{"results": 3}`)
		defer server.Close()

		c := newTestClient(t, server.URL)
		msgs, err := c.ConversationMessages(context.Background(), "42")
		if err != nil {
			t.Fatalf("unknown shapes must not error: %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("expected empty list, got %d", len(msgs))
		}
	})

	t.Run("Malformed Entries Are Filtered", func(t *testing.T) {
		body := `[` + sampleMessage + `, {"id": 0, "content": "no sender or id"}, {"content": "nothing"}]`
		server := messagesServer(t, body)
		defer server.Close()

		c := newTestClient(t, server.URL)
		msgs, err := c.ConversationMessages(context.Background(), "42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(msgs) != 1 {
			t.Errorf("expected malformed entries to be dropped, got %d", len(msgs))
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		_, err := c.ConversationMessages(context.Background(), "nope")
		if !errors.Is(err, shared.ErrConversationNotFound) {
			t.Errorf("expected ErrConversationNotFound, got %v", err)
		}
	})
}

func TestMessageHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("user1") != "u1" || q.Get("user2") != "u2" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"messages": [` + sampleMessage + `]}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	msgs, err := c.MessageHistory(context.Background(), "u1", "u2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs))
	}
}

func TestCreateMessage(t *testing.T) {
	t.Run("Song Share", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["receiver_id"] != "u2" || body["message_type"] != "SONG" || body["song_id"] != "s9" {
				t.Errorf("unexpected body: %v", body)
			}
			w.Write([]byte(`{
				"id": 11,
				"sender": {"id": "u1", "username": "ana"},
				"receiver": {"id": "u2", "username": "ben"},
				"message_type": "SONG",
				"shared_song": {"id": "s9", "title": "Holiday", "artist": "Green Day"},
				"timestamp": "2025-06-01T12:00:00Z"
			}`))
		}))
		defer server.Close()

		c := newTestClient(t, server.URL)
		msg, err := c.CreateMessage(context.Background(), CreateMessageInput{
			ReceiverID: "u2",
			Type:       models.TypeSong,
			SongID:     "s9",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg.Type != models.TypeSong || msg.Attachment == nil || msg.Attachment.Song == nil {
			t.Errorf("expected song attachment, got %+v", msg)
		}
	})

	t.Run("Missing Receiver", func(t *testing.T) {
		c := newTestClient(t, "http://unused")
		_, err := c.CreateMessage(context.Background(), CreateMessageInput{Content: "hi"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestDeleteMessage(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	if err := c.DeleteMessage(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/messages/7/" {
		t.Errorf("unexpected path: %s", gotPath)
	}
}

func TestNormalizeTimestamps(t *testing.T) {
	logger := shared.NewLogger(os.Stderr)

	body := []byte(`[{"id": 1, "sender": {"id": "u1"}, "timestamp": "2025-06-01T12:00:00"}]`)
	msgs := normalizeMessageList(body, logger)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Timestamp.IsZero() {
		t.Error("expected naive ISO-8601 timestamp to parse")
	}

	body = []byte(`[{"id": 2, "sender": {"id": "u1"}, "timestamp": "yesterday"}]`)
	msgs = normalizeMessageList(body, logger)
	if len(msgs) != 1 {
		t.Fatalf("unparseable timestamps must not drop the message")
	}
	if !msgs[0].Timestamp.IsZero() {
		t.Error("expected zero timestamp for unparseable value")
	}
}
