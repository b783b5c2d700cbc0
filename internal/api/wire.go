package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chuongle2003/chorus-cli/internal/models"
)

// wireUser is the backend's user payload.
type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (u wireUser) toModel() models.User {
	return models.User{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// wireMessage is the backend's message payload. Attachment payloads are
// flattened onto the message object with exactly one field populated.
type wireMessage struct {
	ID             int64                  `json:"id"`
	Sender         wireUser               `json:"sender"`
	Receiver       wireUser               `json:"receiver"`
	Content        string                 `json:"content"`
	MessageType    string                 `json:"message_type"`
	SharedSong     *models.SharedSong     `json:"shared_song,omitempty"`
	SharedPlaylist *models.SharedPlaylist `json:"shared_playlist,omitempty"`
	Image          string                 `json:"image,omitempty"`
	Attachment     string                 `json:"attachment,omitempty"`
	VoiceNote      string                 `json:"voice_note,omitempty"`
	Timestamp      string                 `json:"timestamp"`
	IsRead         bool                   `json:"is_read"`
}

func (w wireMessage) toModel() models.Message {
	msg := models.Message{
		ID:        w.ID,
		Sender:    w.Sender.toModel(),
		Receiver:  w.Receiver.toModel(),
		Content:   w.Content,
		Type:      models.ParseMessageType(w.MessageType),
		Timestamp: parseTimestamp(w.Timestamp),
		IsRead:    w.IsRead,
	}

	att := &models.Attachment{
		Song:      w.SharedSong,
		Playlist:  w.SharedPlaylist,
		ImageURL:  w.Image,
		FileURL:   w.Attachment,
		VoiceNote: w.VoiceNote,
	}
	if att.Song != nil || att.Playlist != nil || att.ImageURL != "" || att.FileURL != "" || att.VoiceNote != "" {
		msg.Attachment = att
	}

	return msg
}

// wireConversation is the backend's conversation payload.
type wireConversation struct {
	ID          string       `json:"id"`
	Partner     wireUser     `json:"partner"`
	LastMessage *wireMessage `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}

func (w wireConversation) toModel() models.Conversation {
	conv := models.Conversation{
		ID:          w.ID,
		Partner:     w.Partner.toModel(),
		UnreadCount: w.UnreadCount,
	}
	if w.LastMessage != nil {
		last := w.LastMessage.toModel()
		conv.LastMessage = &last
	}
	return conv
}

// parseTimestamp accepts the ISO-8601 variants the backend emits. Unparseable
// values resolve to the zero time rather than dropping the message.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// normalizeMessageList maps the three observed history response shapes (a
// bare array, {"messages": [...]}, and {"data": [...]}) onto a message
// slice. Anything else degrades to an empty list with a logged warning.
func normalizeMessageList(raw []byte, logger *log.Logger) []models.Message {
	var list []wireMessage

	if err := json.Unmarshal(raw, &list); err != nil {
		var wrapper struct {
			Messages []wireMessage `json:"messages"`
			Data     []wireMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			logger.Warn("unexpected message list shape", "body", truncate(raw, 120))
			return nil
		}

		switch {
		case wrapper.Messages != nil:
			list = wrapper.Messages
		case wrapper.Data != nil:
			list = wrapper.Data
		default:
			logger.Warn("unexpected message list shape", "body", truncate(raw, 120))
			return nil
		}
	}

	messages := make([]models.Message, 0, len(list))
	for _, w := range list {
		msg := w.toModel()
		if !msg.Valid() {
			logger.Warn("dropping malformed message", "id", w.ID)
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// unmarshalStrictBody decodes a JSON body, mapping empty input to an error.
func unmarshalStrictBody(raw []byte, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(raw, out)
}
