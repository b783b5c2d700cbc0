package chat

import (
	"time"

	"github.com/chuongle2003/chorus-cli/internal/models"
)

// Frame discriminator values.
const (
	FrameTypeMessage = "message"
	FrameTypeError   = "error"
)

// Server-defined close codes. The first four are terminal: the condition
// will not clear on its own, so reconnecting would just loop.
const (
	CloseUnauthenticated      = 4001
	CloseInvalidMessage       = 4002
	CloseChatRestricted       = 4003
	CloseUserNotFound         = 4004
	CloseConversationNotFound = 4005
	CloseServerError          = 4006
)

// terminalClose reports whether a close code ends the reconnect loop.
func terminalClose(code int) bool {
	switch code {
	case CloseUnauthenticated, CloseChatRestricted, CloseUserNotFound, CloseConversationNotFound:
		return true
	}
	return false
}

// Frame is one inbound websocket message. "message" frames carry Data,
// "error" frames carry Message.
type Frame struct {
	Type    string       `json:"type"`
	Data    *MessageData `json:"data,omitempty"`
	Message string       `json:"message,omitempty"`
}

// MessageData is the denormalized payload of a "message" frame. The
// wire format flattens sender and receiver into scalar fields.
type MessageData struct {
	ID             int64  `json:"id"`
	ConversationID string `json:"conversation_id"`

	SenderID       string `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	SenderAvatar   string `json:"sender_avatar"`

	ReceiverID       string `json:"receiver_id"`
	ReceiverUsername string `json:"receiver_username"`
	ReceiverAvatar   string `json:"receiver_avatar"`

	Message     string `json:"message"`
	MessageType string `json:"message_type"`
	Timestamp   string `json:"timestamp"`

	SharedSong     *models.SharedSong     `json:"shared_song,omitempty"`
	SharedPlaylist *models.SharedPlaylist `json:"shared_playlist,omitempty"`
	Image          string                 `json:"image,omitempty"`
	Attachment     string                 `json:"attachment,omitempty"`
	VoiceNote      string                 `json:"voice_note,omitempty"`
}

// ToMessage rebuilds the Message entity, reconstructing sender and
// receiver stubs from the flat fields.
func (d MessageData) ToMessage() models.Message {
	msg := models.Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		Sender: models.User{
			ID:       d.SenderID,
			Username: d.SenderUsername,
			Avatar:   d.SenderAvatar,
		},
		Receiver: models.User{
			ID:       d.ReceiverID,
			Username: d.ReceiverUsername,
			Avatar:   d.ReceiverAvatar,
		},
		Content:   d.Message,
		Type:      models.ParseMessageType(d.MessageType),
		Timestamp: parseFrameTime(d.Timestamp),
	}

	att := models.Attachment{
		Song:      d.SharedSong,
		Playlist:  d.SharedPlaylist,
		ImageURL:  d.Image,
		FileURL:   d.Attachment,
		VoiceNote: d.VoiceNote,
	}
	if err := att.Validate(msg.Type); err == nil && msg.Type != models.TypeText {
		msg.Attachment = &att
	}
	return msg
}

// OutboundFrame is the wire shape for send. Only the extra field
// matching the message type is populated.
type OutboundFrame struct {
	Message     string `json:"message"`
	MessageType string `json:"message_type"`
	SongID      string `json:"song_id,omitempty"`
	PlaylistID  string `json:"playlist_id,omitempty"`
}

// SendExtra carries the type-specific payload reference for Conn.Send.
type SendExtra struct {
	SongID     string
	PlaylistID string
}

func parseFrameTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
