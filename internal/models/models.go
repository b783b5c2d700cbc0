package models

import (
	"fmt"
	"time"
)

// User represents a Chorus user profile.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// MessageType is the closed tag set for chat message payloads.
type MessageType string

const (
	TypeText       MessageType = "TEXT"
	TypeSong       MessageType = "SONG"
	TypePlaylist   MessageType = "PLAYLIST"
	TypeImage      MessageType = "IMAGE"
	TypeAttachment MessageType = "ATTACHMENT"
	TypeVoiceNote  MessageType = "VOICE_NOTE"
)

// ParseMessageType maps a wire value onto the closed tag set, defaulting to TEXT.
func ParseMessageType(s string) MessageType {
	switch MessageType(s) {
	case TypeSong, TypePlaylist, TypeImage, TypeAttachment, TypeVoiceNote:
		return MessageType(s)
	default:
		return TypeText
	}
}

// SharedSong is the song snapshot embedded in a SONG message.
type SharedSong struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	Duration int    `json:"duration,omitempty"` // seconds
}

// SharedPlaylist is the playlist snapshot embedded in a PLAYLIST message.
type SharedPlaylist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CoverURL   string `json:"cover_url,omitempty"`
	TrackCount int    `json:"track_count,omitempty"`
}

// Attachment is the tagged union of message payloads.
// Exactly one field is populated, consistent with the owning message's type.
type Attachment struct {
	Song      *SharedSong     `json:"shared_song,omitempty"`
	Playlist  *SharedPlaylist `json:"shared_playlist,omitempty"`
	ImageURL  string          `json:"image,omitempty"`
	FileURL   string          `json:"attachment,omitempty"`
	VoiceNote string          `json:"voice_note,omitempty"`
}

// populated counts how many union fields carry a value.
func (a *Attachment) populated() int {
	n := 0
	if a.Song != nil {
		n++
	}
	if a.Playlist != nil {
		n++
	}
	if a.ImageURL != "" {
		n++
	}
	if a.FileURL != "" {
		n++
	}
	if a.VoiceNote != "" {
		n++
	}
	return n
}

// Validate checks that the attachment carries exactly the payload the tag requires.
func (a *Attachment) Validate(t MessageType) error {
	if t == TypeText {
		if a != nil && a.populated() > 0 {
			return fmt.Errorf("TEXT message must not carry an attachment")
		}
		return nil
	}

	if a == nil || a.populated() == 0 {
		return fmt.Errorf("%s message requires an attachment payload", t)
	}
	if a.populated() > 1 {
		return fmt.Errorf("message attachment must carry exactly one payload")
	}

	var ok bool
	switch t {
	case TypeSong:
		ok = a.Song != nil
	case TypePlaylist:
		ok = a.Playlist != nil
	case TypeImage:
		ok = a.ImageURL != ""
	case TypeAttachment:
		ok = a.FileURL != ""
	case TypeVoiceNote:
		ok = a.VoiceNote != ""
	}
	if !ok {
		return fmt.Errorf("attachment payload does not match message type %s", t)
	}
	return nil
}

// Message represents one chat message.
type Message struct {
	ID             int64  `json:"id"`
	ConversationID string `json:"conversation_id,omitempty"`

	Sender     User        `json:"sender"`
	Receiver   User        `json:"receiver"`
	Content    string      `json:"content"`
	Type       MessageType `json:"message_type"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	IsRead     bool        `json:"is_read"`
}

// Valid reports whether the message carries the fields required for display
// and counting. Malformed entries are filtered out, never rendered.
func (m Message) Valid() bool {
	return m.ID != 0 && m.Sender.ID != ""
}

// Validate checks tag/payload consistency in addition to Valid.
func (m Message) Validate() error {
	if !m.Valid() {
		return fmt.Errorf("message missing id or sender")
	}
	return m.Attachment.Validate(m.Type)
}

// Preview returns a short display string for roster entries.
func (m Message) Preview() string {
	switch m.Type {
	case TypeSong:
		if m.Attachment != nil && m.Attachment.Song != nil {
			return fmt.Sprintf("♪ %s - %s", m.Attachment.Song.Artist, m.Attachment.Song.Title)
		}
		return "♪ shared a song"
	case TypePlaylist:
		if m.Attachment != nil && m.Attachment.Playlist != nil {
			return fmt.Sprintf("☰ %s", m.Attachment.Playlist.Name)
		}
		return "☰ shared a playlist"
	case TypeImage:
		return "[image]"
	case TypeAttachment:
		return "[file]"
	case TypeVoiceNote:
		return "[voice note]"
	default:
		return m.Content
	}
}

// Conversation represents a persistent (current-user, partner) messaging channel.
type Conversation struct {
	ID          string   `json:"id"`
	Partner     User     `json:"partner"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}

// LastActivity returns the timestamp used for recency ordering.
func (c Conversation) LastActivity() time.Time {
	if c.LastMessage == nil {
		return time.Time{}
	}
	return c.LastMessage.Timestamp
}

// PartnerOf returns the participant of the message that is not the current user.
// Self-conversations resolve to the sender.
func PartnerOf(m Message, currentUserID string) User {
	if m.Sender.ID != "" && m.Sender.ID != currentUserID {
		return m.Sender
	}
	return m.Receiver
}
