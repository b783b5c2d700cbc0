// Package models defines the domain entities shared across the Chorus client.
//
// The package contains two categories of types:
//
// 1. Directory objects: [User] profiles returned by search and embedded in messages.
//
// 2. Chat entities:
//   - [Conversation] : a persistent (current-user, partner) messaging channel
//   - [Message] : one chat message with a closed [MessageType] tag set
//   - [Attachment] : tagged union carrying the payload matching the message type
//   - [SharedSong] / [SharedPlaylist] : music entities referenced by share messages
//
// Message payloads are modeled as a discriminated union rather than loose maps:
// [Attachment.Validate] enforces that exactly one payload field is populated and
// that it is consistent with the message type tag.
package models
