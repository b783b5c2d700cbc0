// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view chat workflow:
//  1. [RosterView] : Browse conversations, newest activity first
//  2. [ConversationView] : Read history and compose messages
//  3. [SearchView] : Find users by name (debounced) and start conversations
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Realtime updates flow through the chat session's event channel, pumped into the
// Elm loop one event per command so the socket never blocks on rendering.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
