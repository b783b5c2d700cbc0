// Package repositories persists the offline cache: the conversation
// roster and recent message history land in SQLite so the last known
// state renders before the network answers. The cache is write-through
// and best effort; the server stays the source of truth.
package repositories
