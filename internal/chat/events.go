package chat

import "github.com/chuongle2003/chorus-cli/internal/models"

// EventKind discriminates session events.
type EventKind int

const (
	EventRosterUpdated EventKind = iota
	EventHistoryLoaded
	EventMessageReceived
	EventMessageDeleted
	EventSearchResults
	EventConnState
	EventNotice
	EventServerError
	EventTerminal
)

func (k EventKind) String() string {
	switch k {
	case EventRosterUpdated:
		return "roster_updated"
	case EventHistoryLoaded:
		return "history_loaded"
	case EventMessageReceived:
		return "message_received"
	case EventMessageDeleted:
		return "message_deleted"
	case EventSearchResults:
		return "search_results"
	case EventConnState:
		return "conn_state"
	case EventNotice:
		return "notice"
	case EventServerError:
		return "server_error"
	case EventTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Event is one session notification. Only the fields relevant to the
// kind are populated.
type Event struct {
	Kind      EventKind
	Message   *models.Message
	MessageID int64
	Users     []models.User
	State     State
	Code      int
	Text      string
}
