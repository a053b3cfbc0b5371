package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage delivers a chat message on a room or user channel.
	EventMessage EventKind = iota
	// EventPresence announces that a user went online or offline.
	EventPresence
	// EventJoined confirms a room subscription to the joining client.
	EventJoined
	// EventLeft confirms a room unsubscription to the leaving client.
	EventLeft
	// EventWelcome is the first event of every session.
	EventWelcome
	// EventError notifies a client about a rejected request.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventPresence:
		return "presence"
	case EventJoined:
		return "joined"
	case EventLeft:
		return "left"
	case EventWelcome:
		return "welcome"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
// The same Event value may be delivered to several channels and must not be
// mutated after publishing.
type Event struct {
	Kind     EventKind
	RoomID   int64
	Message  *ChatMessage
	Presence *PresenceEvent
	Welcome  *WelcomeEvent
	Error    *CoreError
}

// PresenceEvent holds data for EventPresence.
type PresenceEvent struct {
	UserID int64
	Online bool
	Seq    uint64
	At     time.Time
}

// WelcomeEvent holds data for EventWelcome.
type WelcomeEvent struct {
	SessionID   string
	UserID      int64
	Username    string
	OnlineUsers []int64
}

// ErrorEvent builds an EventError carrying err.
func ErrorEvent(err *CoreError) *Event {
	return &Event{Kind: EventError, Error: err}
}
