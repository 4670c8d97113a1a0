package core

// EventKind is a notification delivered to connected clients.
type EventKind int

const (
	// EventRoomMessage is a public-room chat message echoed to the room.
	EventRoomMessage EventKind = iota
	// EventCounterUpdate carries a room's live participant count.
	EventCounterUpdate
	// EventChatMessage is a persisted private-chat message.
	EventChatMessage
	// EventError reports a per-message failure to a single client.
	EventError
)

// Event is the closed set of outbound notifications. Which fields are
// meaningful depends on Kind; the transport maps each kind to its wire frame.
type Event struct {
	Kind EventKind

	// EventRoomMessage / EventChatMessage
	Message  string
	Username string // room messages: client-supplied display name
	Sender   string // chat messages: authenticated sender name
	Clock    string // chat messages: formatted 12-hour time

	// EventCounterUpdate
	UserCount int

	// EventError
	Err *SessionError
}

func counterEvent(count int) Event {
	return Event{Kind: EventCounterUpdate, UserCount: count}
}

func errorEvent(code, msg string) Event {
	return Event{Kind: EventError, Err: &SessionError{Code: code, Message: msg}}
}
