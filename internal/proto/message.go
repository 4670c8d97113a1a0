// Package proto defines the wire frames exchanged over a chat connection:
// one JSON object per frame, field names fixed by the client contract.
package proto

// RoomInbound is a public-room frame from the client. Both fields are
// mandatory; pointers distinguish an absent field from an empty string.
type RoomInbound struct {
	Message  *string `json:"message"`
	Username *string `json:"username"`
}

// Valid reports whether all required fields are present.
func (f RoomInbound) Valid() bool {
	return f.Message != nil && f.Username != nil
}

// ChatInbound is a private-chat frame from the client. Timestamp is
// milliseconds since the Unix epoch, supplied by the client clock.
type ChatInbound struct {
	Message   *string `json:"message"`
	Timestamp *int64  `json:"timestamp"`
}

// Valid reports whether all required fields are present.
func (f ChatInbound) Valid() bool {
	return f.Message != nil && f.Timestamp != nil
}

// RoomMessage echoes a public-room message to every member.
type RoomMessage struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// CounterUpdate carries a room's live participant count.
type CounterUpdate struct {
	UserCount int `json:"user_count"`
}

// ChatMessage delivers a persisted private-chat message. Timestamp is the
// formatted 12-hour clock string, not a numeric instant.
type ChatMessage struct {
	Message   string `json:"message"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// ErrorFrame reports a per-message failure to the sending client.
type ErrorFrame struct {
	Error string `json:"error"`
}
