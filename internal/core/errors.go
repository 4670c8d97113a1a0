package core

import "errors"

// MsgInvalidFrame is the exact error text clients receive for a frame that
// fails to parse or is missing required fields.
const MsgInvalidFrame = "Invalid message format or missing data"

// Error codes attached to error events.
const (
	ErrCodeInvalidFrame = "invalid_message"
	ErrCodeStoreFailed  = "store_failed"
)

var (
	// ErrAlreadyConnected is returned when Connect is called twice.
	ErrAlreadyConnected = errors.New("session already connected")
	// ErrNotConnected is returned for operations outside the Connected state.
	ErrNotConnected = errors.New("session not connected")
	// ErrConversationNotFound is returned when the referenced conversation
	// does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrNotParticipant is returned when the connecting identity is not a
	// member of the conversation.
	ErrNotParticipant = errors.New("not a conversation participant")
)

// SessionError wraps a code and human-readable message for error events.
type SessionError struct {
	Code    string
	Message string
}

func (e *SessionError) Error() string {
	return e.Message
}
