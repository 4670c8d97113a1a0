package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Conversation is a private chat between a fixed pair of users. The
// participant set is written once at creation and never changes.
type Conversation struct {
	ID           int64
	Participants []int64
	CreatedAt    time.Time
}

// HasParticipant reports whether the user belongs to the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Message is a persisted private-chat message. SenderName is populated on
// reads by joining the sender account; it is ignored on writes.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	SenderName     string
	Body           string
	CreatedAt      time.Time
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser creates a new user with a hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// ConversationStore handles conversation persistence.
type ConversationStore interface {
	// GetOrCreateConversation returns the conversation between the two
	// users, creating it with both as participants if none exists yet.
	GetOrCreateConversation(ctx context.Context, userA, userB int64) (*Conversation, error)

	// GetConversation retrieves a conversation with its participant set.
	GetConversation(ctx context.Context, id int64) (*Conversation, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and sets its id.
	CreateMessage(ctx context.Context, msg *Message) error

	// ListMessagesByConversation returns up to limit messages, newest
	// first; ties on timestamp break by insertion order.
	ListMessagesByConversation(ctx context.Context, conversationID int64, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	ConversationStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
