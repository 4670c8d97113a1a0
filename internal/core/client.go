package core

import "github.com/google/uuid"

// eventBuffer is the per-connection outbound queue size. A member whose
// buffer is full at broadcast time is skipped, not waited on.
const eventBuffer = 16

// Client is the connection handle the registry delivers events through.
// It is owned by exactly one session at a time.
type Client struct {
	ID     string
	Events chan Event
}

// NewClient constructs a client with a fresh id and buffered event channel.
func NewClient() *Client {
	return &Client{
		ID:     uuid.NewString(),
		Events: make(chan Event, eventBuffer),
	}
}

// Identity is the authenticated user behind a connection, produced by the
// auth collaborator before the session is created.
type Identity struct {
	ID   int64
	Name string
}
