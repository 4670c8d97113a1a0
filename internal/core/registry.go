package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry groups connection handles into channels and fans events out to
// them. It owns membership state exclusively; sessions never touch it
// directly. Any backend with this contract (an in-process map, a message
// bus) can stand behind the sessions.
type Registry interface {
	// Join adds a connection to a channel, creating the channel on first use.
	Join(ch ChannelID, c *Client)
	// Leave removes a connection. Unknown channel or non-member is a no-op.
	Leave(ch ChannelID, c *Client)
	// Broadcast delivers an event to every current member. A member that
	// cannot accept delivery is skipped; delivery to the rest proceeds.
	Broadcast(ch ChannelID, ev Event)
	// MemberCount returns the channel's live size, 0 for unknown channels.
	MemberCount(ch ChannelID) int
}

type registry struct {
	mu       sync.RWMutex
	channels map[string]map[*Client]struct{}
	log      *zerolog.Logger
}

// NewRegistry builds the in-process registry backend.
func NewRegistry(logger *zerolog.Logger) Registry {
	return &registry{
		channels: make(map[string]map[*Client]struct{}),
		log:      logger,
	}
}

func (r *registry) Join(ch ChannelID, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ch.Key()
	members, ok := r.channels[key]
	if !ok {
		members = make(map[*Client]struct{})
		r.channels[key] = members
	}
	// A duplicate join collapses into the existing membership entry.
	members[c] = struct{}{}
}

func (r *registry) Leave(ch ChannelID, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ch.Key()
	members, ok := r.channels[key]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.channels, key)
	}
}

func (r *registry) Broadcast(ch ChannelID, ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for client := range r.channels[ch.Key()] {
		select {
		case client.Events <- ev:
		default:
			// Slow or gone consumer; never stall the rest of the channel.
			r.log.Warn().
				Str("channel", ch.Key()).
				Str("client_id", client.ID).
				Msg("dropping event for unresponsive client")
		}
	}
}

func (r *registry) MemberCount(ch ChannelID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[ch.Key()])
}
