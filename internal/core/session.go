package core

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// SessionState is the connection lifecycle: Unconnected -> Connected -> Closed.
type SessionState int32

const (
	StateUnconnected SessionState = iota
	StateConnected
	StateClosed
)

// session carries the lifecycle shared by both engines: one registry
// registration, one connection handle, an idempotent close.
type session struct {
	registry Registry
	client   *Client
	channel  ChannelID
	state    atomic.Int32
	closing  sync.Once
	log      *zerolog.Logger
}

func newSession(reg Registry, logger *zerolog.Logger) session {
	return session{
		registry: reg,
		client:   NewClient(),
		log:      logger,
	}
}

// Client returns the connection handle the transport drains events from.
func (s *session) Client() *Client {
	return s.client
}

// State reports the current lifecycle state.
func (s *session) State() SessionState {
	return SessionState(s.state.Load())
}

// join registers with the channel and moves to Connected. Authorization, if
// any, happens in the engine before this is called.
func (s *session) join(ch ChannelID) error {
	if !s.state.CompareAndSwap(int32(StateUnconnected), int32(StateConnected)) {
		return ErrAlreadyConnected
	}
	s.channel = ch
	s.registry.Join(ch, s.client)
	return nil
}

// close runs cleanup exactly once and moves to Closed. Closed is terminal;
// a second call is a no-op so counters are never decremented twice.
func (s *session) close(cleanup func()) {
	s.closing.Do(func() {
		connected := s.State() == StateConnected
		s.state.Store(int32(StateClosed))
		if connected {
			cleanup()
		}
	})
}

// deliverSelf sends an event to this session's own client only, used for
// per-message failures that must not reach the rest of the channel.
func (s *session) deliverSelf(ev Event) {
	select {
	case s.client.Events <- ev:
	default:
		s.log.Warn().Str("client_id", s.client.ID).Msg("dropping event for own client")
	}
}

func (s *session) rejectFrame() {
	s.deliverSelf(errorEvent(ErrCodeInvalidFrame, MsgInvalidFrame))
}
