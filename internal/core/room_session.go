package core

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/proto"
)

// RoomSession is the public-room engine: every successful connect and
// disconnect broadcasts the room's live participant count, and valid chat
// frames are echoed verbatim to the whole room, sender included. Nothing is
// persisted.
type RoomSession struct {
	session
	room string
}

// NewRoomSession builds a session for the named public room.
func NewRoomSession(reg Registry, logger *zerolog.Logger, room string) *RoomSession {
	return &RoomSession{
		session: newSession(reg, logger),
		room:    room,
	}
}

// Connect registers with the room and broadcasts the updated participant
// count to all members, including the one that just joined.
func (s *RoomSession) Connect() error {
	if err := s.join(RoomChannel(s.room)); err != nil {
		return err
	}
	s.broadcastCount()
	s.log.Debug().Str("room", s.room).Str("client_id", s.client.ID).Msg("joined room")
	return nil
}

// Receive handles one inbound frame. A frame that fails to parse or lacks
// message/username produces an error event for the sender only; the session
// stays connected. The context is unused; room messages never block on
// persistence.
func (s *RoomSession) Receive(_ context.Context, raw []byte) error {
	if s.State() != StateConnected {
		return ErrNotConnected
	}

	var frame proto.RoomInbound
	if err := json.Unmarshal(raw, &frame); err != nil || !frame.Valid() {
		s.rejectFrame()
		return nil
	}

	s.registry.Broadcast(s.channel, Event{
		Kind:     EventRoomMessage,
		Message:  *frame.Message,
		Username: *frame.Username,
	})
	return nil
}

// Disconnect deregisters and broadcasts the decremented count to whoever
// remains. Safe to call more than once.
func (s *RoomSession) Disconnect() {
	s.close(func() {
		s.registry.Leave(s.channel, s.client)
		s.broadcastCount()
		s.log.Debug().Str("room", s.room).Str("client_id", s.client.ID).Msg("left room")
	})
}

// broadcastCount derives the count from live membership, so it can never go
// negative and reports zero for a room nobody occupies.
func (s *RoomSession) broadcastCount() {
	s.registry.Broadcast(s.channel, counterEvent(s.registry.MemberCount(s.channel)))
}
