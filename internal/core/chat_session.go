package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/proto"
	"github.com/roomcast/roomcast-server/internal/store"
)

// maxClockSkew bounds how far a client-supplied timestamp may drift from the
// server clock before the server's receipt time is persisted instead.
const maxClockSkew = 5 * time.Minute

// ChatStore is the persistence the private-chat engine coordinates with.
type ChatStore interface {
	store.ConversationStore
	store.MessageStore
}

// ChatSession is the private-chat engine: connect is refused unless the
// authenticated identity belongs to the conversation, and every message is
// persisted before it is fanned out. A failed write reaches nobody.
type ChatSession struct {
	session
	conversationID int64
	user           Identity
	store          ChatStore
	now            func() time.Time
}

// NewChatSession builds a session for one conversation and identity.
func NewChatSession(reg Registry, st ChatStore, logger *zerolog.Logger, conversationID int64, user Identity) *ChatSession {
	return &ChatSession{
		session:        newSession(reg, logger),
		conversationID: conversationID,
		user:           user,
		store:          st,
		now:            time.Now,
	}
}

// Connect authorizes the identity against the conversation's fixed
// participant set and registers with the channel. The participant set is
// immutable after creation, so this check holds for the connection's life.
func (s *ChatSession) Connect(ctx context.Context) error {
	conv, err := s.store.GetConversation(ctx, s.conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	if !conv.HasParticipant(s.user.ID) {
		return ErrNotParticipant
	}
	if err := s.join(ConversationChannel(s.conversationID)); err != nil {
		return err
	}
	s.log.Debug().
		Int64("conversation_id", s.conversationID).
		Int64("user_id", s.user.ID).
		Msg("joined conversation")
	return nil
}

// Receive handles one inbound frame: validate, normalize the client instant,
// persist, and only then broadcast. A write failure is surfaced to the
// sender alone and leaves the channel usable.
func (s *ChatSession) Receive(ctx context.Context, raw []byte) error {
	if s.State() != StateConnected {
		return ErrNotConnected
	}

	var frame proto.ChatInbound
	if err := json.Unmarshal(raw, &frame); err != nil || !frame.Valid() {
		s.rejectFrame()
		return nil
	}

	ts := normalizeTimestamp(*frame.Timestamp, s.now())
	msg := &store.Message{
		ConversationID: s.conversationID,
		SenderID:       s.user.ID,
		SenderName:     s.user.Name,
		Body:           *frame.Message,
		CreatedAt:      ts,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		s.log.Error().Err(err).
			Int64("conversation_id", s.conversationID).
			Int64("user_id", s.user.ID).
			Msg("persist message")
		s.deliverSelf(errorEvent(ErrCodeStoreFailed, "message could not be saved"))
		return nil
	}

	s.registry.Broadcast(s.channel, Event{
		Kind:    EventChatMessage,
		Message: msg.Body,
		Sender:  s.user.Name,
		Clock:   FormatClock(ts),
	})
	return nil
}

// Disconnect deregisters from the conversation channel. Safe to call more
// than once.
func (s *ChatSession) Disconnect() {
	s.close(func() {
		s.registry.Leave(s.channel, s.client)
		s.log.Debug().
			Int64("conversation_id", s.conversationID).
			Int64("user_id", s.user.ID).
			Msg("left conversation")
	})
}

// normalizeTimestamp converts a client instant (ms since epoch) to the
// canonical representation. Non-positive or heavily skewed clocks fall back
// to the server's receipt time so a bad client clock cannot reorder history
// at will.
func normalizeTimestamp(millis int64, now time.Time) time.Time {
	if millis <= 0 {
		return now
	}
	t := time.UnixMilli(millis)
	if d := now.Sub(t); d > maxClockSkew || d < -maxClockSkew {
		return now
	}
	return t
}

var clockReplacer = strings.NewReplacer("AM", "a.m.", "PM", "p.m.")

// FormatClock renders an instant as a 12-hour clock with lower-case
// a.m./p.m. suffixes, e.g. "09:30 a.m.".
func FormatClock(t time.Time) string {
	return clockReplacer.Replace(t.Format("03:04 PM"))
}
