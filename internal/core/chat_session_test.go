package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomcast/roomcast-server/internal/store"
)

type fakeChatStore struct {
	conv       *store.Conversation
	failCreate bool
	created    []*store.Message
}

func (f *fakeChatStore) GetConversation(_ context.Context, id int64) (*store.Conversation, error) {
	if f.conv == nil || f.conv.ID != id {
		return nil, store.ErrNotFound
	}
	return f.conv, nil
}

func (f *fakeChatStore) GetOrCreateConversation(_ context.Context, _, _ int64) (*store.Conversation, error) {
	return f.conv, nil
}

func (f *fakeChatStore) CreateMessage(_ context.Context, msg *store.Message) error {
	if f.failCreate {
		return errors.New("disk full")
	}
	msg.ID = int64(len(f.created) + 1)
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeChatStore) ListMessagesByConversation(_ context.Context, _ int64, _ int) ([]*store.Message, error) {
	return nil, nil
}

func twoPartyConversation(id int64, users ...int64) *store.Conversation {
	return &store.Conversation{ID: id, Participants: users}
}

func TestChatConnectRefusesNonParticipant(t *testing.T) {
	reg := testRegistry()
	st := &fakeChatStore{conv: twoPartyConversation(7, 1, 2)}

	s := NewChatSession(reg, st, testLogger(), 7, Identity{ID: 3, Name: "mallory"})
	if err := s.Connect(context.Background()); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("connect = %v, want ErrNotParticipant", err)
	}
	if s.State() != StateUnconnected {
		t.Fatalf("state = %v, want unconnected", s.State())
	}
	if got := reg.MemberCount(ConversationChannel(7)); got != 0 {
		t.Fatalf("member count = %d, want 0", got)
	}
}

func TestChatConnectUnknownConversation(t *testing.T) {
	reg := testRegistry()
	st := &fakeChatStore{conv: twoPartyConversation(7, 1, 2)}

	s := NewChatSession(reg, st, testLogger(), 99, Identity{ID: 1, Name: "u1"})
	if err := s.Connect(context.Background()); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("connect = %v, want ErrConversationNotFound", err)
	}
}

func TestChatPersistThenBroadcast(t *testing.T) {
	reg := testRegistry()
	st := &fakeChatStore{conv: twoPartyConversation(7, 1, 2)}
	ctx := context.Background()

	sent := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	u1 := NewChatSession(reg, st, testLogger(), 7, Identity{ID: 1, Name: "U1"})
	u1.now = func() time.Time { return sent.Add(time.Second) }
	u2 := NewChatSession(reg, st, testLogger(), 7, Identity{ID: 2, Name: "U2"})

	if err := u1.Connect(ctx); err != nil {
		t.Fatalf("connect u1: %v", err)
	}
	if err := u2.Connect(ctx); err != nil {
		t.Fatalf("connect u2: %v", err)
	}

	raw := []byte(`{"message":"hey","timestamp":1700000000000}`)
	if err := u1.Receive(ctx, raw); err != nil {
		t.Fatalf("receive: %v", err)
	}

	if len(st.created) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(st.created))
	}
	msg := st.created[0]
	if msg.ConversationID != 7 || msg.SenderID != 1 || msg.Body != "hey" {
		t.Fatalf("unexpected persisted message: %+v", msg)
	}
	if !msg.CreatedAt.Equal(time.UnixMilli(1700000000000)) {
		t.Fatalf("persisted timestamp = %v, want client instant", msg.CreatedAt)
	}

	for _, s := range []*ChatSession{u1, u2} {
		ev := mustEvent(t, s.Client().Events, EventChatMessage)
		if ev.Message != "hey" || ev.Sender != "U1" {
			t.Fatalf("unexpected chat event: %+v", ev)
		}
		if ev.Clock != FormatClock(time.UnixMilli(1700000000000)) {
			t.Fatalf("unexpected clock string: %q", ev.Clock)
		}
	}
}

func TestChatPersistFailureReachesNobody(t *testing.T) {
	reg := testRegistry()
	st := &fakeChatStore{conv: twoPartyConversation(7, 1, 2), failCreate: true}
	ctx := context.Background()

	u1 := NewChatSession(reg, st, testLogger(), 7, Identity{ID: 1, Name: "U1"})
	u2 := NewChatSession(reg, st, testLogger(), 7, Identity{ID: 2, Name: "U2"})
	if err := u1.Connect(ctx); err != nil {
		t.Fatalf("connect u1: %v", err)
	}
	if err := u2.Connect(ctx); err != nil {
		t.Fatalf("connect u2: %v", err)
	}

	if err := u1.Receive(ctx, []byte(`{"message":"hey","timestamp":1}`)); err != nil {
		t.Fatalf("receive: %v", err)
	}

	ev := mustEvent(t, u1.Client().Events, EventError)
	if ev.Err == nil || ev.Err.Code != ErrCodeStoreFailed {
		t.Fatalf("unexpected error event: %+v", ev)
	}
	mustNoEvent(t, u2.Client().Events)

	// The channel stays usable once the store recovers.
	st.failCreate = false
	if err := u1.Receive(ctx, []byte(`{"message":"again","timestamp":2}`)); err != nil {
		t.Fatalf("receive after recovery: %v", err)
	}
	mustEvent(t, u2.Client().Events, EventChatMessage)
}

func TestChatInvalidFrame(t *testing.T) {
	reg := testRegistry()
	st := &fakeChatStore{conv: twoPartyConversation(7, 1, 2)}
	ctx := context.Background()

	u1 := NewChatSession(reg, st, testLogger(), 7, Identity{ID: 1, Name: "U1"})
	if err := u1.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, raw := range [][]byte{
		[]byte(`{"message":"hey"}`),
		[]byte(`{"timestamp":1700000000000}`),
		[]byte(`{{`),
	} {
		if err := u1.Receive(ctx, raw); err != nil {
			t.Fatalf("receive %q: %v", raw, err)
		}
		ev := mustEvent(t, u1.Client().Events, EventError)
		if ev.Err == nil || ev.Err.Message != MsgInvalidFrame {
			t.Fatalf("unexpected error event for %q: %+v", raw, ev)
		}
	}
	if len(st.created) != 0 {
		t.Fatalf("invalid frames persisted %d messages", len(st.created))
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		millis int64
		want   time.Time
	}{
		{"within skew", now.Add(-time.Minute).UnixMilli(), now.Add(-time.Minute)},
		{"slightly ahead", now.Add(30 * time.Second).UnixMilli(), now.Add(30 * time.Second)},
		{"far behind", now.Add(-time.Hour).UnixMilli(), now},
		{"far ahead", now.Add(time.Hour).UnixMilli(), now},
		{"zero", 0, now},
		{"negative", -5, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeTimestamp(tt.millis, now)
			if !got.Equal(tt.want) {
				t.Fatalf("normalizeTimestamp(%d) = %v, want %v", tt.millis, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), "09:30 a.m."},
		{time.Date(2024, 3, 1, 13, 5, 0, 0, time.UTC), "01:05 p.m."},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "12:00 a.m."},
		{time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), "12:00 p.m."},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.t); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}
