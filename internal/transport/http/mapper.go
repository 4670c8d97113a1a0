package http

import (
	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/proto"
)

// outboundFromEvent maps the closed set of core events onto wire frames.
func outboundFromEvent(event core.Event) any {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.RoomMessage{
			Message:  event.Message,
			Username: event.Username,
		}
	case core.EventCounterUpdate:
		return proto.CounterUpdate{
			UserCount: event.UserCount,
		}
	case core.EventChatMessage:
		return proto.ChatMessage{
			Message:   event.Message,
			Sender:    event.Sender,
			Timestamp: event.Clock,
		}
	case core.EventError:
		msg := "unknown error"
		if event.Err != nil {
			msg = event.Err.Message
		}
		return proto.ErrorFrame{Error: msg}
	default:
		return proto.ErrorFrame{Error: "unknown event"}
	}
}
