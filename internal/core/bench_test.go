package core

import (
	"fmt"
	"testing"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	reg := testRegistry()
	ch := RoomChannel("bench")

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient()
		reg.Join(ch, c)
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	ev := Event{Kind: EventRoomMessage, Message: "payload", Username: "bench"}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		reg.Broadcast(ch, ev)
		<-target.Events
	}
}

func BenchmarkBroadcast(b *testing.B) {
	for _, n := range []int{10, 100, 500} {
		b.Run(fmt.Sprintf("recipients_%d", n), func(b *testing.B) {
			benchmarkBroadcast(b, n)
		})
	}
}
