package core

import (
	"context"
	"strconv"
	"testing"
)

// joinAndWait joins room and blocks until the hub answered with history.
func joinAndWait(hub *Hub, c *Client, room string) {
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandJoinRoom, Room: room}
	for ev := range c.Events {
		if ev.Kind == EventHistory {
			return
		}
	}
}

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, Options{}, nil)
	go hub.Run(ctx)

	sender := NewClient("sender", "sender", 1)
	joinAndWait(hub, sender, "bench")

	clients := make([]*Client, 0, recipients)
	for i := range recipients {
		c := NewClient("c"+strconv.Itoa(i), "client"+strconv.Itoa(i), int64(i+2))
		joinAndWait(hub, c, "bench")
		clients = append(clients, c)
	}

	// the hub is idle now; empty the buffers so no message lands on a full one
	for _, c := range append(clients, sender) {
		for len(c.Events) > 0 {
			<-c.Events
		}
	}

	// everyone but the target just drains; the target reports each chat message
	received := make(chan struct{})
	go func() {
		for ev := range clients[0].Events {
			if ev.Kind == EventRoomMessage {
				received <- struct{}{}
			}
		}
	}()
	for _, c := range append(clients[1:], sender) {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for range b.N {
		sender.Commands <- &Command{
			Kind:    CommandSendRoomMessage,
			Room:    "bench",
			Message: Message{Text: "payload"},
		}
		<-received
	}
	b.StopTimer()

	cancel()
	<-hub.Done()
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
