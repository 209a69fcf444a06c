package client

import (
	"github.com/samber/lo"

	"github.com/vovakirdan/simplechat/internal/chatstore"
	"github.com/vovakirdan/simplechat/internal/composer"
	"github.com/vovakirdan/simplechat/internal/proto"
)

// Sink receives chat content decoded from server frames.
type Sink interface {
	Receive(in chatstore.Inbound)
	LoadHistory(room string, history []chatstore.Inbound)
}

// Feed applies message and history frames to sink. It reports whether the frame
// was consumed; other frames are left to the caller.
func Feed(sink Sink, out proto.Outbound) (bool, error) {
	if out.Type != proto.OutboundTypeEvent {
		return false, nil
	}
	switch out.Event {
	case proto.EventNameMessage:
		var m proto.EventMessage
		if err := out.Decode(&m); err != nil {
			return false, err
		}
		sink.Receive(Inbound(m))
		return true, nil
	case proto.EventNameHistory:
		var h proto.EventHistory
		if err := out.Decode(&h); err != nil {
			return false, err
		}
		sink.LoadHistory(h.Room, lo.Map(h.Messages, func(m proto.EventMessage, _ int) chatstore.Inbound { return Inbound(m) }))
		return true, nil
	default:
		return false, nil
	}
}

// Inbound converts a wire message to the store's form.
func Inbound(m proto.EventMessage) chatstore.Inbound {
	return chatstore.Inbound{
		ServerID: m.ID,
		ClientID: m.ClientID,
		Room:     m.Room,
		Record: composer.MessageRecord{
			Content:   m.Text,
			Sender:    composer.Sender{Username: m.User},
			CreatedAt: m.CreatedAt,
		},
	}
}
