package http

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/simplechat/internal/auth"
	"github.com/vovakirdan/simplechat/internal/core"
	"github.com/vovakirdan/simplechat/internal/proto"
	"github.com/vovakirdan/simplechat/internal/store"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin, proto.InboundTypeLeave:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		kind := core.CommandJoinRoom
		if inbound.Type == proto.InboundTypeLeave {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, Room: join.Room}, nil, nil
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandSendRoomMessage,
			Room: msg.Room,
			Message: core.Message{
				// ID and author are set by the hub
				ClientID:  msg.ClientID,
				Text:      msg.Text,
				CreatedAt: time.Now(),
			},
		}, nil, nil
	case proto.InboundTypeHello:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "already authenticated"}, nil
	default:
		return nil, &proto.Error{Code: proto.ErrCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) (proto.Outbound, error) {
	switch event.Kind {
	case core.EventRoomMessage:
		return proto.NewEvent(proto.EventNameMessage, eventMessage(event.Message))
	case core.EventUserJoined:
		return proto.NewEvent(proto.EventNameUserJoined, proto.EventUserJoined{Room: event.Room, User: event.User})
	case core.EventUserLeft:
		return proto.NewEvent(proto.EventNameUserLeft, proto.EventUserLeft{Room: event.Room, User: event.User})
	case core.EventHistory:
		return proto.NewEvent(proto.EventNameHistory, proto.EventHistory{
			Room:     event.Room,
			Messages: lo.Map(event.Messages, func(m core.Message, _ int) proto.EventMessage { return eventMessage(m) }),
		})
	case core.EventError:
		if event.Error == nil {
			return proto.NewError(core.ErrCodeInternal, "unknown error"), nil
		}
		return proto.NewError(event.Error.Code, event.Error.Message), nil
	default:
		return proto.NewError(core.ErrCodeInternal, "unknown event "+event.Kind.String()), nil
	}
}

func eventMessage(m core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:        m.ID,
		Room:      m.Room,
		User:      m.From,
		Text:      m.Text,
		ClientID:  m.ClientID,
		CreatedAt: proto.FormatTime(m.CreatedAt),
	}
}

func storedMessages(room string, msgs []*store.Message) []proto.EventMessage {
	return lo.Map(msgs, func(m *store.Message, _ int) proto.EventMessage {
		return proto.EventMessage{
			ID:        m.ID,
			Room:      room,
			User:      m.Username,
			Text:      m.Body,
			ClientID:  m.ClientID,
			CreatedAt: proto.FormatTime(m.CreatedAt),
		}
	})
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}

func roomResponse(r *store.Room) RoomResponse {
	return RoomResponse{
		ID:        r.ID,
		Name:      r.Name,
		Type:      string(r.Type),
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func authResponse(s *auth.Session) AuthResponse {
	return AuthResponse{Token: s.Token, User: userResponse(s.User)}
}
