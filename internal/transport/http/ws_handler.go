package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/auth"
	"github.com/vovakirdan/simplechat/internal/core"
	"github.com/vovakirdan/simplechat/internal/proto"
)

const helloTimeout = 10 * time.Second

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub       *core.Hub
	auth      *auth.Service
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. rateLimit caps chat messages per
// minute and connection; zero disables the cap.
func NewWSHandler(hub *core.Hub, authService *auth.Service, rateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, rateLimit: rateLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	claims, protoErr := h.handshake(ctx, conn)
	if protoErr != nil {
		_ = wsjson.Write(ctx, conn, proto.NewError(protoErr.Code, protoErr.Msg))
		conn.Close(websocket.StatusPolicyViolation, protoErr.Code)
		return
	}

	client := core.NewClient(uuid.NewString(), claims.Username, claims.UserID)
	if !h.hub.RegisterClient(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	welcome, err := proto.NewEvent(proto.EventNameWelcome, proto.EventWelcome{
		User:     claims.Username,
		UserID:   claims.UserID,
		Protocol: proto.ProtocolVersion,
	})
	if err == nil {
		err = wsjson.Write(ctx, conn, welcome)
	}
	if err != nil {
		h.log.Warn().Err(err).Str("client_id", client.ID).Msg("write welcome")
		return
	}
	h.log.Info().Str("client_id", client.ID).Str("user", client.Name).Msg("ws client connected")

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		if s := websocket.CloseStatus(err); s == websocket.StatusNormalClosure || s == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			status = websocket.StatusInternalError
			reason = "internal error"
			h.log.Warn().Err(err).Str("client_id", client.ID).Msg("ws connection closed with error")
		}
	}
	h.log.Info().Str("client_id", client.ID).Str("user", client.Name).Msg("ws client disconnected")
	conn.Close(status, reason)
}

// handshake reads the hello frame, which must come first, and validates its token.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn) (*auth.Claims, *proto.Error) {
	helloCtx, cancel := context.WithTimeout(ctx, helloTimeout)
	defer cancel()

	var inbound proto.Inbound
	if err := wsjson.Read(helloCtx, conn, &inbound); err != nil {
		return nil, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "hello expected"}
	}
	if inbound.Type != proto.InboundTypeHello {
		return nil, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "hello must be the first message"}
	}

	var hello proto.HelloData
	if err := json.Unmarshal(inbound.Data, &hello); err != nil {
		return nil, &proto.Error{Code: proto.ErrCodeInvalidMessage, Msg: "malformed hello"}
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		return nil, &proto.Error{Code: proto.ErrCodeUnsupportedProtocol, Msg: "unsupported protocol version"}
	}

	claims, err := h.auth.ValidateToken(hello.Token)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws hello rejected")
		return nil, &proto.Error{Code: core.ErrCodeUnauthorized, Msg: "invalid token"}
	}
	return claims, nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.rateLimit)
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if inbound.Type == proto.InboundTypeMsg && !limiter.allow() {
			if err := h.writeError(ctx, conn, core.ErrCodeRateLimited, "too many messages"); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr, err := inboundToCommand(inbound)
		if err != nil {
			h.log.Debug().Err(err).Str("client_id", client.ID).Msg("failed to map inbound")
			protoErr = &proto.Error{Code: proto.ErrCodeInvalidMessage, Msg: "malformed " + inbound.Type}
		}
		if protoErr != nil {
			if err := h.writeError(ctx, conn, protoErr.Code, protoErr.Msg); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			out, err := outboundFromEvent(event)
			if err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("encode event")
				continue
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// writeError shares the connection with writeLoop; coder/websocket serializes writers.
func (h *WSHandler) writeError(ctx context.Context, conn *websocket.Conn, code, msg string) error {
	return wsjson.Write(ctx, conn, proto.NewError(code, msg))
}
