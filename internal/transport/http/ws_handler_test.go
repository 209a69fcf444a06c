package http

import (
	"testing"

	"github.com/vovakirdan/simplechat/internal/config"
	"github.com/vovakirdan/simplechat/internal/core"
	"github.com/vovakirdan/simplechat/internal/proto"
)

func TestWSHelloRequiredFirst(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	conn := env.dial(t)
	writeFrame(t, conn, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	if perr := readError(t, conn); perr.Code != core.ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", perr)
	}
}

func TestWSHelloRejectsBadToken(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})

	conn := env.dial(t)
	writeFrame(t, conn, proto.InboundTypeHello, proto.HelloData{Token: "nope"})
	if perr := readError(t, conn); perr.Code != core.ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", perr)
	}
}

func TestWSWelcomeAndRoomChat(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	connA := env.dial(t)
	writeFrame(t, connA, proto.InboundTypeHello, proto.HelloData{Token: alice.Token})
	welcomeFrame := readEvent(t, connA, proto.EventNameWelcome)
	var welcome proto.EventWelcome
	if err := welcomeFrame.Decode(&welcome); err != nil {
		t.Fatalf("decode welcome: %v", err)
	}
	if welcome.User != "alice" || welcome.UserID != alice.User.ID || welcome.Protocol != proto.ProtocolVersion {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}

	connB := env.connect(t, bob.Token)
	writeFrame(t, connA, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	readEvent(t, connA, proto.EventNameHistory)
	writeFrame(t, connB, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	readEvent(t, connB, proto.EventNameHistory)

	writeFrame(t, connA, proto.InboundTypeMsg, proto.MsgData{Room: "general", Text: "line one\nline two", ClientID: "local-7"})

	var got proto.EventMessage
	if err := readEvent(t, connB, proto.EventNameMessage).Decode(&got); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.User != "alice" || got.Text != "line one\nline two" || got.Room != "general" || got.ID == 0 {
		t.Fatalf("unexpected message: %+v", got)
	}
	if _, err := proto.ParseTime(got.CreatedAt); err != nil {
		t.Fatalf("created_at %q is not ISO-8601: %v", got.CreatedAt, err)
	}

	var echo proto.EventMessage
	if err := readEvent(t, connA, proto.EventNameMessage).Decode(&echo); err != nil {
		t.Fatalf("decode echo: %v", err)
	}
	if echo.ClientID != "local-7" || echo.ID != got.ID {
		t.Fatalf("echo does not carry the client id: %+v", echo)
	}
}

func TestWSRejectsUnknownFrames(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	alice := env.register(t, "alice")

	conn := env.connect(t, alice.Token)
	writeFrame(t, conn, "dance", map[string]string{})
	if perr := readError(t, conn); perr.Code != proto.ErrCodeInvalidMessage {
		t.Fatalf("expected invalid_message, got %+v", perr)
	}
	writeFrame(t, conn, proto.InboundTypeHello, proto.HelloData{Token: alice.Token})
	if perr := readError(t, conn); perr.Code != core.ErrCodeBadRequest {
		t.Fatalf("expected bad_request for second hello, got %+v", perr)
	}
}

func TestWSRateLimit(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{MessageRateLimit: 2})
	alice := env.register(t, "alice")

	conn := env.connect(t, alice.Token)
	writeFrame(t, conn, proto.InboundTypeJoin, proto.JoinData{Room: "general"})
	readEvent(t, conn, proto.EventNameHistory)

	for _, text := range []string{"one", "two", "three"} {
		writeFrame(t, conn, proto.InboundTypeMsg, proto.MsgData{Room: "general", Text: text})
	}
	if perr := readError(t, conn); perr.Code != core.ErrCodeRateLimited {
		t.Fatalf("expected rate_limited, got %+v", perr)
	}
}
