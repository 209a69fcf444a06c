package http

import (
	"testing"

	"github.com/vovakirdan/simplechat/internal/config"
	"github.com/vovakirdan/simplechat/internal/proto"
)

func TestWSProtocolVersion(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	alice := env.register(t, "alice")

	// an omitted version means the current one
	for _, version := range []int{0, proto.ProtocolVersion} {
		conn := env.dial(t)
		writeFrame(t, conn, proto.InboundTypeHello, proto.HelloData{Token: alice.Token, Protocol: version})
		var welcome proto.EventWelcome
		if err := readEvent(t, conn, proto.EventNameWelcome).Decode(&welcome); err != nil {
			t.Fatalf("decode welcome: %v", err)
		}
		if welcome.Protocol != proto.ProtocolVersion {
			t.Fatalf("version %d: welcome announces protocol %d", version, welcome.Protocol)
		}
	}

	conn := env.dial(t)
	writeFrame(t, conn, proto.InboundTypeHello, proto.HelloData{Token: alice.Token, Protocol: proto.ProtocolVersion + 1})
	if perr := readError(t, conn); perr.Code != proto.ErrCodeUnsupportedProtocol {
		t.Fatalf("expected unsupported_protocol, got %+v", perr)
	}
}
