package http

import (
	stdhttp "net/http"
	"testing"

	"github.com/vovakirdan/simplechat/internal/config"
	"github.com/vovakirdan/simplechat/internal/proto"
	"github.com/vovakirdan/simplechat/internal/store"
)

func TestGetMessagesOpensDirectRoom(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	var hist proto.EventHistory
	status := env.doJSON(t, stdhttp.MethodGet, "/api/chat/get-messages/bob", alice.Token, nil, &hist)
	if status != stdhttp.StatusOK {
		t.Fatalf("get messages: status %d", status)
	}
	if hist.Room != store.DirectRoomName(alice.User.ID, bob.User.ID) || len(hist.Messages) != 0 {
		t.Fatalf("unexpected history: %+v", hist)
	}

	// a message sent over the socket shows up in the REST history of the peer
	conn := env.connect(t, alice.Token)
	writeFrame(t, conn, proto.InboundTypeJoin, proto.JoinData{Room: hist.Room})
	readEvent(t, conn, proto.EventNameHistory)
	writeFrame(t, conn, proto.InboundTypeMsg, proto.MsgData{Room: hist.Room, Text: "hey bob", ClientID: "c-1"})
	readEvent(t, conn, proto.EventNameMessage)

	var bobView proto.EventHistory
	if status := env.doJSON(t, stdhttp.MethodGet, "/api/chat/get-messages/alice", bob.Token, nil, &bobView); status != stdhttp.StatusOK {
		t.Fatalf("get messages as bob: status %d", status)
	}
	if bobView.Room != hist.Room || len(bobView.Messages) != 1 {
		t.Fatalf("unexpected history for bob: %+v", bobView)
	}
	got := bobView.Messages[0]
	if got.User != "alice" || got.Text != "hey bob" || got.ClientID != "c-1" || got.CreatedAt == "" {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestGetMessagesErrors(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	alice := env.register(t, "alice")

	if status := env.doJSON(t, stdhttp.MethodGet, "/api/chat/get-messages/nobody", alice.Token, nil, nil); status != stdhttp.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", status)
	}
	if status := env.doJSON(t, stdhttp.MethodGet, "/api/chat/get-messages/alice", alice.Token, nil, nil); status != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for self, got %d", status)
	}
}
