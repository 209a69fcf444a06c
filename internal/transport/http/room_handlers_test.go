package http

import (
	stdhttp "net/http"
	"testing"

	"github.com/vovakirdan/simplechat/internal/config"
)

func TestCreateAndListRooms(t *testing.T) {
	env := newTestEnv(t, config.ServerConfig{})
	alice := env.register(t, "alice")

	var created RoomResponse
	status := env.doJSON(t, stdhttp.MethodPost, "/api/rooms", alice.Token, CreateRoomRequest{Name: "gophers"}, &created)
	if status != stdhttp.StatusCreated {
		t.Fatalf("create room: status %d", status)
	}
	if created.Name != "gophers" || created.Type != "public" || created.OwnerID == nil || *created.OwnerID != alice.User.ID {
		t.Fatalf("unexpected room: %+v", created)
	}

	if status := env.doJSON(t, stdhttp.MethodPost, "/api/rooms", alice.Token, CreateRoomRequest{Name: "gophers"}, nil); status != stdhttp.StatusConflict {
		t.Fatalf("expected 409 for duplicate room, got %d", status)
	}
	if status := env.doJSON(t, stdhttp.MethodPost, "/api/rooms", alice.Token, CreateRoomRequest{Name: "dm:1:2"}, nil); status != stdhttp.StatusBadRequest {
		t.Fatalf("expected 400 for reserved name, got %d", status)
	}

	var rooms []RoomResponse
	if status := env.doJSON(t, stdhttp.MethodGet, "/api/rooms", alice.Token, nil, &rooms); status != stdhttp.StatusOK {
		t.Fatalf("list rooms: status %d", status)
	}
	names := map[string]bool{}
	for _, r := range rooms {
		names[r.Name] = true
	}
	if !names["general"] || !names["gophers"] {
		t.Fatalf("expected general and gophers, got %+v", rooms)
	}
}
