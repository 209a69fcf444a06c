package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/simplechat/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustCreateUser(t *testing.T, s *SQLiteStore, name string) *store.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), name, "hash")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return u
}

func TestCreateUserConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "alice")
	if _, err := s.CreateUser(ctx, "alice", "hash"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"alice", "alex", "alan", "bob", "charlie", "al_x"} {
		mustCreateUser(t, s, u)
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{name: "prefix", query: "al", expected: []string{"al_x", "alan", "alex", "alice"}},
		{name: "infix", query: "li", expected: []string{"alice", "charlie"}},
		{name: "none", query: "z", expected: []string{}},
		{name: "case insensitive", query: "Bob", expected: []string{"bob"}},
		{name: "underscore is literal", query: "l_", expected: []string{"al_x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.SearchUsers(ctx, tt.query)
			if err != nil {
				t.Fatalf("SearchUsers failed: %v", err)
			}

			names := make([]string, 0, len(results))
			for _, u := range results {
				names = append(names, u.Username)
			}
			if len(names) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, names)
			}
			for i := range names {
				if names[i] != tt.expected[i] {
					t.Errorf("expected %s at index %d, got %s", tt.expected[i], i, names[i])
				}
			}
		})
	}
}

func TestGeneralRoomIsSeeded(t *testing.T) {
	s := newTestStore(t)

	room, err := s.GetRoomByName(context.Background(), "general")
	if err != nil {
		t.Fatalf("expected seeded general room: %v", err)
	}
	if room.Type != store.RoomTypePublic || room.OwnerID != nil {
		t.Fatalf("unexpected general room: %+v", room)
	}
}

func TestDirectRoomIsSharedAndDeduplicated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bob")
	carol := mustCreateUser(t, s, "carol")

	first, err := s.GetOrCreateDirectRoom(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("create direct room: %v", err)
	}
	second, err := s.GetOrCreateDirectRoom(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("get direct room: %v", err)
	}
	if first.ID != second.ID || first.Name != store.DirectRoomName(alice.ID, bob.ID) {
		t.Fatalf("expected the same direct room, got %+v and %+v", first, second)
	}

	for _, u := range []*store.User{alice, bob} {
		ok, err := s.IsMember(ctx, u.ID, first.ID)
		if err != nil || !ok {
			t.Fatalf("expected %s to be a member: ok=%v err=%v", u.Username, ok, err)
		}
	}
	if ok, _ := s.IsMember(ctx, carol.ID, first.ID); ok {
		t.Fatalf("carol must not be a member of the alice/bob room")
	}

	rooms, err := s.ListRooms(ctx, carol.ID)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	for _, r := range rooms {
		if r.Type == store.RoomTypeDirect {
			t.Fatalf("carol should not see direct room %s", r.Name)
		}
	}

	rooms, err = s.ListRooms(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected general + direct room, got %d", len(rooms))
	}
}

func TestCreateRoomConflict(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateRoom(context.Background(), "general", nil); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestMessagesArePagedOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateUser(t, s, "alice")
	room, err := s.GetRoomByName(ctx, "general")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var ids []int64
	for i, body := range []string{"one", "two", "three", "four"} {
		msg := &store.Message{
			RoomID:    room.ID,
			UserID:    alice.ID,
			ClientID:  "c" + body,
			Body:      body,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message: %v", err)
		}
		ids = append(ids, msg.ID)
	}

	latest, err := s.ListMessages(ctx, room.ID, 2, nil)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(latest) != 2 || latest[0].Body != "three" || latest[1].Body != "four" {
		t.Fatalf("unexpected latest page: %+v", latest)
	}
	if latest[0].Username != "alice" || latest[0].ClientID != "cthree" {
		t.Fatalf("expected joined username and client id, got %+v", latest[0])
	}
	if !latest[1].CreatedAt.Equal(base.Add(3 * time.Minute)) {
		t.Fatalf("unexpected created_at: %v", latest[1].CreatedAt)
	}

	older, err := s.ListMessages(ctx, room.ID, 10, &ids[2])
	if err != nil {
		t.Fatalf("list older messages: %v", err)
	}
	if len(older) != 2 || older[0].Body != "one" || older[1].Body != "two" {
		t.Fatalf("unexpected older page: %+v", older)
	}
}
