package core

import "github.com/vovakirdan/simplechat/internal/store"

// Room groups clients subscribed to the same channel.
type Room struct {
	Name    string
	ID      int64 // zero when the hub runs without a store
	Type    store.RoomType
	clients map[*Client]struct{}
}

// NewRoom constructs a room with no clients.
func NewRoom(name string, id int64, typ store.RoomType) *Room {
	return &Room{
		Name:    name,
		ID:      id,
		Type:    typ,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client into the room. Returns true if newly added.
func (r *Room) AddClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client from the room. Returns true if removed.
func (r *Room) RemoveClient(c *Client) bool {
	if _, exists := r.clients[c]; !exists {
		return false
	}
	delete(r.clients, c)
	return true
}

// Has reports whether c is subscribed.
func (r *Room) Has(c *Client) bool {
	_, ok := r.clients[c]
	return ok
}

// Broadcast sends an event to all clients in the room.
func (r *Room) Broadcast(event *Event) {
	for client := range r.clients {
		client.send(event)
	}
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.clients) == 0
}
