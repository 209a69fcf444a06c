package core

const clientBuffer = 64

// Client is one connection of a chat participant as seen by the core layer.
// A user may hold several clients at once.
type Client struct {
	ID       string
	UserID   int64
	Name     string
	Commands chan *Command
	Events   chan *Event

	// rooms is owned by the hub goroutine.
	rooms map[string]struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string, userID int64) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Name:     name,
		Commands: make(chan *Command, clientBuffer),
		Events:   make(chan *Event, clientBuffer),
		rooms:    make(map[string]struct{}),
	}
}

// send delivers an event without blocking the hub. Slow consumers lose events.
func (c *Client) send(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
