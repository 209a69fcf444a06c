package core

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/store"
)

// Store is the persistence the hub needs. A nil Store keeps everything in memory.
type Store interface {
	GetRoomByName(ctx context.Context, name string) (*store.Room, error)
	CreateRoom(ctx context.Context, name string, ownerID *int64) (*store.Room, error)
	IsMember(ctx context.Context, userID, roomID int64) (bool, error)
	SaveMessage(ctx context.Context, msg *store.Message) error
	ListMessages(ctx context.Context, roomID int64, limit int, beforeID *int64) ([]*store.Message, error)
}

// Options tune hub behaviour.
type Options struct {
	HistoryLimit     int
	MaxMessageLength int
}

type envelope struct {
	client *Client
	cmd    *Command
}

// Hub owns rooms and connections. All state is touched only by the Run goroutine.
type Hub struct {
	store Store
	opts  Options
	log   *zerolog.Logger
	now   func() time.Time

	register   chan *Client
	unregister chan *Client
	inbox      chan envelope
	done       chan struct{}

	rooms   map[string]*Room
	users   map[int64]map[*Client]struct{}
	clients map[*Client]context.CancelFunc
}

// NewHub creates a new chat hub instance.
func NewHub(st Store, opts Options, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 50
	}
	return &Hub{
		store:      st,
		opts:       opts,
		log:        logger,
		now:        time.Now,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan envelope, 256),
		done:       make(chan struct{}),
		rooms:      make(map[string]*Room),
		users:      make(map[int64]map[*Client]struct{}),
		clients:    make(map[*Client]context.CancelFunc),
	}
}

// RegisterClient attaches a client. It returns false once the hub has stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient detaches a client, removes it from its rooms and closes its Events.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run processes registrations and commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.handleRegister(ctx, c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case env := <-h.inbox:
			if _, ok := h.clients[env.client]; !ok {
				continue
			}
			h.handleCommand(ctx, env.client, env.cmd)
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, c *Client) {
	if _, ok := h.clients[c]; ok {
		return
	}
	pumpCtx, cancel := context.WithCancel(ctx)
	h.clients[c] = cancel
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[*Client]struct{})
	}
	h.users[c.UserID][c] = struct{}{}

	go h.pump(pumpCtx, c)
	h.log.Debug().Str("client_id", c.ID).Str("user", c.Name).Int("connections", len(h.users[c.UserID])).Msg("client registered")
}

// pump forwards one client's commands into the hub inbox.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- envelope{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Hub) handleUnregister(c *Client) {
	cancel, ok := h.clients[c]
	if !ok {
		return
	}
	cancel()
	delete(h.clients, c)

	for name := range c.rooms {
		if room, ok := h.rooms[name]; ok {
			h.removeFromRoom(room, c)
		}
	}

	if conns := h.users[c.UserID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.UserID)
		}
	}

	close(c.Events)
	h.log.Debug().Str("client_id", c.ID).Str("user", c.Name).Msg("client unregistered")
}

func (h *Hub) shutdown() {
	for c, cancel := range h.clients {
		cancel()
		close(c.Events)
	}
	clear(h.clients)
	clear(h.rooms)
	clear(h.users)
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	h.log.Debug().Str("client_id", c.ID).Stringer("command", cmd.Kind).Str("room", cmd.Room).Msg("command")
	switch cmd.Kind {
	case CommandJoinRoom:
		h.join(ctx, c, cmd.Room)
	case CommandLeaveRoom:
		h.leave(c, cmd.Room)
	case CommandSendRoomMessage:
		h.sendMessage(ctx, c, cmd.Room, cmd.Message)
	default:
		h.fail(c, cmd.Room, ErrCodeBadRequest, "unknown command "+cmd.Kind.String())
	}
}

func (h *Hub) join(ctx context.Context, c *Client, name string) {
	if name == "" {
		h.fail(c, name, ErrCodeBadRequest, "room is required")
		return
	}
	if _, ok := c.rooms[name]; ok {
		h.fail(c, name, ErrCodeAlreadyJoined, "already joined "+name)
		return
	}

	room, ok := h.rooms[name]
	if !ok {
		var cerr *Error
		room, cerr = h.openRoom(ctx, name)
		if cerr != nil {
			h.fail(c, name, cerr.Code, cerr.Message)
			return
		}
	}

	if room.Type == store.RoomTypeDirect {
		if cerr := h.checkMember(ctx, c, room); cerr != nil {
			h.fail(c, name, cerr.Code, cerr.Message)
			return
		}
	}

	h.rooms[name] = room
	room.AddClient(c)
	c.rooms[name] = struct{}{}

	room.Broadcast(&Event{Kind: EventUserJoined, Room: name, User: c.Name})
	h.sendHistory(ctx, c, room)
}

// openRoom loads a room from the store. Public rooms are created on demand.
func (h *Hub) openRoom(ctx context.Context, name string) (*Room, *Error) {
	direct := store.IsDirectRoomName(name)
	if h.store == nil {
		typ := store.RoomTypePublic
		if direct {
			typ = store.RoomTypeDirect
		}
		return NewRoom(name, 0, typ), nil
	}

	rec, err := h.store.GetRoomByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) && !direct {
		rec, err = h.store.CreateRoom(ctx, name, nil)
		if errors.Is(err, store.ErrConflict) {
			rec, err = h.store.GetRoomByName(ctx, name)
		}
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrCodeRoomNotFound, "room "+name+" not found")
		}
		h.log.Error().Err(err).Str("room", name).Msg("open room")
		return nil, newError(ErrCodeInternal, "failed to open room")
	}
	return NewRoom(rec.Name, rec.ID, rec.Type), nil
}

func (h *Hub) checkMember(ctx context.Context, c *Client, room *Room) *Error {
	if h.store == nil {
		a, b, _ := store.ParseDirectRoomName(room.Name)
		if c.UserID == a || c.UserID == b {
			return nil
		}
		return newError(ErrCodeForbidden, "not a member of "+room.Name)
	}
	ok, err := h.store.IsMember(ctx, c.UserID, room.ID)
	if err != nil {
		h.log.Error().Err(err).Str("room", room.Name).Int64("user_id", c.UserID).Msg("check membership")
		return newError(ErrCodeInternal, "failed to check membership")
	}
	if !ok {
		return newError(ErrCodeForbidden, "not a member of "+room.Name)
	}
	return nil
}

func (h *Hub) sendHistory(ctx context.Context, c *Client, room *Room) {
	ev := &Event{Kind: EventHistory, Room: room.Name, Messages: []Message{}}
	if h.store != nil && room.ID != 0 {
		msgs, err := h.store.ListMessages(ctx, room.ID, h.opts.HistoryLimit, nil)
		if err != nil {
			h.log.Error().Err(err).Str("room", room.Name).Msg("load history")
		}
		for _, m := range msgs {
			ev.Messages = append(ev.Messages, messageFromRecord(room.Name, m))
		}
	}
	c.send(ev)
}

func (h *Hub) leave(c *Client, name string) {
	room, ok := h.rooms[name]
	if !ok {
		h.fail(c, name, ErrCodeRoomNotFound, "room "+name+" not found")
		return
	}
	if !room.Has(c) {
		h.fail(c, name, ErrCodeNotInRoom, "not in room "+name)
		return
	}
	h.removeFromRoom(room, c)
	// the leaver gets the event too, as an acknowledgement
	c.send(&Event{Kind: EventUserLeft, Room: name, User: c.Name})
}

func (h *Hub) removeFromRoom(room *Room, c *Client) {
	room.RemoveClient(c)
	delete(c.rooms, room.Name)
	room.Broadcast(&Event{Kind: EventUserLeft, Room: room.Name, User: c.Name})
	if room.Empty() {
		delete(h.rooms, room.Name)
	}
}

func (h *Hub) sendMessage(ctx context.Context, c *Client, name string, msg Message) {
	if strings.TrimSpace(msg.Text) == "" {
		h.fail(c, name, ErrCodeBadRequest, "message is empty")
		return
	}
	if h.opts.MaxMessageLength > 0 && utf8.RuneCountInString(msg.Text) > h.opts.MaxMessageLength {
		h.fail(c, name, ErrCodeMessageTooLong, "message is too long")
		return
	}
	room, ok := h.rooms[name]
	if !ok || !room.Has(c) {
		h.fail(c, name, ErrCodeNotInRoom, "not in room "+name)
		return
	}

	msg.Room = name
	msg.From = c.Name
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = h.now()
	}

	if h.store != nil && room.ID != 0 {
		rec := msg.record(room.ID, c.UserID)
		if err := h.store.SaveMessage(ctx, rec); err != nil {
			h.log.Error().Err(err).Str("room", name).Msg("save message")
			h.fail(c, name, ErrCodeInternal, "failed to save message")
			return
		}
		msg.ID = rec.ID
	}

	ev := &Event{Kind: EventRoomMessage, Room: name, User: c.Name, Message: msg}
	room.Broadcast(ev)

	if room.Type == store.RoomTypeDirect {
		h.notifyDirect(room, ev)
	}
}

// notifyDirect reaches connections of direct room members that have not joined it.
func (h *Hub) notifyDirect(room *Room, ev *Event) {
	a, b, ok := store.ParseDirectRoomName(room.Name)
	if !ok {
		return
	}
	for _, uid := range []int64{a, b} {
		for conn := range h.users[uid] {
			if !room.Has(conn) {
				conn.send(ev)
			}
		}
		if a == b {
			break
		}
	}
}

func (h *Hub) fail(c *Client, room, code, msg string) {
	c.send(&Event{Kind: EventError, Room: room, Error: newError(code, msg)})
}
