// Package chatstore keeps the client's message log per room and forwards messages
// submitted by the composer to the server.
package chatstore

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/simplechat/internal/composer"
)

// Status tracks an entry through delivery.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusReceived Status = "received"
)

// Entry is one message in a room log.
type Entry struct {
	LocalID  string
	ServerID int64
	Room     string
	Record   composer.MessageRecord
	Status   Status
	Err      string
}

// Inbound is a message delivered by the server.
type Inbound struct {
	ServerID int64
	ClientID string
	Room     string
	Record   composer.MessageRecord
}

// Outbox delivers a locally submitted message to the server.
type Outbox interface {
	Send(ctx context.Context, room, clientID, text string) error
}

// ErrClosed is reported on entries submitted after Close.
var ErrClosed = errors.New("chatstore: closed")

// Store is safe for concurrent use.
type Store struct {
	ctx    context.Context
	outbox Outbox
	log    *zerolog.Logger

	mu     sync.RWMutex
	room   string
	rooms  map[string][]Entry
	subs   []chan struct{}
	closed bool

	inflight sync.WaitGroup
}

// New builds a store whose current room is room. A nil outbox keeps messages local.
func New(ctx context.Context, outbox Outbox, room string, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{
		ctx:    ctx,
		outbox: outbox,
		log:    logger,
		room:   room,
		rooms:  make(map[string][]Entry),
	}
}

// Room returns the room new messages are posted to.
func (s *Store) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// SetRoom switches the room new messages are posted to.
func (s *Store) SetRoom(room string) {
	s.mu.Lock()
	s.room = room
	s.mu.Unlock()
	s.notify()
}

// AddMessage appends record to the current room and delivers it in the background.
func (s *Store) AddMessage(record composer.MessageRecord) {
	entry := Entry{
		LocalID: uuid.NewString(),
		Record:  record,
		Status:  StatusPending,
	}

	s.mu.Lock()
	entry.Room = s.room
	switch {
	case s.closed:
		entry.Status = StatusFailed
		entry.Err = ErrClosed.Error()
	case s.outbox == nil:
		entry.Status = StatusSent
	}
	s.rooms[entry.Room] = append(s.rooms[entry.Room], entry)
	deliver := entry.Status == StatusPending
	if deliver {
		s.inflight.Add(1)
	}
	s.mu.Unlock()
	s.notify()

	if deliver {
		go s.deliver(entry)
	}
}

func (s *Store) deliver(entry Entry) {
	defer s.inflight.Done()

	err := s.outbox.Send(s.ctx, entry.Room, entry.LocalID, entry.Record.Content)
	if err != nil {
		s.log.Warn().Err(err).Str("room", entry.Room).Str("client_id", entry.LocalID).Msg("message delivery failed")
	}

	s.mu.Lock()
	changed := false
	if e := s.findLocked(entry.Room, entry.LocalID); e != nil && e.Status == StatusPending {
		if err != nil {
			e.Status = StatusFailed
			e.Err = err.Error()
		} else {
			e.Status = StatusSent
		}
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Receive merges a server message. An echo of a local message confirms it; anything
// else is appended, unless an entry with the same server id is already present.
func (s *Store) Receive(in Inbound) {
	s.mu.Lock()
	changed := s.mergeLocked(in)
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *Store) mergeLocked(in Inbound) bool {
	if in.ClientID != "" {
		if e := s.findLocked(in.Room, in.ClientID); e != nil {
			e.Status = StatusSent
			e.ServerID = in.ServerID
			e.Err = ""
			return true
		}
	}
	if in.ServerID != 0 {
		for _, e := range s.rooms[in.Room] {
			if e.ServerID == in.ServerID {
				return false
			}
		}
	}
	s.rooms[in.Room] = append(s.rooms[in.Room], Entry{
		LocalID:  in.ClientID,
		ServerID: in.ServerID,
		Room:     in.Room,
		Record:   in.Record,
		Status:   StatusReceived,
	})
	return true
}

// LoadHistory replaces the confirmed part of a room log with history (oldest first).
// A local entry whose echo is part of history is confirmed in place; other local
// entries without a server id stay at the end.
func (s *Store) LoadHistory(room string, history []Inbound) {
	s.mu.Lock()
	local := make(map[string]Entry)
	var order []string
	for _, e := range s.rooms[room] {
		if e.ServerID == 0 && e.Status != StatusReceived {
			local[e.LocalID] = e
			order = append(order, e.LocalID)
		}
	}
	s.rooms[room] = nil
	for _, in := range history {
		in.Room = room
		if e, ok := local[in.ClientID]; ok && in.ClientID != "" {
			delete(local, in.ClientID)
			e.Status = StatusSent
			e.ServerID = in.ServerID
			e.Err = ""
			s.rooms[room] = append(s.rooms[room], e)
			continue
		}
		s.mergeLocked(in)
	}
	for _, id := range order {
		if e, ok := local[id]; ok {
			s.rooms[room] = append(s.rooms[room], e)
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Messages returns a copy of the room log.
func (s *Store) Messages(room string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, len(s.rooms[room]))
	copy(out, s.rooms[room])
	return out
}

// Subscribe returns a channel that receives a value after every change. Notifications
// are coalesced; a slow reader sees one pending signal, never a blocked writer.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// Close waits for in-flight deliveries and closes subscriber channels.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.inflight.Wait()

	s.mu.Lock()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.mu.Unlock()
}

// Flush waits until every submitted message has been delivered or failed.
func (s *Store) Flush() {
	s.inflight.Wait()
}

func (s *Store) findLocked(room, localID string) *Entry {
	if localID == "" {
		return nil
	}
	entries := s.rooms[room]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].LocalID == localID {
			return &entries[i]
		}
	}
	return nil
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
