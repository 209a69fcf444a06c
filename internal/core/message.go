package core

import (
	"time"

	"github.com/vovakirdan/simplechat/internal/store"
)

// Message is a chat line as the hub routes it. ClientID is the sender's
// local id and comes back unchanged so the sender can match its echo.
type Message struct {
	ID        int64
	Room      string
	From      string
	ClientID  string
	Text      string
	CreatedAt time.Time
}

func (m Message) record(roomID, userID int64) *store.Message {
	return &store.Message{
		RoomID:    roomID,
		UserID:    userID,
		ClientID:  m.ClientID,
		Body:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func messageFromRecord(room string, rec *store.Message) Message {
	return Message{
		ID:        rec.ID,
		Room:      room,
		From:      rec.Username,
		ClientID:  rec.ClientID,
		Text:      rec.Body,
		CreatedAt: rec.CreatedAt,
	}
}
