package proto

import (
	"encoding/json"
	"time"
)

// TimeLayout is the ISO-8601 form used for created_at fields.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in TimeLayout, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"
	InboundTypeMsg   = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameWelcome    = "welcome"
	EventNameMessage    = "message"
	EventNameHistory    = "history"
	EventNameUserJoined = "user_joined"
	EventNameUserLeft   = "user_left"

	ErrCodeInvalidMessage      = "invalid_message"
	ErrCodeUnsupportedProtocol = "unsupported_protocol"
)

// HelloData authenticates the connection. It must be the first frame.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData requests to join or leave a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// MsgData is a chat message from the client. ClientID is echoed back in the
// resulting message event.
type MsgData struct {
	Room     string `json:"room"`
	Text     string `json:"text"`
	ClientID string `json:"client_id,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *Error          `json:"error,omitempty"`
}

// NewEvent builds an event envelope around data.
func NewEvent(name string, data any) (Outbound, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Outbound{}, err
	}
	return Outbound{Type: OutboundTypeEvent, Event: name, Data: raw}, nil
}

// NewError builds an error envelope.
func NewError(code, msg string) Outbound {
	return Outbound{Type: OutboundTypeError, Error: &Error{Code: code, Msg: msg}}
}

// Decode unmarshals the event payload into v.
func (o Outbound) Decode(v any) error {
	return json.Unmarshal(o.Data, v)
}

// EventWelcome confirms a successful hello.
type EventWelcome struct {
	User     string `json:"user"`
	UserID   int64  `json:"user_id"`
	Protocol int    `json:"protocol"`
}

// EventMessage is a chat message as seen by clients. CreatedAt is ISO-8601 UTC.
type EventMessage struct {
	ID        int64  `json:"id,omitempty"`
	Room      string `json:"room"`
	User      string `json:"user"`
	Text      string `json:"text"`
	ClientID  string `json:"client_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// EventHistory carries the latest messages of a room, oldest first.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// EventUserJoined notifies that a user joined a room.
type EventUserJoined struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventUserLeft notifies that a user left a room.
type EventUserLeft struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Msg
}

// ParseTime reads a created_at value written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}
