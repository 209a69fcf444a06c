package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint is violated.
var ErrConflict = errors.New("already exists")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RoomType defines different types of rooms.
type RoomType string

const (
	RoomTypePublic RoomType = "public"
	RoomTypeDirect RoomType = "direct"
)

// Room represents a chat room.
type Room struct {
	ID        int64
	Name      string
	Type      RoomType
	OwnerID   *int64 // nil for rooms created on demand and for direct rooms
	CreatedAt time.Time
}

// Message represents a persisted chat message.
type Message struct {
	ID        int64
	RoomID    int64
	UserID    int64
	Username  string // filled by ListMessages
	ClientID  string // id the sender assigned before delivery, may be empty
	Body      string
	CreatedAt time.Time
}

// DirectRoomName is the name of the direct room between two users.
// The order of the ids does not matter.
func DirectRoomName(userA, userB int64) string {
	return fmt.Sprintf("dm:%d:%d", min(userA, userB), max(userA, userB))
}

// ParseDirectRoomName returns the two user ids encoded in a direct room name.
func ParseDirectRoomName(name string) (userA, userB int64, ok bool) {
	if _, err := fmt.Sscanf(name, "dm:%d:%d", &userA, &userB); err != nil {
		return 0, 0, false
	}
	return userA, userB, DirectRoomName(userA, userB) == name
}

// IsDirectRoomName reports whether name follows the direct room naming scheme.
func IsDirectRoomName(name string) bool {
	_, _, ok := ParseDirectRoomName(name)
	return ok
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user. ErrConflict if the username is taken.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SearchUsers searches for users whose username contains query.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a new public room. ErrConflict if the name is taken.
	CreateRoom(ctx context.Context, name string, ownerID *int64) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// GetRoomByName retrieves a room by name.
	GetRoomByName(ctx context.Context, name string) (*Room, error)

	// GetOrCreateDirectRoom returns the direct room of two users, creating it and both
	// memberships if needed.
	GetOrCreateDirectRoom(ctx context.Context, userA, userB int64) (*Room, error)

	// ListRooms lists public rooms and the direct rooms the user belongs to.
	ListRooms(ctx context.Context, userID int64) ([]*Room, error)

	// AddMember adds a user to a room. Adding an existing member is not an error.
	AddMember(ctx context.Context, userID, roomID int64) error

	// IsMember checks if user is a member of the room.
	IsMember(ctx context.Context, userID, roomID int64) (bool, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and sets its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages retrieves messages from a room with pagination, oldest first.
	// If beforeID is provided, returns messages older than that ID.
	// Limit determines max number of messages to return.
	ListMessages(ctx context.Context, roomID int64, limit int, beforeID *int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
