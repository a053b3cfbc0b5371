package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("duplicate")
)

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RoomType defines different types of rooms.
type RoomType string

const (
	// RoomTypePublic is an open, listable room with a broadcast topic.
	RoomTypePublic RoomType = "public"
)

// Room represents a chat room.
type Room struct {
	ID        int64
	Name      string
	Type      RoomType
	CreatedAt time.Time
}

// Message represents a persisted chat message.
// A message is addressed either to a room or to a receiver.
type Message struct {
	ID         int64
	SenderID   int64
	RoomID     *int64
	ReceiverID *int64
	Content    string
	CreatedAt  time.Time
}

// IsPrivate reports whether the message is addressed to a receiver.
func (m *Message) IsPrivate() bool {
	return m.ReceiverID != nil
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// ListUsers returns every user ordered by ID.
	ListUsers(ctx context.Context) ([]*User, error)
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a new room.
	CreateRoom(ctx context.Context, name string, roomType RoomType) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// ListRoomsByType lists rooms of the given type ordered by ID.
	ListRoomsByType(ctx context.Context, roomType RoomType) ([]*Room, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and sets its ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListRoomMessages returns room messages ordered by timestamp ascending.
	ListRoomMessages(ctx context.Context, roomID int64) ([]*Message, error)

	// ListPrivateMessages returns messages exchanged between two users in
	// either direction, ordered by timestamp ascending.
	ListPrivateMessages(ctx context.Context, userA, userB int64) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
