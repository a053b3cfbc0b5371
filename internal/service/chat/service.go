// Package chat persists messages and hands them to the router once stored.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// DefaultMaxContentLength is the content limit in characters.
const DefaultMaxContentLength = 1000

// Common errors for chat operations.
var (
	ErrSenderNotFound   = errors.New("sender not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrReceiverNotFound = errors.New("receiver not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrEmptyContent     = errors.New("message content is empty")
	ErrContentTooLong   = errors.New("message content is too long")
	ErrNoTarget         = errors.New("message needs a room or a receiver")
	ErrInvalidRoomName  = errors.New("invalid room name")
	ErrRoomExists       = errors.New("room already exists")
)

// Option configures a Service.
type Option func(*Service)

// WithMaxContentLength overrides the content limit.
func WithMaxContentLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxContent = n
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(c *Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger
		}
	}
}

// Service provides message and room business logic.
type Service struct {
	store      store.Store
	router     *core.Router
	clock      *Clock
	maxContent int
	log        *zerolog.Logger
}

// New creates a chat service. router may be nil when only persistence is needed.
func New(st store.Store, router *core.Router, opts ...Option) *Service {
	nop := zerolog.Nop()
	s := &Service{
		store:      st,
		router:     router,
		clock:      NewClock(nil),
		maxContent: DefaultMaxContentLength,
		log:        &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveMessage validates and persists a message. Nothing is written when the
// sender, room or receiver does not exist.
func (s *Service) SaveMessage(ctx context.Context, senderID int64, roomID, receiverID *int64, content string) (*store.Message, error) {
	msg, _, err := s.saveMessage(ctx, senderID, roomID, receiverID, content)
	return msg, err
}

// Send persists a message and then routes it. Routing is skipped when
// persistence fails.
func (s *Service) Send(ctx context.Context, senderID int64, roomID, receiverID *int64, content string) (*core.ChatMessage, error) {
	msg, sender, err := s.saveMessage(ctx, senderID, roomID, receiverID, content)
	if err != nil {
		return nil, err
	}

	out := toChatMessage(msg, sender.Username)
	if s.router != nil {
		s.router.Route(out)
	}
	return &out, nil
}

func (s *Service) saveMessage(ctx context.Context, senderID int64, roomID, receiverID *int64, content string) (*store.Message, *store.User, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > s.maxContent {
		return nil, nil, ErrContentTooLong
	}
	if roomID == nil && receiverID == nil {
		return nil, nil, ErrNoTarget
	}

	sender, err := s.store.GetUserByID(ctx, senderID)
	if err != nil {
		return nil, nil, lookupErr(err, ErrSenderNotFound, "get sender")
	}
	if roomID != nil {
		if _, err := s.store.GetRoomByID(ctx, *roomID); err != nil {
			return nil, nil, lookupErr(err, ErrRoomNotFound, "get room")
		}
	}
	if receiverID != nil {
		if _, err := s.store.GetUserByID(ctx, *receiverID); err != nil {
			return nil, nil, lookupErr(err, ErrReceiverNotFound, "get receiver")
		}
	}

	msg := &store.Message{
		SenderID:   senderID,
		RoomID:     roomID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, nil, fmt.Errorf("save message: %w", err)
	}

	s.log.Debug().
		Int64("message_id", msg.ID).
		Int64("user_id", senderID).
		Bool("private", msg.IsPrivate()).
		Msg("message saved")
	return msg, sender, nil
}

// RoomMessages returns a room's history in ascending timestamp order.
func (s *Service) RoomMessages(ctx context.Context, roomID int64) ([]core.ChatMessage, error) {
	if _, err := s.store.GetRoomByID(ctx, roomID); err != nil {
		return nil, lookupErr(err, ErrRoomNotFound, "get room")
	}
	msgs, err := s.store.ListRoomMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list room messages: %w", err)
	}
	return s.withUsernames(ctx, msgs)
}

// PrivateMessages returns the conversation between two users in both directions.
func (s *Service) PrivateMessages(ctx context.Context, userA, userB int64) ([]core.ChatMessage, error) {
	if _, err := s.store.GetUserByID(ctx, userB); err != nil {
		return nil, lookupErr(err, ErrUserNotFound, "get user")
	}
	msgs, err := s.store.ListPrivateMessages(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("list private messages: %w", err)
	}
	return s.withUsernames(ctx, msgs)
}

// PublicRooms lists all public rooms.
func (s *Service) PublicRooms(ctx context.Context) ([]*store.Room, error) {
	rooms, err := s.store.ListRoomsByType(ctx, store.RoomTypePublic)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// CreatePublicRoom creates a public room with a unique name.
func (s *Service) CreatePublicRoom(ctx context.Context, name string) (*store.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 64 {
		return nil, ErrInvalidRoomName
	}
	room, err := s.store.CreateRoom(ctx, name, store.RoomTypePublic)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

// RoomExists reports whether roomID names a stored room.
func (s *Service) RoomExists(ctx context.Context, roomID int64) (bool, error) {
	_, err := s.store.GetRoomByID(ctx, roomID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("get room: %w", err)
}

// UserIDByUsername resolves a username to a user id.
func (s *Service) UserIDByUsername(ctx context.Context, username string) (int64, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return 0, lookupErr(err, ErrUserNotFound, "get user")
	}
	return user.ID, nil
}

func (s *Service) withUsernames(ctx context.Context, msgs []*store.Message) ([]core.ChatMessage, error) {
	names := make(map[int64]string)
	out := make([]core.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		name, ok := names[m.SenderID]
		if !ok {
			user, err := s.store.GetUserByID(ctx, m.SenderID)
			if err != nil {
				return nil, fmt.Errorf("get sender %d: %w", m.SenderID, err)
			}
			name = user.Username
			names[m.SenderID] = name
		}
		out = append(out, toChatMessage(m, name))
	}
	return out, nil
}

func toChatMessage(m *store.Message, senderUsername string) core.ChatMessage {
	return core.ChatMessage{
		ID:             m.ID,
		SenderID:       m.SenderID,
		SenderUsername: senderUsername,
		RoomID:         m.RoomID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		Timestamp:      m.CreatedAt.UTC().Truncate(time.Microsecond),
	}
}

func lookupErr(err, notFound error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
