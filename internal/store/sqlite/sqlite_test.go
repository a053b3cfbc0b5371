package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", ApplySchema)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustUser(t *testing.T, s *SQLiteStore, name string) *store.User {
	t.Helper()

	u, err := s.CreateUser(context.Background(), name, name+"@example.com", "hash")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return u
}

func TestSchemaSeedsGeneralRoom(t *testing.T) {
	s := newTestStore(t)

	rooms, err := s.ListRoomsByType(context.Background(), store.RoomTypePublic)
	if err != nil {
		t.Fatalf("list rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "general" {
		t.Fatalf("expected seeded general room, got %+v", rooms)
	}

	// Applying the schema again must not duplicate the seed.
	if err := ApplySchema(s.db); err != nil {
		t.Fatalf("reapply schema: %v", err)
	}
	rooms, _ = s.ListRoomsByType(context.Background(), store.RoomTypePublic)
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room after reapply, got %d", len(rooms))
	}
}

func TestUserLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")

	byName, err := s.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if byName.ID != alice.ID || byName.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", byName)
	}

	if _, err := s.GetUserByID(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CreateUser(ctx, "alice", "other@example.com", "hash"); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateRoomDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateRoom(ctx, "random", store.RoomTypePublic); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := s.CreateRoom(ctx, "random", store.RoomTypePublic); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := s.GetRoomByID(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMessageHistoryOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")
	carol := mustUser(t, s, "carol")
	general := int64(1)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	save := func(sender int64, room, receiver *int64, content string, at time.Time) {
		t.Helper()
		msg := &store.Message{SenderID: sender, RoomID: room, ReceiverID: receiver, Content: content, CreatedAt: at}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save %q: %v", content, err)
		}
		if msg.ID == 0 {
			t.Fatalf("expected id to be assigned for %q", content)
		}
	}

	save(alice.ID, &general, nil, "room-2", base.Add(2*time.Second))
	save(bob.ID, &general, nil, "room-1", base.Add(time.Second))
	save(alice.ID, nil, &bob.ID, "dm-1", base.Add(3*time.Second))
	save(bob.ID, nil, &alice.ID, "dm-2", base.Add(3500*time.Millisecond))
	save(alice.ID, nil, &carol.ID, "other", base.Add(4*time.Second))

	roomMsgs, err := s.ListRoomMessages(ctx, general)
	if err != nil {
		t.Fatalf("list room messages: %v", err)
	}
	if len(roomMsgs) != 2 || roomMsgs[0].Content != "room-1" || roomMsgs[1].Content != "room-2" {
		t.Fatalf("unexpected room history: %+v", roomMsgs)
	}
	if roomMsgs[0].ReceiverID != nil || roomMsgs[0].RoomID == nil || *roomMsgs[0].RoomID != general {
		t.Fatalf("unexpected room message fields: %+v", roomMsgs[0])
	}

	dms, err := s.ListPrivateMessages(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("list private messages: %v", err)
	}
	if len(dms) != 2 || dms[0].Content != "dm-1" || dms[1].Content != "dm-2" {
		t.Fatalf("unexpected private history: %+v", dms)
	}
	if !dms[0].CreatedAt.Equal(base.Add(3 * time.Second)) {
		t.Fatalf("timestamp not preserved: %v", dms[0].CreatedAt)
	}
}

func TestSaveMessageRejectsUnknownSender(t *testing.T) {
	s := newTestStore(t)
	general := int64(1)

	err := s.SaveMessage(context.Background(), &store.Message{
		SenderID:  77,
		RoomID:    &general,
		Content:   "hi",
		CreatedAt: time.Now(),
	})
	if err == nil {
		t.Fatalf("expected foreign key violation for unknown sender")
	}
}
