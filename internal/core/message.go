package core

import "time"

// ChatMessage is a persisted message as delivered to subscribers.
// ReceiverID, when set, makes the message private; RoomID is then ignored for routing.
type ChatMessage struct {
	ID             int64
	SenderID       int64
	SenderUsername string
	RoomID         *int64
	ReceiverID     *int64
	Content        string
	Timestamp      time.Time
}

// IsPrivate reports whether the message targets a single user.
func (m ChatMessage) IsPrivate() bool {
	return m.ReceiverID != nil
}
