package core

import "strconv"

// PresenceChannel carries presence transitions to every session.
const PresenceChannel = "presence"

const (
	roomPrefix = "room:"
	userPrefix = "user:"
)

// RoomChannel returns the channel key for a room.
func RoomChannel(roomID int64) string {
	return roomPrefix + strconv.FormatInt(roomID, 10)
}

// UserChannel returns the private channel key for a user.
func UserChannel(userID int64) string {
	return userPrefix + strconv.FormatInt(userID, 10)
}

// Channel groups clients subscribed to the same key.
// It is not synchronized; the Hub guards it.
type Channel struct {
	Key     string
	clients map[*Client]struct{}
}

// NewChannel constructs a channel with no clients.
func NewChannel(key string) *Channel {
	return &Channel{
		Key:     key,
		clients: make(map[*Client]struct{}),
	}
}

// AddClient inserts a client. Returns true if newly added.
func (ch *Channel) AddClient(c *Client) bool {
	if _, exists := ch.clients[c]; exists {
		return false
	}
	ch.clients[c] = struct{}{}
	return true
}

// RemoveClient deletes a client. Returns true if removed.
func (ch *Channel) RemoveClient(c *Client) bool {
	if _, exists := ch.clients[c]; !exists {
		return false
	}
	delete(ch.clients, c)
	return true
}

// Snapshot returns the current subscribers.
func (ch *Channel) Snapshot() []*Client {
	out := make([]*Client, 0, len(ch.clients))
	for c := range ch.clients {
		out = append(out, c)
	}
	return out
}

// Len returns the number of subscribers.
func (ch *Channel) Len() int {
	return len(ch.clients)
}

// Empty returns true if no clients are subscribed.
func (ch *Channel) Empty() bool {
	return len(ch.clients) == 0
}
