package core

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

// Hub is the channel-keyed send primitive. Publishing is fire-and-forget:
// events for a client whose buffer is full are dropped, never queued.
type Hub struct {
	log *zerolog.Logger

	mu       sync.RWMutex
	channels map[string]*Channel
	members  map[*Client]map[string]struct{}

	dropped atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		log:      logger,
		channels: make(map[string]*Channel),
		members:  make(map[*Client]map[string]struct{}),
	}
}

// Subscribe adds c to channel. Returns false if it was already subscribed.
func (h *Hub) Subscribe(channel string, c *Client) bool {
	if channel == "" || c == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[channel]
	if !ok {
		ch = NewChannel(channel)
		h.channels[channel] = ch
	}
	if !ch.AddClient(c) {
		return false
	}

	subs, ok := h.members[c]
	if !ok {
		subs = make(map[string]struct{})
		h.members[c] = subs
	}
	subs[channel] = struct{}{}
	return true
}

// Unsubscribe removes c from channel. Returns false if it was not subscribed.
func (h *Hub) Unsubscribe(channel string, c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unsubscribeLocked(channel, c)
}

// RemoveClient drops every subscription held by c.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for channel := range h.members[c] {
		h.unsubscribeLocked(channel, c)
	}
	delete(h.members, c)
}

func (h *Hub) unsubscribeLocked(channel string, c *Client) bool {
	ch, ok := h.channels[channel]
	if !ok || !ch.RemoveClient(c) {
		return false
	}
	if ch.Empty() {
		delete(h.channels, channel)
	}
	if subs, ok := h.members[c]; ok {
		delete(subs, channel)
		if len(subs) == 0 {
			delete(h.members, c)
		}
	}
	return true
}

// Publish delivers ev to every current subscriber of channel and returns how
// many accepted it. A channel with no subscribers is a silent no-op.
func (h *Hub) Publish(channel string, ev *Event) int {
	h.mu.RLock()
	ch, ok := h.channels[channel]
	var targets []*Client
	if ok {
		targets = ch.Snapshot()
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		select {
		case c.Events <- ev:
			delivered++
		default:
			// Drop if slow consumer.
			h.dropped.Add(1)
			h.log.Warn().
				Str("channel", channel).
				Str("session_id", c.ID).
				Msg("event dropped, client buffer full")
		}
	}
	return delivered
}

// Subscribers returns the number of clients subscribed to channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if ch, ok := h.channels[channel]; ok {
		return ch.Len()
	}
	return 0
}

// Dropped returns how many events were discarded for slow consumers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// PresenceChanged pushes a presence transition to the presence channel.
func (h *Hub) PresenceChanged(tr presence.Transition) {
	h.Publish(PresenceChannel, &Event{
		Kind: EventPresence,
		Presence: &PresenceEvent{
			UserID: tr.UserID,
			Online: tr.State == presence.StateOnline,
			Seq:    tr.Seq,
			At:     tr.At,
		},
	})
}
