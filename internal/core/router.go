package core

import (
	"github.com/rs/zerolog"
)

// Publisher is the transport send primitive the Router writes to.
type Publisher interface {
	Publish(channel string, ev *Event) int
}

// Router maps a persisted message to its destination channels.
type Router struct {
	pub Publisher
	log *zerolog.Logger
}

// NewRouter creates a router publishing through pub.
func NewRouter(pub Publisher, logger *zerolog.Logger) *Router {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Router{pub: pub, log: logger}
}

// Destinations returns the channel keys msg is delivered to.
// A private message goes to both participants' user channels and never to a
// room; a message to oneself is sent once. Otherwise it goes to its room.
func Destinations(msg ChatMessage) []string {
	if msg.IsPrivate() {
		receiver := *msg.ReceiverID
		if receiver == msg.SenderID {
			return []string{UserChannel(receiver)}
		}
		return []string{UserChannel(msg.SenderID), UserChannel(receiver)}
	}
	if msg.RoomID != nil {
		return []string{RoomChannel(*msg.RoomID)}
	}
	return nil
}

// Route publishes msg to its destinations and returns them. Every destination
// receives the same event value.
func (r *Router) Route(msg ChatMessage) []string {
	dests := Destinations(msg)
	if len(dests) == 0 {
		r.log.Warn().Int64("message_id", msg.ID).Msg("message has no destination")
		return nil
	}

	ev := &Event{Kind: EventMessage, Message: &msg}
	if !msg.IsPrivate() {
		ev.RoomID = *msg.RoomID
	}
	for _, dest := range dests {
		n := r.pub.Publish(dest, ev)
		r.log.Debug().
			Int64("message_id", msg.ID).
			Str("channel", dest).
			Int("delivered", n).
			Msg("message routed")
	}
	return dests
}
