// Package events publishes presence transitions to NATS for readers outside
// this process.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// PresencePayload is the JSON body of a presence message.
type PresencePayload struct {
	UserID int64     `json:"user_id"`
	State  string    `json:"state"`
	Seq    uint64    `json:"seq"`
	At     time.Time `json:"at"`
}

// NATSPublisher forwards presence transitions to NATS subjects
// "<prefix>.presence.online" and "<prefix>.presence.offline".
type NATSPublisher struct {
	conn   Conn
	prefix string
	log    *zerolog.Logger
}

// Connect dials NATS with reconnect enabled.
func Connect(url string, logger *zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("wirechat-presence"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return nc, nil
}

// NewNATSPublisher creates a presence observer publishing through conn.
func NewNATSPublisher(conn Conn, prefix string, logger *zerolog.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = "wirechat"
	}
	return &NATSPublisher{conn: conn, prefix: prefix, log: logger}
}

// Subject returns the subject a transition to state is published on.
func (p *NATSPublisher) Subject(state presence.State) string {
	return p.prefix + ".presence." + string(state)
}

// PresenceChanged implements presence.Observer. Publish only buffers the
// message in the client, so this does not block on the network.
func (p *NATSPublisher) PresenceChanged(tr presence.Transition) {
	data, err := json.Marshal(PresencePayload{
		UserID: tr.UserID,
		State:  string(tr.State),
		Seq:    tr.Seq,
		At:     tr.At,
	})
	if err != nil {
		p.log.Error().Err(err).Msg("encode presence event")
		return
	}

	subject := p.Subject(tr.State)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).Str("subject", subject).Int64("user_id", tr.UserID).Msg("publish presence event")
	}
}
