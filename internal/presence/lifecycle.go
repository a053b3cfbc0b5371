package presence

import (
	"strings"

	"github.com/rs/zerolog"
)

const bearerPrefix = "Bearer "

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(token string) (int64, error)
}

// Lifecycle reacts to transport connect and disconnect notifications.
// Malformed or unauthenticated connections are ignored: they stay anonymous
// at the transport level and carry no presence.
type Lifecycle struct {
	verifier TokenVerifier
	tracker  *Tracker
	log      *zerolog.Logger
}

// NewLifecycle creates a lifecycle handler.
func NewLifecycle(verifier TokenVerifier, tracker *Tracker, logger *zerolog.Logger) *Lifecycle {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Lifecycle{
		verifier: verifier,
		tracker:  tracker,
		log:      logger,
	}
}

// Connected handles a new transport session. authorization is the raw
// Authorization header value. ok is false when the session stays anonymous.
func (l *Lifecycle) Connected(sessionID, authorization string) (userID int64, ok bool) {
	if sessionID == "" {
		l.log.Debug().Msg("connect without session id ignored")
		return 0, false
	}

	token, ok := BearerToken(authorization)
	if !ok {
		l.log.Debug().Str("session_id", sessionID).Msg("anonymous session")
		return 0, false
	}

	userID, err := l.verifier.VerifyToken(token)
	if err != nil {
		l.log.Debug().Err(err).Str("session_id", sessionID).Msg("token rejected, session stays anonymous")
		return 0, false
	}

	l.tracker.Connect(sessionID, userID)
	l.log.Debug().
		Str("session_id", sessionID).
		Int64("user_id", userID).
		Int("sessions", l.tracker.Sessions(userID)).
		Msg("session registered")
	return userID, true
}

// Disconnected handles the end of a transport session. Sessions that were
// never registered are ignored.
func (l *Lifecycle) Disconnected(sessionID string) {
	if sessionID == "" {
		return
	}

	userID, offline, err := l.tracker.Disconnect(sessionID)
	if err != nil {
		l.log.Debug().Str("session_id", sessionID).Msg("disconnect for unregistered session ignored")
		return
	}
	l.log.Debug().
		Str("session_id", sessionID).
		Int64("user_id", userID).
		Bool("offline", offline).
		Msg("session unregistered")
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
