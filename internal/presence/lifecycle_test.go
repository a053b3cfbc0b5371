package presence

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeVerifier map[string]int64

func (f fakeVerifier) VerifyToken(token string) (int64, error) {
	if uid, ok := f[token]; ok {
		return uid, nil
	}
	return 0, errors.New("token expired")
}

func newTestLifecycle(t *testing.T) (*Lifecycle, *Tracker, *recorder) {
	t.Helper()
	tracker, rec := newTestTracker(t)
	logger := zerolog.Nop()
	verifier := fakeVerifier{"good-a": 1, "good-b": 2}
	return NewLifecycle(verifier, tracker, &logger), tracker, rec
}

func TestLifecycleValidTokenRegisters(t *testing.T) {
	lc, tracker, rec := newTestLifecycle(t)

	uid, ok := lc.Connected("s1", "Bearer good-a")
	require.True(t, ok)
	require.Equal(t, int64(1), uid)
	require.True(t, tracker.IsOnline(1))

	lc.Disconnected("s1")
	require.False(t, tracker.IsOnline(1))
	require.Equal(t, 1, rec.count(StateOffline))
}

func TestLifecycleIgnoresMalformedConnects(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		header    string
	}{
		{"missing session id", "", "Bearer good-a"},
		{"missing header", "s1", ""},
		{"wrong scheme", "s1", "Basic good-a"},
		{"lowercase scheme", "s1", "bearer good-a"},
		{"empty token", "s1", "Bearer "},
		{"token with spaces", "s1", "Bearer good-a extra"},
		{"expired token", "s1", "Bearer expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc, tracker, rec := newTestLifecycle(t)

			_, ok := lc.Connected(tt.sessionID, tt.header)
			require.False(t, ok)
			require.Equal(t, 0, tracker.SessionCount())
			require.Empty(t, tracker.OnlineUsers())

			// The matching disconnect for an anonymous session is a silent no-op.
			lc.Disconnected(tt.sessionID)
			require.Empty(t, rec.all())
		})
	}
}

func TestLifecycleExpiredTokenDoesNotAffectOthers(t *testing.T) {
	lc, tracker, _ := newTestLifecycle(t)

	_, ok := lc.Connected("s-ok", "Bearer good-b")
	require.True(t, ok)

	_, ok = lc.Connected("s-expired", "Bearer stale")
	require.False(t, ok)
	lc.Disconnected("s-expired")

	require.True(t, tracker.IsOnline(2))
	require.Equal(t, 1, tracker.Sessions(2))
}

func TestLifecycleDisconnectTwice(t *testing.T) {
	lc, tracker, rec := newTestLifecycle(t)

	lc.Connected("s1", "Bearer good-a")
	lc.Connected("s2", "Bearer good-a")
	lc.Disconnected("s1")
	lc.Disconnected("s1")
	require.True(t, tracker.IsOnline(1), "repeated disconnect must not close s2")

	lc.Disconnected("s2")
	require.False(t, tracker.IsOnline(1))
	require.Equal(t, 1, rec.count(StateOnline))
	require.Equal(t, 1, rec.count(StateOffline))
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def.ghi")
	require.True(t, ok)
	require.Equal(t, "abc.def.ghi", token)

	_, ok = BearerToken("Bearerabc")
	require.False(t, ok)
}
