package presence

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Tracker is the presence store. It drives its own Registry and keeps the
// online set in step with it: a user is online exactly while they hold at
// least one registered session.
//
// Writes are serialized; reads load an immutable snapshot and never block.
// Observers are notified in transition order, after the write lock is
// released, and must not call Connect or Disconnect.
type Tracker struct {
	registry *Registry
	log      *zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	seq    uint64
	online atomic.Pointer[UserSet]

	notifyMu  sync.Mutex
	observers []Observer
}

// NewTracker creates a presence tracker with an empty registry.
func NewTracker(logger *zerolog.Logger, observers ...Observer) *Tracker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	t := &Tracker{
		registry:  NewRegistry(),
		log:       logger,
		now:       func() time.Time { return time.Now().UTC() },
		observers: observers,
	}
	empty := UserSet{}
	t.online.Store(&empty)
	return t
}

// AddObserver registers o for subsequent transitions.
func (t *Tracker) AddObserver(o Observer) {
	if o == nil {
		return
	}
	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()
	t.observers = append(t.observers, o)
}

// Connect registers a session for userID. It returns true when the user went
// online because of it. Additional sessions of an online user only bump the count.
func (t *Tracker) Connect(sessionID string, userID int64) bool {
	t.mu.Lock()
	if !t.registry.Register(sessionID, userID) {
		t.mu.Unlock()
		return false
	}

	next := t.online.Load().clone()
	next[userID] = struct{}{}
	t.online.Store(&next)
	tr := t.transition(userID, StateOnline)

	t.publish(tr)
	return true
}

// Disconnect unregisters a session. offline is true when it was the user's
// last session. Unknown sessions return ErrSessionNotFound and change nothing.
func (t *Tracker) Disconnect(sessionID string) (userID int64, offline bool, err error) {
	t.mu.Lock()
	userID, last, err := t.registry.Unregister(sessionID)
	if err != nil || !last {
		t.mu.Unlock()
		return userID, false, err
	}

	next := t.online.Load().clone()
	delete(next, userID)
	t.online.Store(&next)
	tr := t.transition(userID, StateOffline)

	t.publish(tr)
	return userID, true, nil
}

// IsOnline reports whether userID holds at least one session.
func (t *Tracker) IsOnline(userID int64) bool {
	return t.online.Load().Contains(userID)
}

// OnlineUsers returns a point-in-time copy of the online set.
func (t *Tracker) OnlineUsers() UserSet {
	return t.online.Load().clone()
}

// Sessions returns the number of live sessions held by userID.
func (t *Tracker) Sessions(userID int64) int {
	return t.registry.Sessions(userID)
}

// SessionCount returns the number of registered sessions across all users.
func (t *Tracker) SessionCount() int {
	return t.registry.Len()
}

// transition must be called with t.mu held.
func (t *Tracker) transition(userID int64, state State) Transition {
	t.seq++
	return Transition{UserID: userID, State: state, Seq: t.seq, At: t.now()}
}

// publish hands the write lock over to the notify lock so observers see
// transitions in the order they were applied. Called with t.mu held; releases it.
func (t *Tracker) publish(tr Transition) {
	t.notifyMu.Lock()
	t.mu.Unlock()
	defer t.notifyMu.Unlock()

	t.log.Info().
		Int64("user_id", tr.UserID).
		Str("state", string(tr.State)).
		Uint64("seq", tr.Seq).
		Msg("presence changed")

	for _, o := range t.observers {
		o.PresenceChanged(tr)
	}
}
