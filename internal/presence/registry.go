// Package presence maps transport sessions to authenticated users and derives
// per-user online state from reference-counted session ownership.
package presence

import (
	"errors"
	"sync"
)

// ErrSessionNotFound is returned when unregistering a session that was never
// registered or was already removed.
var ErrSessionNotFound = errors.New("session not found")

// Registry owns the session -> user mapping and the per-user session counts.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]int64
	counts   map[int64]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]int64),
		counts:   make(map[int64]int),
	}
}

// Register binds sessionID to userID. It returns true when this session moved
// the user's count from 0 to 1. Registering an already known session, or an
// empty session id, is a no-op that returns false.
func (r *Registry) Register(sessionID string, userID int64) bool {
	if sessionID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sessionID]; exists {
		return false
	}
	r.sessions[sessionID] = userID
	r.counts[userID]++
	return r.counts[userID] == 1
}

// Unregister removes sessionID and decrements its user's count. last is true
// when the removed session was the user's final one; the counter is deleted then.
func (r *Registry) Unregister(sessionID string) (userID int64, last bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, exists := r.sessions[sessionID]
	if !exists {
		return 0, false, ErrSessionNotFound
	}
	delete(r.sessions, sessionID)

	r.counts[userID]--
	if r.counts[userID] <= 0 {
		delete(r.counts, userID)
		return userID, true, nil
	}
	return userID, false, nil
}

// Lookup returns the user bound to sessionID.
func (r *Registry) Lookup(sessionID string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.sessions[sessionID]
	return userID, ok
}

// Sessions returns the number of live sessions held by userID.
func (r *Registry) Sessions(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[userID]
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
