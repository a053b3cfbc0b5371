package presence

import (
	"slices"
	"time"
)

// State is a user's presence state.
type State string

const (
	StateOnline  State = "online"
	StateOffline State = "offline"
)

// Transition describes a single online or offline edge for a user.
// Seq increases by one for every transition emitted by a Tracker.
type Transition struct {
	UserID int64
	State  State
	Seq    uint64
	At     time.Time
}

// Observer receives presence transitions. Implementations must not block.
type Observer interface {
	PresenceChanged(tr Transition)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(tr Transition)

// PresenceChanged calls f(tr).
func (f ObserverFunc) PresenceChanged(tr Transition) {
	f(tr)
}

// UserSet is an immutable-by-convention set of user ids.
type UserSet map[int64]struct{}

// Contains reports whether userID is in the set.
func (s UserSet) Contains(userID int64) bool {
	_, ok := s[userID]
	return ok
}

// Slice returns the members in ascending order.
func (s UserSet) Slice() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s UserSet) clone() UserSet {
	out := make(UserSet, len(s)+1)
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
