package utils

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewSessionIDIsUniqueUUID(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id := NewSessionID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("session id %q is not a uuid: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewID(t *testing.T) {
	if a, b := NewID(), NewID(); a == "" || a == b {
		t.Fatalf("unexpected ids %q, %q", a, b)
	}
}
