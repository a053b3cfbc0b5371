package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a random identifier for a transport session.
func NewSessionID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	return NewID()
}

// NewID returns a best-effort unique identifier.
func NewID() string {
	const size = 12

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// Fallback to timestamp if crypto/rand is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
