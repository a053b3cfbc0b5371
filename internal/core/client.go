package core

const clientEventBuffer = 32

// Client is one transport session as seen by the core layer.
// UserID is zero for anonymous sessions.
type Client struct {
	ID       string
	UserID   int64
	Username string
	Events   chan *Event
}

// NewClient constructs a client with a buffered event channel.
func NewClient(id string, userID int64, username string) *Client {
	return NewClientWithBuffer(id, userID, username, clientEventBuffer)
}

// NewClientWithBuffer is NewClient with an explicit event buffer size.
func NewClientWithBuffer(id string, userID int64, username string, buffer int) *Client {
	if buffer < 1 {
		buffer = 1
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Username: username,
		Events:   make(chan *Event, buffer),
	}
}

// Authenticated reports whether the session is bound to a user.
func (c *Client) Authenticated() bool {
	return c.UserID > 0
}
