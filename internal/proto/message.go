package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin  = "join"
	InboundTypeLeave = "leave"
	InboundTypeMsg   = "msg"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameMessage  = "message"
	EventNamePresence = "presence"
	EventNameJoined   = "joined"
	EventNameLeft     = "left"
	EventNameWelcome  = "welcome"
)

// RoomData names a room to join or leave.
type RoomData struct {
	RoomID int64 `json:"room_id"`
}

// MsgData is a chat message from the client. A message with a receiver is
// private; otherwise it goes to the room.
type MsgData struct {
	RoomID     *int64 `json:"room_id,omitempty"`
	ReceiverID *int64 `json:"receiver_id,omitempty"`
	Content    string `json:"content"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage is a delivered chat message. It is also the REST message body.
type EventMessage struct {
	ID             int64  `json:"id"`
	SenderID       int64  `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	RoomID         *int64 `json:"room_id,omitempty"`
	ReceiverID     *int64 `json:"receiver_id,omitempty"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

// EventPresence announces a user going online or offline.
type EventPresence struct {
	UserID int64  `json:"user_id"`
	Online bool   `json:"online"`
	Seq    uint64 `json:"seq"`
	At     string `json:"at"`
}

// EventRoom confirms a join or leave.
type EventRoom struct {
	RoomID int64 `json:"room_id"`
}

// EventWelcome opens every session.
type EventWelcome struct {
	SessionID     string  `json:"session_id"`
	Authenticated bool    `json:"authenticated"`
	UserID        int64   `json:"user_id,omitempty"`
	Username      string  `json:"username,omitempty"`
	OnlineUsers   []int64 `json:"online_users"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
