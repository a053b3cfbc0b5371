package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/service/chat"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// RoomHandlers provides HTTP handlers for rooms and message history.
type RoomHandlers struct {
	chat *chat.Service
	log  *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(chatService *chat.Service, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		chat: chatService,
		log:  logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// SendMessageRequest represents the send message request body.
type SendMessageRequest struct {
	RoomID     *int64 `json:"room_id"`
	ReceiverID *int64 `json:"receiver_id"`
	Content    string `json:"content" binding:"required"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

func roomView(room *store.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Type:      string(room.Type),
		CreatedAt: room.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	uid, ok := requireUserID(c, h.log)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.chat.CreatePublicRoom(c.Request.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrRoomExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room with this name already exists"})
		case errors.Is(err, chat.ErrInvalidRoomName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("room_name", room.Name).Int64("room_id", room.ID).Int64("user_id", uid).Msg("room created successfully")
	c.JSON(http.StatusCreated, roomView(room))
}

// ListRooms handles listing public rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.chat.PublicRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomView(room))
	}
	c.JSON(http.StatusOK, response)
}

// RoomMessages returns a room's history.
// GET /api/rooms/:roomId/messages
func (h *RoomHandlers) RoomMessages(c *gin.Context) {
	roomID, ok := pathID(c, "roomId")
	if !ok {
		return
	}

	msgs, err := h.chat.RoomMessages(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to load room messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, messageViews(msgs))
}

// PrivateMessages returns the conversation between the caller and another user.
// GET /api/rooms/private/:otherUserId/messages
func (h *RoomHandlers) PrivateMessages(c *gin.Context) {
	uid, ok := requireUserID(c, h.log)
	if !ok {
		return
	}
	otherID, ok := pathID(c, "otherUserId")
	if !ok {
		return
	}

	msgs, err := h.chat.PrivateMessages(c.Request.Context(), uid, otherID)
	if err != nil {
		if errors.Is(err, chat.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Int64("other_user_id", otherID).Msg("failed to load private messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, messageViews(msgs))
}

// SendMessage persists a message and routes it to live sessions.
// POST /api/rooms/messages
func (h *RoomHandlers) SendMessage(c *gin.Context) {
	uid, ok := requireUserID(c, h.log)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.chat.Send(c.Request.Context(), uid, req.RoomID, req.ReceiverID, req.Content)
	if err != nil {
		status, text := sendErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to send message")
		}
		c.JSON(status, ErrorResponse{Error: text})
		return
	}
	c.JSON(http.StatusCreated, messageView(*msg))
}

func sendErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrContentTooLong),
		errors.Is(err, chat.ErrNoTarget):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chat.ErrRoomNotFound),
		errors.Is(err, chat.ErrReceiverNotFound),
		errors.Is(err, chat.ErrSenderNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func messageViews(msgs []core.ChatMessage) []proto.EventMessage {
	out := make([]proto.EventMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView(m))
	}
	return out
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}
