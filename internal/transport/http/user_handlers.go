package http

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// UserHandlers provides HTTP handlers for user and presence queries.
type UserHandlers struct {
	store   store.UserStore
	tracker *presence.Tracker
	log     *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(users store.UserStore, tracker *presence.Tracker, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store:   users,
		tracker: tracker,
		log:     logger,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// UserPresenceResponse is a user with their presence flag.
type UserPresenceResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Online   bool   `json:"online"`
}

// OnlineUsersResponse lists online user ids.
type OnlineUsersResponse struct {
	UserIDs []int64 `json:"user_ids"`
}

func userView(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Me returns the authenticated user.
// GET /api/users/me
func (h *UserHandlers) Me(c *gin.Context) {
	uid, ok := requireUserID(c, h.log)
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, userView(user))
}

// Online returns the ids of users with at least one live session.
// GET /api/users/online
func (h *UserHandlers) Online(c *gin.Context) {
	c.JSON(http.StatusOK, OnlineUsersResponse{UserIDs: h.tracker.OnlineUsers().Slice()})
}

// Presence lists every other user with an online flag, online users first,
// then by username ignoring case.
// GET /api/users/presence
func (h *UserHandlers) Presence(c *gin.Context) {
	uid, ok := requireUserID(c, h.log)
	if !ok {
		return
	}

	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	online := h.tracker.OnlineUsers()
	response := make([]UserPresenceResponse, 0, len(users))
	for _, u := range users {
		if u.ID == uid {
			continue
		}
		response = append(response, UserPresenceResponse{
			ID:       u.ID,
			Username: u.Username,
			Online:   online.Contains(u.ID),
		})
	}

	sort.SliceStable(response, func(i, j int) bool {
		a, b := response[i], response[j]
		if a.Online != b.Online {
			return a.Online
		}
		return strings.ToLower(a.Username) < strings.ToLower(b.Username)
	})
	c.JSON(http.StatusOK, response)
}
