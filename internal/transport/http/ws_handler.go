package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/proto"
	"github.com/vovakirdan/wirechat-presence/internal/service/chat"
	"github.com/vovakirdan/wirechat-presence/internal/store"
	"github.com/vovakirdan/wirechat-presence/internal/utils"
)

const accessTokenParam = "access_token"

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub       *core.Hub
	lifecycle *presence.Lifecycle
	tracker   *presence.Tracker
	chat      *chat.Service
	users     store.UserStore
	cfg       *config.Config
	log       *zerolog.Logger

	baseCtx  context.Context
	stop     context.CancelFunc
	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(deps Deps, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	baseCtx, stop := context.WithCancel(context.Background())
	return &WSHandler{
		baseCtx:   baseCtx,
		stop:      stop,
		hub:       deps.Hub,
		lifecycle: deps.Lifecycle,
		tracker:   deps.Tracker,
		chat:      deps.Chat,
		users:     deps.Store,
		cfg:       cfg,
		log:       logger,
	}
}

// authorizationFor returns the Authorization header, falling back to the
// access_token query parameter for browser clients that cannot set headers.
func authorizationFor(r *stdhttp.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return h
	}
	if token := r.URL.Query().Get(accessTokenParam); token != "" {
		return "Bearer " + token
	}
	return ""
}

// Shutdown closes every live session and waits for the handlers to return.
// Connections arriving afterwards are refused.
func (h *WSHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.stop()

	done := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track reserves a slot for a new session unless the handler is shut down.
func (h *WSHandler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions.Add(1)
	return true
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if !h.track() {
		stdhttp.Error(w, "server shutting down", stdhttp.StatusServiceUnavailable)
		return
	}
	defer h.sessions.Done()

	authorization := authorizationFor(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.OriginPatterns,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Hijacked connections outlive http.Server.Shutdown; tie them to the handler.
	defer context.AfterFunc(h.baseCtx, cancel)()

	sessionID := utils.NewSessionID()
	userID, _ := h.lifecycle.Connected(sessionID, authorization)
	defer h.lifecycle.Disconnected(sessionID)

	client := core.NewClient(sessionID, userID, h.username(ctx, userID))
	h.hub.Subscribe(core.PresenceChannel, client)
	if client.Authenticated() {
		h.hub.Subscribe(core.UserChannel(userID), client)
	}
	defer h.hub.RemoveClient(client)

	h.log.Info().
		Str("session_id", sessionID).
		Int64("user_id", userID).
		Bool("authenticated", client.Authenticated()).
		Msg("ws session opened")

	// The snapshot is taken after subscribing, so no transition falls between
	// it and the presence events that follow.
	welcome := outboundFromEvent(&core.Event{
		Kind: core.EventWelcome,
		Welcome: &core.WelcomeEvent{
			SessionID:   sessionID,
			UserID:      client.UserID,
			Username:    client.Username,
			OnlineUsers: h.tracker.OnlineUsers().Slice(),
		},
	})
	if err := wsjson.Write(ctx, conn, welcome); err != nil {
		h.log.Debug().Err(err).Str("session_id", sessionID).Msg("write welcome")
		return
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_id", sessionID).Msg("ws connection closed with error")
		}
	}

	if h.baseCtx.Err() != nil {
		status = websocket.StatusGoingAway
		reason = "server shutting down"
	}

	h.log.Info().Str("session_id", sessionID).Int64("user_id", userID).Msg("ws session closed")
	conn.Close(status, reason)
}

func (h *WSHandler) username(ctx context.Context, userID int64) string {
	if userID == 0 {
		return ""
	}
	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		h.log.Debug().Err(err).Int64("user_id", userID).Msg("lookup session user")
		return ""
	}
	return user.Username
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newConnLimiter(h.cfg.WSRateLimit)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("session_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			if err := wsjson.Write(ctx, conn, errorOutbound(core.ErrCodeRateLimited, "too many messages")); err != nil {
				return err
			}
			continue
		}

		reply := h.handleInbound(ctx, client, inbound)
		if reply == nil {
			continue
		}
		if err := wsjson.Write(ctx, conn, outboundFromEvent(reply)); err != nil {
			return err
		}
	}
}

// handleInbound applies one client request and returns the direct reply, if any.
func (h *WSHandler) handleInbound(ctx context.Context, client *core.Client, inbound proto.Inbound) *core.Event {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		roomID, perr := decodeRoom(inbound)
		if perr != nil {
			return core.ErrorEvent(core.NewError(perr.Code, perr.Msg))
		}
		exists, err := h.chat.RoomExists(ctx, roomID)
		if err != nil {
			h.log.Error().Err(err).Int64("room_id", roomID).Msg("room lookup failed")
			return core.ErrorEvent(core.NewError(core.ErrCodeInternal, "internal error"))
		}
		if !exists {
			return core.ErrorEvent(core.NewError(core.ErrCodeNotFound, "room not found"))
		}
		h.hub.Subscribe(core.RoomChannel(roomID), client)
		return &core.Event{Kind: core.EventJoined, RoomID: roomID}

	case proto.InboundTypeLeave:
		roomID, perr := decodeRoom(inbound)
		if perr != nil {
			return core.ErrorEvent(core.NewError(perr.Code, perr.Msg))
		}
		if !h.hub.Unsubscribe(core.RoomChannel(roomID), client) {
			return core.ErrorEvent(core.NewError(core.ErrCodeBadRequest, "not in room"))
		}
		return &core.Event{Kind: core.EventLeft, RoomID: roomID}

	case proto.InboundTypeMsg:
		if !client.Authenticated() {
			return core.ErrorEvent(core.NewError(core.ErrCodeUnauthorized, "authentication required"))
		}
		data, perr := decodeMsg(inbound)
		if perr != nil {
			return core.ErrorEvent(core.NewError(perr.Code, perr.Msg))
		}
		// Delivery to this session happens through its subscriptions.
		if _, err := h.chat.Send(ctx, client.UserID, data.RoomID, data.ReceiverID, data.Content); err != nil {
			return core.ErrorEvent(h.sendError(err, client))
		}
		return nil

	default:
		return core.ErrorEvent(core.NewError(core.ErrCodeInvalidMessage, "unknown message type"))
	}
}

func (h *WSHandler) sendError(err error, client *core.Client) *core.CoreError {
	switch {
	case errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrContentTooLong),
		errors.Is(err, chat.ErrNoTarget):
		return core.NewError(core.ErrCodeInvalidMessage, err.Error())
	case errors.Is(err, chat.ErrRoomNotFound),
		errors.Is(err, chat.ErrReceiverNotFound):
		return core.NewError(core.ErrCodeNotFound, err.Error())
	case errors.Is(err, chat.ErrSenderNotFound):
		return core.NewError(core.ErrCodeUnauthorized, err.Error())
	default:
		h.log.Error().Err(err).Str("session_id", client.ID).Msg("send message failed")
		return core.NewError(core.ErrCodeInternal, "internal error")
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Debug().Err(err).Str("session_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
