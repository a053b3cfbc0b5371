package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/ratelimit"
	"github.com/vovakirdan/wirechat-presence/internal/service/chat"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// Deps are the services the HTTP layer is built on. Limiter may be nil.
type Deps struct {
	Hub       *core.Hub
	Auth      *auth.Service
	Store     store.Store
	Chat      *chat.Service
	Tracker   *presence.Tracker
	Lifecycle *presence.Lifecycle
	Limiter   *ratelimit.Limiter
}

// Server is the HTTP server plus the WebSocket sessions it has hijacked.
type Server struct {
	*stdhttp.Server
	ws *WSHandler
}

// Shutdown stops accepting requests, then closes live WebSocket sessions and
// waits for their handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	if wsErr := s.ws.Shutdown(ctx); err == nil {
		err = wsErr
	}
	return err
}

// NewServer builds an HTTP server with REST and WebSocket routes.
// /ws is served outside gin so the handler can hijack an unwritten response.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	apiHandlers := NewAPIHandlers(deps.Auth, logger)
	roomHandlers := NewRoomHandlers(deps.Chat, logger)
	userHandlers := NewUserHandlers(deps.Store, deps.Tracker, logger)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", apiHandlers.Register)
		authGroup.POST("/login", apiHandlers.Login)

		protected := api.Group("")
		protected.Use(AuthMiddleware(deps.Auth, deps.Store, logger))

		rooms := protected.Group("/rooms")
		rooms.GET("", roomHandlers.ListRooms)
		rooms.POST("", roomHandlers.CreateRoom)
		rooms.GET("/:roomId/messages", roomHandlers.RoomMessages)
		rooms.GET("/private/:otherUserId/messages", roomHandlers.PrivateMessages)
		rooms.POST("/messages", RateLimitMiddleware(deps.Limiter, logger), roomHandlers.SendMessage)

		users := protected.Group("/users")
		users.GET("/me", userHandlers.Me)
		users.GET("/online", userHandlers.Online)
		users.GET("/presence", userHandlers.Presence)
	}

	ws := NewWSHandler(deps, cfg, logger)
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	return &Server{
		Server: &stdhttp.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		ws: ws,
	}
}
