package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/events"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/ratelimit"
	"github.com/vovakirdan/wirechat-presence/internal/service/chat"
	"github.com/vovakirdan/wirechat-presence/internal/store"
	"github.com/vovakirdan/wirechat-presence/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirechat-presence/internal/transport/http"
)

const rateLimitKeyPrefix = "wirechat:ratelimit:send:"

// App wires together store, presence, core and transport layers.
type App struct {
	server          *transporthttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	tracker         *presence.Tracker
	redis           *redis.Client
	nats            *nats.Conn
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub(logger)
	a.tracker = presence.NewTracker(logger, hub)

	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL, logger)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init nats: %w", err)
		}
		a.nats = nc
		a.tracker.AddObserver(events.NewNATSPublisher(nc, cfg.NATSSubjectPrefix, logger))
		logger.Info().Str("url", cfg.NATSURL).Msg("presence events published to nats")
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			// The limiter fails open, so an unreachable Redis is not fatal.
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at startup")
		}
		cancel()
		limiter = ratelimit.NewLimiter(a.redis, rateLimitKeyPrefix, cfg.RedisRateLimit, cfg.RedisRateWindow)
		logger.Info().Str("addr", cfg.RedisAddr).Int("limit", cfg.RedisRateLimit).Msg("send rate limiting enabled")
	}

	chatService := chat.New(st, core.NewRouter(hub, logger),
		chat.WithMaxContentLength(cfg.MaxContentLength),
		chat.WithLogger(logger),
	)

	a.server = transporthttp.NewServer(transporthttp.Deps{
		Hub:       hub,
		Auth:      authService,
		Store:     st,
		Chat:      chatService,
		Tracker:   a.tracker,
		Lifecycle: presence.NewLifecycle(authService, a.tracker, logger),
		Limiter:   limiter,
	}, cfg, logger)

	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// cleanup closes database and broker connections.
func (a *App) cleanup() {
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			a.log.Warn().Err(err).Msg("failed to drain nats connection")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
	a.log.Info().Int("sessions", a.tracker.SessionCount()).Msg("app stopped")
}
