package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/ratelimit"
)

// connLimiter caps inbound messages per WebSocket connection per minute.
type connLimiter struct {
	mu      sync.Mutex
	limit   int
	counter int
	window  time.Duration
	resetAt time.Time
	now     func() time.Time
}

func newConnLimiter(limit int) *connLimiter {
	return &connLimiter{
		limit:  limit,
		window: time.Minute,
		now:    time.Now,
	}
}

func (r *connLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if !now.Before(r.resetAt) {
		r.counter = 0
		r.resetAt = now.Add(r.window)
	}
	r.counter++
	return r.counter <= r.limit
}

// RateLimitMiddleware enforces the Redis sliding window per authenticated user.
// Redis failures let the request through.
func RateLimitMiddleware(limiter *ratelimit.Limiter, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		uid, ok := userIDFromContext(c)
		if !ok {
			c.Next()
			return
		}

		res, err := limiter.Allow(c.Request.Context(), strconv.FormatInt(uid, 10))
		if err != nil {
			logger.Warn().Err(err).Int64("user_id", uid).Msg("rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			retry := int(time.Until(res.ResetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			logger.Debug().Int64("user_id", uid).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
