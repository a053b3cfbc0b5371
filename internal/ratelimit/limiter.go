// Package ratelimit implements a sliding window limiter on Redis sorted sets.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindow trims expired entries, counts the rest and records the
// request when under the limit. Returns {allowed, remaining, reset_at_ms}.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', key .. ':counter')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', key .. ':counter', expire_seconds)
		return {1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local reset_at = 0
	if oldest and #oldest >= 2 then
		reset_at = tonumber(oldest[2]) + window_ms
	end
	return {0, 0, reset_at}
`)

// Limiter applies a per-key request budget over a sliding window.
type Limiter struct {
	client    redis.Scripter
	keyPrefix string
	limit     int
	window    time.Duration
	now       func() time.Time
}

// Result describes the outcome of a single Allow call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// NewLimiter creates a limiter allowing limit requests per window for each key.
func NewLimiter(client redis.Scripter, keyPrefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
		now:       time.Now,
	}
}

// Allow records a request for key if the budget permits it.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	windowStart := now.Add(-l.window)

	res, err := slidingWindow.Run(ctx, l.client, []string{l.keyPrefix + key},
		now.UnixMilli(), windowStart.UnixMilli(), l.limit, l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected redis response length: %d", len(res))
	}

	resetAt := now.Add(l.window)
	if res[2] > 0 {
		resetAt = time.UnixMilli(res[2])
	}

	return &Result{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetAt:   resetAt,
		Limit:     l.limit,
	}, nil
}

// Limit returns the configured request budget.
func (l *Limiter) Limit() int {
	return l.limit
}
