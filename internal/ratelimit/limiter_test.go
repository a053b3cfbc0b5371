package ratelimit

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestNewLimiter(t *testing.T) {
	limiter := NewLimiter(nil, "test:", 5, time.Minute)

	if limiter.keyPrefix != "test:" {
		t.Errorf("expected keyPrefix 'test:', got %q", limiter.keyPrefix)
	}
	if limiter.Limit() != 5 {
		t.Errorf("expected limit 5, got %d", limiter.Limit())
	}
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	addr := os.Getenv("WIRECHAT_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLimiterAllowIntegration(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	prefix := "wirechat-test:" + uuid.NewString() + ":"
	limiter := NewLimiter(client, prefix, 3, time.Minute)
	t.Cleanup(func() {
		_ = client.Del(context.Background(), prefix+"42", prefix+"42:counter").Err()
	})

	for i := range 3 {
		res, err := limiter.Allow(ctx, "42")
		if err != nil {
			t.Fatalf("Allow() error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if want := 3 - i - 1; res.Remaining != want {
			t.Fatalf("remaining = %d, want %d", res.Remaining, want)
		}
	}

	res, err := limiter.Allow(ctx, "42")
	if err != nil {
		t.Fatalf("Allow() error: %v", err)
	}
	if res.Allowed {
		t.Fatal("fourth request should be rejected")
	}
	if !res.ResetAt.After(time.Now()) {
		t.Fatalf("reset time should be in the future, got %v", res.ResetAt)
	}

	// Keys are independent.
	other, err := limiter.Allow(ctx, strconv.Itoa(43))
	if err != nil || !other.Allowed {
		t.Fatalf("other key should be allowed: %+v, %v", other, err)
	}
	_ = client.Del(context.Background(), prefix+"43", prefix+"43:counter").Err()
}
