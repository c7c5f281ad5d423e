package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), &config.RedisConfig{Addr: addr}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestKeyCacheRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	cache := NewKeyCache(client, time.Minute, zap.NewNop())
	raw := "cache-" + uuid.NewString()

	if got, err := cache.Get(ctx, raw); err != nil || got != nil {
		t.Fatalf("expected miss, got %+v %v", got, err)
	}

	stored := &apikey.APIKey{ID: uuid.New(), UserID: uuid.New(), Key: raw}
	if err := cache.Set(ctx, stored); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := cache.Get(ctx, raw)
	if err != nil || got == nil || got.ID != stored.ID || got.UserID != stored.UserID {
		t.Fatalf("unexpected cache hit %+v %v", got, err)
	}

	if err := cache.Delete(ctx, raw); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := cache.Get(ctx, raw); got != nil {
		t.Fatal("expected miss after delete")
	}
}

func TestSessionDenylist(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	d := NewSessionDenylist(client)
	id := uuid.NewString()

	if revoked, err := d.IsRevoked(ctx, id); err != nil || revoked {
		t.Fatalf("fresh id revoked=%v err=%v", revoked, err)
	}
	if err := d.Revoke(ctx, id, time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, err := d.IsRevoked(ctx, id); err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	limiter := NewRateLimiter(client, 2, time.Minute)
	subject := "test:" + uuid.NewString()

	for i := 0; i < 2; i++ {
		allowed, _, err := limiter.Allow(ctx, subject)
		if err != nil || !allowed {
			t.Fatalf("hit %d: allowed=%v err=%v", i, allowed, err)
		}
	}
	allowed, retry, err := limiter.Allow(ctx, subject)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("third hit should be limited")
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("unexpected retry-after %v", retry)
	}
}
