package redis

import (
	"testing"
	"time"

	"github.com/makkenzo/apikey-dashboard/internal/config"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(&config.RedisConfig{
		Addr:        "cache:6379",
		Password:    "pw",
		DB:          3,
		PoolSize:    20,
		DialTimeout: 2 * time.Second,
	})
	if opts.Addr != "cache:6379" || opts.Password != "pw" || opts.DB != 3 {
		t.Fatalf("unexpected connection options %+v", opts)
	}
	if opts.PoolSize != 20 || opts.DialTimeout != 2*time.Second {
		t.Fatalf("pool size/dial timeout = %d/%v", opts.PoolSize, opts.DialTimeout)
	}

	defaults := clientOptions(&config.RedisConfig{Addr: "cache:6379"})
	if defaults.PoolSize != 0 || defaults.DialTimeout != 0 {
		t.Fatalf("unset values must be left to go-redis, got %d/%v", defaults.PoolSize, defaults.DialTimeout)
	}
}
