package postgres

import (
	"testing"
	"time"

	"github.com/makkenzo/apikey-dashboard/internal/config"
)

func TestPoolConfigAppliesSettings(t *testing.T) {
	cfg, err := poolConfig(&config.DatabaseConfig{
		URL:             "postgres://user:pw@db.internal:5432/keys",
		MaxOpenConns:    8,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 45 * time.Second,
	})
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}

	if cfg.MaxConns != 8 || cfg.MinConns != 2 {
		t.Fatalf("conns = %d/%d, want 8/2", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxConnLifetime != 30*time.Minute || cfg.MaxConnIdleTime != 45*time.Second {
		t.Fatalf("lifetimes = %v/%v", cfg.MaxConnLifetime, cfg.MaxConnIdleTime)
	}
	if cfg.ConnConfig.Host != "db.internal" || cfg.ConnConfig.Database != "keys" {
		t.Fatalf("unexpected conn config %s/%s", cfg.ConnConfig.Host, cfg.ConnConfig.Database)
	}
}

func TestPoolConfigClampsIdleFloorAndKeepsDefaults(t *testing.T) {
	cfg, err := poolConfig(&config.DatabaseConfig{
		URL:          "postgres://localhost/keys",
		MaxOpenConns: 2,
		MaxIdleConns: 5,
	})
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}
	if cfg.MinConns != 2 {
		t.Fatalf("min conns = %d, want clamped to 2", cfg.MinConns)
	}
	if cfg.MaxConnLifetime <= 0 {
		t.Fatalf("zero lifetime must keep the pgx default, got %v", cfg.MaxConnLifetime)
	}
}

func TestPoolConfigRejectsBadURL(t *testing.T) {
	if _, err := poolConfig(&config.DatabaseConfig{URL: "postgres://%zz"}); err == nil {
		t.Fatal("expected a parse error")
	}
}
