package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
	t.Setenv("SESSION_JWTSECRET", testSecret)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Session.CookieName != "session" || cfg.Session.TTL != 24*time.Hour {
		t.Errorf("unexpected session defaults %+v", cfg.Session)
	}
	if cfg.Keys.Style != KeyStyleAlnum {
		t.Errorf("keys.style = %q, want %q", cfg.Keys.Style, KeyStyleAlnum)
	}
	if cfg.RateLimit.ValidatePerMinute != 60 {
		t.Errorf("ratelimit = %d, want 60", cfg.RateLimit.ValidatePerMinute)
	}
	if cfg.Redis.Enabled() {
		t.Error("redis must be disabled without an address")
	}
	if cfg.Validation.StaticSecret != "" {
		t.Error("static secret must default to empty")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageDriverPostgres)
	t.Setenv("DATABASE_URL", "postgres://localhost/keys")
	t.Setenv("SESSION_JWTSECRET", testSecret)
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KEYS_STYLE", KeyStyleMixed)
	t.Setenv("VALIDATION_STATICSECRET", "shared")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/keys" {
		t.Errorf("database.url = %q", cfg.Database.URL)
	}
	if !cfg.Redis.Enabled() {
		t.Error("expected redis to be enabled")
	}
	if cfg.Keys.Style != KeyStyleMixed {
		t.Errorf("keys.style = %q", cfg.Keys.Style)
	}
	if cfg.Validation.StaticSecret != "shared" {
		t.Errorf("validation.staticSecret = %q", cfg.Validation.StaticSecret)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage: StorageConfig{Driver: StorageDriverMemory},
			Session: SessionConfig{JWTSecret: testSecret, TTL: time.Hour},
			Keys:    KeysConfig{Style: KeyStyleAlnum},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"postgres without url", func(c *Config) { c.Storage.Driver = StorageDriverPostgres }, "database.url"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, "unknown storage driver"},
		{"short secret", func(c *Config) { c.Session.JWTSecret = "short" }, "jwtSecret"},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, "session.ttl"},
		{"unknown key style", func(c *Config) { c.Keys.Style = "hex" }, "keys.style"},
		{"negative rate", func(c *Config) { c.RateLimit.ValidatePerMinute = -1 }, "ratelimit"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
