package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	KeyStyleAlnum = "alnum"
	KeyStyleMixed = "mixed"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Session    SessionConfig
	Validation ValidationConfig
	RateLimit  RateLimitConfig
	Keys       KeysConfig
	CORS       CORSConfig
	Worker     WorkerConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"`
	ConnectTimeout  time.Duration `mapstructure:"connectTimeout"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"poolSize"`
	DialTimeout time.Duration `mapstructure:"dialTimeout"`
}

// Enabled reports whether a redis address is configured. Cache, denylist,
// rate limiting and the usage queue all depend on it.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SessionConfig struct {
	JWTSecret    string        `mapstructure:"jwtSecret"`
	CookieName   string        `mapstructure:"cookieName"`
	TTL          time.Duration `mapstructure:"ttl"`
	SecureCookie bool          `mapstructure:"secureCookie"`
}

type ValidationConfig struct {
	StaticSecret string        `mapstructure:"staticSecret"`
	CacheTTL     time.Duration `mapstructure:"cacheTTL"`
}

type RateLimitConfig struct {
	ValidatePerMinute int `mapstructure:"validatePerMinute"`
}

type KeysConfig struct {
	Style string `mapstructure:"style"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownPeriod", 15*time.Second)

	v.SetDefault("storage.driver", StorageDriverPostgres)

	v.SetDefault("database.url", "")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 5*time.Minute)
	v.SetDefault("database.connMaxIdleTime", time.Minute)
	v.SetDefault("database.connectTimeout", 10*time.Second)
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.dialTimeout", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("session.jwtSecret", "")
	v.SetDefault("session.cookieName", "session")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.secureCookie", false)

	v.SetDefault("validation.staticSecret", "")
	v.SetDefault("validation.cacheTTL", 5*time.Minute)

	v.SetDefault("ratelimit.validatePerMinute", 60)

	v.SetDefault("keys.style", KeyStyleAlnum)

	v.SetDefault("cors.allowOrigins", []string{"http://localhost:3000"})

	v.SetDefault("worker.concurrency", 5)
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for storage driver %q", c.Storage.Driver)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if len(c.Session.JWTSecret) < 32 {
		return fmt.Errorf("session.jwtSecret must be at least 32 characters")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	switch c.Keys.Style {
	case KeyStyleAlnum, KeyStyleMixed:
	default:
		return fmt.Errorf("unknown keys.style %q", c.Keys.Style)
	}

	if c.RateLimit.ValidatePerMinute < 0 {
		return fmt.Errorf("ratelimit.validatePerMinute must not be negative")
	}
	return nil
}
