package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"go.uber.org/zap"
)

const (
	uniqueViolation = "23505"

	defaultConnectTimeout = 10 * time.Second
	pingTimeout           = 5 * time.Second
)

// poolConfig turns DatabaseConfig into pgx pool settings. Zero values keep
// pgx's own defaults, and the idle floor never exceeds the pool size.
func poolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	pgxConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connection string: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		pgxConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pgxConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if pgxConfig.MinConns > pgxConfig.MaxConns {
		pgxConfig.MinConns = pgxConfig.MaxConns
	}
	if cfg.ConnMaxLifetime > 0 {
		pgxConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		pgxConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	return pgxConfig, nil
}

func NewPgxPool(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	log := logger.Named("Postgres")

	pgxConfig, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, pgxConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, pingTimeout)
	defer cancelPing()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Info("Connected to PostgreSQL",
		zap.String("host", pgxConfig.ConnConfig.Host),
		zap.String("database", pgxConfig.ConnConfig.Database),
		zap.Int32("max_conns", pgxConfig.MaxConns),
		zap.Int32("min_conns", pgxConfig.MinConns),
	)
	return pool, nil
}
