package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/storage/postgres"
	"github.com/makkenzo/apikey-dashboard/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	databaseURL string
	logLevel    string
)

// Execute creates the root command tree and runs it.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyctl",
		Short: "Administer API keys and accounts directly in the database",
		Long: `keyctl talks to the same PostgreSQL database as the dashboard server.

It can apply migrations, create accounts and issue or list API keys without
going through the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (default is $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newKeyCmd())

	return cmd
}

func resolveDatabaseURL() (string, error) {
	if databaseURL != "" {
		return databaseURL, nil
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if url := v.GetString("database.url"); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("a database url is required: pass --database-url or set DATABASE_URL")
}

// openPool connects to the database. The caller closes the pool.
func openPool(ctx context.Context) (*pgxpool.Pool, *zap.Logger, error) {
	url, err := resolveDatabaseURL()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewZapLogger(logLevel, logger.FormatConsole)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := postgres.NewPgxPool(ctx, &config.DatabaseConfig{
		URL:             url,
		MaxOpenConns:    2,
		ConnMaxLifetime: time.Hour,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return pool, log, nil
}
