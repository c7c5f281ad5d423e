package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Migrator struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMigrator(db *pgxpool.Pool, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger.Named("Migrator"),
	}
}

// Migrate applies every embedded migration that is not yet recorded in the
// migrations table, in file name order, each inside its own transaction.
func (m *Migrator) Migrate(ctx context.Context) ([]string, error) {
	if _, err := m.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return nil, fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	files, err := MigrationFiles()
	if err != nil {
		return nil, err
	}

	var newlyApplied []string
	for _, filename := range files {
		if _, ok := applied[filename]; ok {
			continue
		}

		sqlContent, err := migrationsFS.ReadFile("migrations/" + filename)
		if err != nil {
			return newlyApplied, fmt.Errorf("read migration %s: %w", filename, err)
		}

		if err := m.apply(ctx, filename, string(sqlContent)); err != nil {
			return newlyApplied, err
		}

		m.logger.Info("Applied migration", zap.String("filename", filename))
		newlyApplied = append(newlyApplied, filename)
	}

	return newlyApplied, nil
}

func (m *Migrator) appliedMigrations(ctx context.Context) (map[string]struct{}, error) {
	rows, err := m.db.Query(ctx, "SELECT filename FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("scan applied migrations: %w", err)
		}
		applied[filename] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

func (m *Migrator) apply(ctx context.Context, filename, sqlText string) error {
	err := pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sqlText); err != nil {
			return fmt.Errorf("migration failed (%s): %w", filename, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO migrations (filename) VALUES ($1) ON CONFLICT DO NOTHING", filename); err != nil {
			return fmt.Errorf("record migration (%s): %w", filename, err)
		}
		return nil
	})
	return err
}

// MigrationFiles lists the embedded migration file names in apply order.
func MigrationFiles() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}
