package cli

import (
	"context"
	"fmt"

	"github.com/makkenzo/apikey-dashboard/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Example: `  keyctl migrate
  keyctl migrate --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return runMigrateList(cmd)
			}
			return runMigrate(cmd.Context(), cmd)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List embedded migrations without applying them")

	return cmd
}

func runMigrateList(cmd *cobra.Command) error {
	files, err := postgres.MigrationFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}

func runMigrate(ctx context.Context, cmd *cobra.Command) error {
	pool, log, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := postgres.NewMigrator(pool, log).Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(applied) == 0 {
		fmt.Fprintln(out, "Database is up to date.")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(out, "Applied %s\n", name)
	}
	return nil
}
