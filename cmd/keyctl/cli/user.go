package cli

import (
	"fmt"

	"github.com/makkenzo/apikey-dashboard/internal/service"
	"github.com/makkenzo/apikey-dashboard/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard accounts",
	}

	cmd.AddCommand(newUserCreateCmd())

	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a dashboard account",
		Example: `  keyctl user create --email ops@example.com --password 's3cret-pass'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, log, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			u, err := service.RegisterUser(ctx, postgres.NewUserRepository(pool, log), email, password)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User created: %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password, 8 to 72 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
