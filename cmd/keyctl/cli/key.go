package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/handler/dto"
	"github.com/makkenzo/apikey-dashboard/internal/service"
	"github.com/makkenzo/apikey-dashboard/internal/storage/postgres"
	"github.com/makkenzo/apikey-dashboard/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())

	return cmd
}

func newKeyCreateCmd() *cobra.Command {
	var (
		email string
		name  string
		style string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for an account",
		Example: `  keyctl key create --user ops@example.com --name "CI pipeline"
  keyctl key create --user ops@example.com --name legacy --style mixed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if style != config.KeyStyleAlnum && style != config.KeyStyleMixed {
				return fmt.Errorf("unknown key style %q", style)
			}

			ctx := cmd.Context()
			pool, log, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			userID, err := lookupUser(ctx, pool, log, email)
			if err != nil {
				return err
			}

			svc := service.NewAPIKeyService(postgres.NewAPIKeyRepository(pool, log), nil, util.KeyGenerator(style), log)
			created, err := svc.CreateAPIKey(ctx, userID, name)
			if err != nil {
				return fmt.Errorf("create api key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "API Key created:")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  ID:   %s\n", created.ID)
			fmt.Fprintf(out, "  Name: %s\n", created.Name)
			fmt.Fprintf(out, "  Key:  %s\n", created.Key)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "user", "", "Email of the owning account (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name for the key (required)")
	cmd.Flags().StringVar(&style, "style", config.KeyStyleAlnum, "Key style: alnum or mixed")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newKeyListCmd() *cobra.Command {
	var (
		email      string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the API keys of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, log, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			userID, err := lookupUser(ctx, pool, log, email)
			if err != nil {
				return err
			}

			svc := service.NewAPIKeyService(postgres.NewAPIKeyRepository(pool, log), nil, util.KeyGenerator(config.KeyStyleAlnum), log)
			keys, err := svc.ListAPIKeys(ctx, userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				resp := make([]*dto.APIKeyResponse, len(keys))
				for i, k := range keys {
					resp[i] = dto.NewAPIKeyResponse(k)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			if len(keys) == 0 {
				fmt.Fprintln(out, "No API keys found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCREATED\tLAST USED")
			for _, k := range keys {
				lastUsed := "never"
				if k.LastUsedAt != nil {
					lastUsed = k.LastUsedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.ID, k.Name, k.CreatedAt.Format(time.RFC3339), lastUsed)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&email, "user", "", "Email of the owning account (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func lookupUser(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger, email string) (uuid.UUID, error) {
	u, err := postgres.NewUserRepository(pool, log).FindByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("find user %q: %w", email, err)
	}
	return u.ID, nil
}
