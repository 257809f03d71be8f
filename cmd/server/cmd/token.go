package cmd

import (
	"fmt"
	"time"

	"github.com/healthhive/server/internal/auth"
	"github.com/healthhive/server/internal/domain/ids"
	"github.com/spf13/cobra"
)

func newTokenCommand(opts *globalOptions) *cobra.Command {
	var (
		userID string
		name   string
		expiry time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local development",
		Long: `Sign a JWT with JWT_SECRET whose subject is the given user id.

Examples:
  # Token for a fresh user id
  server token

  # Token for a known user, valid for one hour
  server token --user 01HYX3KQW7ERTV9XNBM2P8QJZF --expiry 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if userID == "" {
				userID = ids.MustNewULID()
			}
			if expiry <= 0 {
				expiry = cfg.Auth.JWTExpiry
			}

			token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, expiry, cfg.Auth.JWTIssuer).Generate(userID, name)
			if err != nil {
				return fmt.Errorf("user id %q: %w", userID, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (ULID) to put in the subject (default: a new one)")
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (default: JWT_EXPIRY_HOURS)")
	return cmd
}
