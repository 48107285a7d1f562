// Command session issues an owner session for an API running with
// AUTH_REQUIRED=true and prints the cookie value for NOTES_SESSION_COOKIE.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ghuser/notekeeper/pkg/auth"
	"github.com/ghuser/notekeeper/pkg/cache"
	"github.com/ghuser/notekeeper/pkg/config"
)

func main() {
	if err := newCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:           "session",
		Short:         "Issue a session cookie for a note owner",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if owner == "" {
				owner = cfg.DefaultOwnerID
			}
			ownerID, err := uuid.Parse(owner)
			if err != nil {
				return fmt.Errorf("invalid owner %q: %w", owner, err)
			}

			rc, err := cache.NewRedisClient(cmd.Context(), cfg.RedisURL)
			if err != nil {
				return err
			}
			defer rc.Close() //nolint:errcheck

			store := auth.NewSessionStore(
				rc.Client(),
				[]byte(cfg.SessionAuthKey),
				[]byte(cfg.SessionEncryptionKey),
				cfg.Environment == config.EnvProduction,
			)
			value, err := store.IssueOwnerSession(cmd.Context(), ownerID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id (defaults to DEFAULT_OWNER_ID)")
	return cmd
}
