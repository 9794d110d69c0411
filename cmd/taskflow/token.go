package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/taskflow/server/middleware"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP API",
		Long:  "Sign an HS256 token with server.auth.secret and server.auth.issuer from the config.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, true)
			if err != nil {
				return err
			}
			if cfg.Server.Auth.Secret == "" {
				return errors.New("server.auth.secret is not set")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive (got: %s)", ttl)
			}
			token, err := middleware.SignToken(cfg.Server.Auth.Secret, cfg.Server.Auth.Issuer, subject, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "taskflow-cli", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
