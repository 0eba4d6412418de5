package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/sungwon/erasure-bridge/internal/auth"
	"github.com/sungwon/erasure-bridge/internal/config"
)

func tokenCmd() *cobra.Command {
	var configDir, subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin API token from the server configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			tokens := auth.NewTokenService(auth.Config{
				SigningKey:  cfg.Auth.SigningKey,
				Issuer:      cfg.Auth.Issuer,
				Audience:    cfg.Auth.Audience,
				TokenExpiry: cfg.Auth.TokenExpiry,
			})

			token, expires, err := tokens.GenerateToken(subject)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config", "config", "Directory containing config.yaml")
	cmd.Flags().StringVar(&subject, "subject", "operator", "Token subject")

	return cmd
}
