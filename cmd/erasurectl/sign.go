package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sungwon/erasure-bridge/internal/signature"
)

func signCmd() *cobra.Command {
	var secret, timestamp, description string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the signature for a notification description",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), signature.Sign(secret, timestamp, description))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Webhook signing secret")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "Unix timestamp carried in the footer")
	cmd.Flags().StringVar(&description, "description", "", "Notification description to sign")
	_ = cmd.MarkFlagRequired("secret")
	_ = cmd.MarkFlagRequired("timestamp")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}
