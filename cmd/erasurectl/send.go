package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/sungwon/erasure-bridge/internal/datastore"
	"github.com/sungwon/erasure-bridge/internal/notification"
	"github.com/sungwon/erasure-bridge/internal/signature"
)

// buildNotification renders a deletion notification, signed when secret is
// set.
func buildNotification(secret, userID string, universeIDs []string, now time.Time) ([]byte, error) {
	description := notification.Format(userID, universeIDs)
	footer := "Unsigned test notification"
	if secret != "" {
		ts := strconv.FormatInt(now.Unix(), 10)
		footer = notification.FooterText(signature.Sign(secret, ts, description), ts)
	}

	return json.Marshal(notification.Payload{Embeds: []notification.Embed{{
		Title:       "Right To Erasure",
		Description: description,
		Footer:      &notification.Footer{Text: footer},
	}}})
}

func sendCmd() *cobra.Command {
	var (
		url      string
		secret   string
		userID   string
		games    []string
		timeout  time.Duration
		printRaw bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Post a test deletion notification to a running bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := buildNotification(secret, userID, games, time.Now())
			if err != nil {
				return fmt.Errorf("build notification: %w", err)
			}
			if printRaw {
				fmt.Fprintln(cmd.OutOrStdout(), string(body))
			}

			client := datastore.NewHTTPClient(timeout)
			resp, err := client.Do(cmd.Context(), &datastore.HTTPRequest{
				Method:  http.MethodPost,
				URL:     url,
				Headers: map[string]string{"Content-Type": "application/json"},
				Body:    body,
			})
			if err != nil {
				return fmt.Errorf("send notification: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n%s\n", resp.StatusCode, resp.Status, resp.Body)
			if resp.StatusCode >= 300 {
				return fmt.Errorf("bridge answered %d", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/webhook/delete-request", "Webhook endpoint")
	cmd.Flags().StringVar(&secret, "secret", "", "Webhook signing secret; empty sends unsigned")
	cmd.Flags().StringVar(&userID, "user", "", "User id to erase")
	cmd.Flags().StringSliceVar(&games, "games", nil, "Universe ids, comma separated")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&printRaw, "print", false, "Print the request body before sending")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("games")

	return cmd
}
