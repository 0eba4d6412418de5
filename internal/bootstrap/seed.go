// Package bootstrap provides startup-time initialization routines such as
// seeding the webhook signing secret.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// SettingsStore reads and writes the global settings row.
type SettingsStore interface {
	GetGlobalSettings(ctx context.Context) (storage.GlobalSetting, error)
	UpsertGlobalSettings(ctx context.Context, webhookAuthKey pgtype.Text) (storage.GlobalSetting, error)
}

// SeedWebhookSecret makes the stored webhook secret equal to secret.
// It is idempotent: an empty secret or one already stored is a no-op.
func SeedWebhookSecret(ctx context.Context, store SettingsStore, log zerolog.Logger, secret string) error {
	if secret == "" {
		return nil
	}

	current, err := store.GetGlobalSettings(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read global settings: %w", err)
	}
	if err == nil && current.WebhookAuthKey.Valid && current.WebhookAuthKey.String == secret {
		log.Info().Msg("webhook secret already seeded, skipping")
		return nil
	}

	if _, err := store.UpsertGlobalSettings(ctx, pgtype.Text{String: secret, Valid: true}); err != nil {
		return fmt.Errorf("seed webhook secret: %w", err)
	}
	log.Info().Msg("webhook secret seeded")
	return nil
}
