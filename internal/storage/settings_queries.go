package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getGlobalSettings = `
SELECT id, webhook_auth_key, created_at, updated_at
FROM global_settings
WHERE id = 1`

// GetGlobalSettings returns the settings row, or ErrNotFound before the
// first upsert.
func (q *Queries) GetGlobalSettings(ctx context.Context) (GlobalSetting, error) {
	var s GlobalSetting
	err := q.db.QueryRow(ctx, getGlobalSettings).Scan(&s.ID, &s.WebhookAuthKey, &s.CreatedAt, &s.UpdatedAt)
	return s, notFound(err)
}

const upsertGlobalSettings = `
INSERT INTO global_settings (id, webhook_auth_key)
VALUES (1, $1)
ON CONFLICT (id) DO UPDATE
SET webhook_auth_key = EXCLUDED.webhook_auth_key,
    updated_at = now()
RETURNING id, webhook_auth_key, created_at, updated_at`

func (q *Queries) UpsertGlobalSettings(ctx context.Context, webhookAuthKey pgtype.Text) (GlobalSetting, error) {
	var s GlobalSetting
	err := q.db.QueryRow(ctx, upsertGlobalSettings, webhookAuthKey).Scan(&s.ID, &s.WebhookAuthKey, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
