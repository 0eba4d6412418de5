package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// updateSettingsRequest is the JSON body for PUT /api/v1/settings.
// An empty key disables webhook authentication.
type updateSettingsRequest struct {
	WebhookAuthKey string `json:"webhook_auth_key" validate:"max=256"`
}

// settingsResponse never echoes the key itself.
type settingsResponse struct {
	WebhookAuthKeyConfigured bool       `json:"webhook_auth_key_configured"`
	UpdatedAt                *time.Time `json:"updated_at,omitempty"`
}

func toSettingsResponse(s storage.GlobalSetting) settingsResponse {
	updated := s.UpdatedAt
	return settingsResponse{
		WebhookAuthKeyConfigured: s.WebhookAuthKey.Valid && s.WebhookAuthKey.String != "",
		UpdatedAt:                &updated,
	}
}

// GetSettingsHandler handles GET /api/v1/settings.
func GetSettingsHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := queries.GetGlobalSettings(r.Context())
		if errors.Is(err, storage.ErrNotFound) {
			respondJSON(w, http.StatusOK, settingsResponse{})
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondJSON(w, http.StatusOK, toSettingsResponse(s))
	}
}

// UpdateSettingsHandler handles PUT /api/v1/settings.
func UpdateSettingsHandler(queries storage.Querier, inv CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateSettingsRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		key := pgtype.Text{String: req.WebhookAuthKey, Valid: req.WebhookAuthKey != ""}
		s, err := queries.UpsertGlobalSettings(r.Context(), key)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		invalidateCatalog(r.Context(), inv)

		respondJSON(w, http.StatusOK, toSettingsResponse(s))
	}
}
