package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/sungwon/erasure-bridge/internal/archive"
	"github.com/sungwon/erasure-bridge/internal/catalog"
	"github.com/sungwon/erasure-bridge/internal/deletion"
	"github.com/sungwon/erasure-bridge/internal/logger"
	"github.com/sungwon/erasure-bridge/internal/metrics"
	"github.com/sungwon/erasure-bridge/internal/notification"
	"github.com/sungwon/erasure-bridge/internal/signature"
)

// maxWebhookBody caps the accepted notification size.
const maxWebhookBody = 1 << 20

// Dispatcher executes a parsed deletion intent.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent notification.Intent) (deletion.Report, error)
}

type successResponse struct {
	Success bool `json:"success"`
}

// WebhookHandler handles POST /webhook/delete-request.
//
// Payload shape errors answer 400 and signature errors 401. Every request
// that gets past both answers {"success":true}, whatever happened to the
// individual deletions; those outcomes only reach the audit tables.
func WebhookHandler(cat catalog.Catalog, dispatcher Dispatcher, arch archive.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logger.FromContext(ctx)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			webhookRejected(w, http.StatusBadRequest, "malformed", notification.ErrMalformedPayload.Error())
			return
		}

		payload, err := notification.Decode(bytes.NewReader(body))
		if err != nil {
			log.Warn().Err(err).Msg("webhook body could not be decoded")
			webhookRejected(w, http.StatusBadRequest, "malformed", notification.ErrMalformedPayload.Error())
			return
		}

		embed, err := payload.Primary()
		if err != nil {
			log.Warn().Err(err).Msg("webhook payload rejected")
			webhookRejected(w, http.StatusBadRequest, "malformed", err.Error())
			return
		}

		if !notification.IsDeletionRequest(embed.Description) {
			log.Info().Msg("notification is not a deletion request, ignoring")
			metrics.WebhookRequestsTotal.WithLabelValues("ignored").Inc()
			respondJSON(w, http.StatusOK, successResponse{Success: true})
			return
		}

		settings, err := cat.Settings(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to load global settings")
			webhookRejected(w, http.StatusInternalServerError, "error", "webhook processing error")
			return
		}

		material := notification.ParseFooter(embed.Footer.Text)
		if err := signature.Verify(settings.WebhookAuthKey, material, embed.Description); err != nil {
			log.Warn().Err(err).Msg("webhook authentication failed")
			msg := "invalid signature"
			if errors.Is(err, signature.ErrAuthenticationMisconfigured) {
				msg = "authentication misconfigured"
			}
			webhookRejected(w, http.StatusUnauthorized, "unauthorized", msg)
			return
		}

		if id := logger.CorrelationIDFromContext(ctx); id != "" {
			if err := arch.Put(ctx, id, body); err != nil {
				log.Warn().Err(err).Msg("failed to archive notification")
			}
		}

		intent, ok := notification.ParseIntent(embed.Description)
		if !ok {
			log.Info().Msg("deletion request has no extractable user or games, ignoring")
			metrics.WebhookRequestsTotal.WithLabelValues("ignored").Inc()
			respondJSON(w, http.StatusOK, successResponse{Success: true})
			return
		}

		log.Info().
			Str("user_id", intent.UserID).
			Strs("universe_ids", intent.UniverseIDs).
			Msg("deletion request received")

		// Deletions run to completion once started so that every attempted rule
		// is recorded, even if the sender hangs up. Each datastore call is still
		// bounded by the client timeout.
		dctx := context.WithoutCancel(ctx)
		if _, err := dispatcher.Dispatch(dctx, intent); err != nil {
			log.Error().Err(err).
				Str("universe_id", intent.FirstUniverseID()).
				Msg("failed to dispatch deletion request")
			webhookRejected(w, http.StatusInternalServerError, "error", "webhook processing error")
			return
		}

		metrics.WebhookRequestsTotal.WithLabelValues("processed").Inc()
		respondJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func webhookRejected(w http.ResponseWriter, status int, outcome, msg string) {
	metrics.WebhookRequestsTotal.WithLabelValues(outcome).Inc()
	respondError(w, status, msg)
}
