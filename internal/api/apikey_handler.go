package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// createAPIKeyRequest is the JSON body for POST /api/v1/api-keys.
type createAPIKeyRequest struct {
	Label  string `json:"label" validate:"required,max=100"`
	APIKey string `json:"api_key" validate:"required,max=512"`
}

// apiKeyResponse carries a masked datastore credential.
type apiKeyResponse struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	APIKey    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

func toAPIKeyResponse(k storage.DatastoreAPIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:        k.ID,
		Label:     k.Label,
		APIKey:    maskSecret(k.APIKey),
		CreatedAt: k.CreatedAt,
	}
}

// ListAPIKeysHandler handles GET /api/v1/api-keys.
func ListAPIKeysHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := queries.ListDatastoreAPIKeys(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		resp := make([]apiKeyResponse, 0, len(keys))
		for _, k := range keys {
			resp = append(resp, toAPIKeyResponse(k))
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// CreateAPIKeyHandler handles POST /api/v1/api-keys.
func CreateAPIKeyHandler(queries storage.Querier, inv CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAPIKeyRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		k, err := queries.CreateDatastoreAPIKey(r.Context(), storage.CreateDatastoreAPIKeyParams{
			Label:  req.Label,
			APIKey: req.APIKey,
		})
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		invalidateCatalog(r.Context(), inv)

		respondJSON(w, http.StatusCreated, toAPIKeyResponse(k))
	}
}

// DeleteAPIKeyHandler handles DELETE /api/v1/api-keys/{id}.
// Games using the key are deleted with it.
func DeleteAPIKeyHandler(queries storage.Querier, inv CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r)
		if !ok {
			return
		}

		n, err := queries.DeleteDatastoreAPIKey(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if n == 0 {
			respondError(w, http.StatusNotFound, "api key not found")
			return
		}
		invalidateCatalog(r.Context(), inv)

		w.WriteHeader(http.StatusNoContent)
	}
}
