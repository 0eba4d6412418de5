package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sungwon/erasure-bridge/internal/archive"
)

// GetArchivedNotificationHandler handles GET /api/v1/notifications/{id}.
// The id is the correlation id the notification was received under; the
// stored body is returned verbatim.
func GetArchivedNotificationHandler(store archive.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, archive.ErrInvalidID):
			respondError(w, http.StatusBadRequest, "invalid id")
			return
		case errors.Is(err, archive.ErrNotFound):
			respondError(w, http.StatusNotFound, "notification not found")
			return
		case err != nil:
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
