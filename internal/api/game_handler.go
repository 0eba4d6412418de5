package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// createGameRequest is the JSON body for POST /api/v1/games.
type createGameRequest struct {
	Label        string `json:"label" validate:"required,max=100"`
	UniverseID   int64  `json:"universe_id" validate:"required,gt=0"`
	StartPlaceID int64  `json:"start_place_id" validate:"gte=0"`
	APIKeyID     string `json:"api_key_id" validate:"required,uuid"`
}

// gameResponse is the JSON response for a game. Universe ids are rendered
// as strings, the form notifications use.
type gameResponse struct {
	ID           uuid.UUID `json:"id"`
	Label        string    `json:"label"`
	UniverseID   string    `json:"universe_id"`
	StartPlaceID string    `json:"start_place_id"`
	APIKeyID     uuid.UUID `json:"api_key_id"`
	APIKeyLabel  string    `json:"api_key_label,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toGameResponse(g storage.Game) gameResponse {
	return gameResponse{
		ID:           g.ID,
		Label:        g.Label,
		UniverseID:   strconv.FormatInt(g.UniverseID, 10),
		StartPlaceID: strconv.FormatInt(g.StartPlaceID, 10),
		APIKeyID:     g.APIKeyID,
		CreatedAt:    g.CreatedAt,
	}
}

// ListGamesHandler handles GET /api/v1/games.
func ListGamesHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := queries.ListGames(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		resp := make([]gameResponse, 0, len(games))
		for _, g := range games {
			gr := toGameResponse(g.Game)
			gr.APIKeyLabel = g.APIKeyLabel
			resp = append(resp, gr)
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// GetGameHandler handles GET /api/v1/games/{id}.
func GetGameHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r)
		if !ok {
			return
		}

		g, err := queries.GetGameByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondJSON(w, http.StatusOK, toGameResponse(g))
	}
}

// CreateGameHandler handles POST /api/v1/games.
func CreateGameHandler(queries storage.Querier, inv CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGameRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		apiKeyID, err := uuid.Parse(req.APIKeyID)
		if err != nil {
			respondValidationErrors(w, []string{"api_key_id must be a UUID"})
			return
		}

		g, err := queries.CreateGame(r.Context(), storage.CreateGameParams{
			Label:        req.Label,
			UniverseID:   req.UniverseID,
			StartPlaceID: req.StartPlaceID,
			APIKeyID:     apiKeyID,
		})
		switch {
		case storage.IsUniqueViolation(err):
			respondError(w, http.StatusConflict, "universe_id already registered")
			return
		case storage.IsForeignKeyViolation(err):
			respondError(w, http.StatusNotFound, "api key not found")
			return
		case err != nil:
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		invalidateCatalog(r.Context(), inv)

		respondJSON(w, http.StatusCreated, toGameResponse(g))
	}
}

// DeleteGameHandler handles DELETE /api/v1/games/{id}.
// Rules and histories of the game are deleted with it.
func DeleteGameHandler(queries storage.Querier, inv CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r)
		if !ok {
			return
		}

		n, err := queries.DeleteGame(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if n == 0 {
			respondError(w, http.StatusNotFound, "game not found")
			return
		}
		invalidateCatalog(r.Context(), inv)

		w.WriteHeader(http.StatusNoContent)
	}
}
