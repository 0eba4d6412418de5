package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// historyResponse is one successful deletion.
type historyResponse struct {
	ID        uuid.UUID `json:"id"`
	GameID    uuid.UUID `json:"game_id"`
	UserID    string    `json:"user_id"`
	RuleIDs   []string  `json:"rule_ids"`
	CreatedAt time.Time `json:"created_at"`
}

func toHistoryResponse(h storage.History) historyResponse {
	ruleIDs := h.RuleIDs
	if ruleIDs == nil {
		ruleIDs = []string{}
	}
	return historyResponse{
		ID:        h.ID,
		GameID:    h.GameID,
		UserID:    h.UserID,
		RuleIDs:   ruleIDs,
		CreatedAt: h.CreatedAt,
	}
}

// ListHistoriesHandler handles GET /api/v1/histories.
// Supports ?game_id=, ?user_id= and ?limit=. Newest first.
func ListHistoriesHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := storage.ListHistoriesParams{Limit: listLimit(r)}

		if raw := q.Get("game_id"); raw != "" {
			gameID, err := uuid.Parse(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid game_id")
				return
			}
			params.GameID = pgtype.UUID{Bytes: gameID, Valid: true}
		}
		if userID := q.Get("user_id"); userID != "" {
			params.UserID = pgtype.Text{String: userID, Valid: true}
		}

		histories, err := queries.ListHistories(r.Context(), params)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		resp := make([]historyResponse, 0, len(histories))
		for _, h := range histories {
			resp = append(resp, toHistoryResponse(h))
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// GetHistoryHandler handles GET /api/v1/histories/{id}.
func GetHistoryHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r)
		if !ok {
			return
		}

		h, err := queries.GetHistoryByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "history not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		respondJSON(w, http.StatusOK, toHistoryResponse(h))
	}
}

// errorLogResponse is one recorded failure.
type errorLogResponse struct {
	ID         uuid.UUID       `json:"id"`
	Message    string          `json:"message"`
	UniverseID string          `json:"universe_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ListErrorLogsHandler handles GET /api/v1/error-logs. Newest first.
func ListErrorLogsHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := queries.ListErrorLogs(r.Context(), listLimit(r))
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		resp := make([]errorLogResponse, 0, len(logs))
		for _, l := range logs {
			er := errorLogResponse{
				ID:         l.ID,
				Message:    l.Message,
				UniverseID: l.UniverseID.String,
				CreatedAt:  l.CreatedAt,
			}
			if json.Valid(l.Details) {
				er.Details = l.Details
			}
			resp = append(resp, er)
		}
		respondJSON(w, http.StatusOK, resp)
	}
}
