package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// createRuleRequest is the JSON body for POST /api/v1/rules.
// datastore_name and key_pattern may contain {userId} or {playerId}.
type createRuleRequest struct {
	GameID        string `json:"game_id" validate:"required,uuid"`
	Label         string `json:"label" validate:"required,max=100"`
	DatastoreName string `json:"datastore_name" validate:"required,max=100"`
	DatastoreType string `json:"datastore_type" validate:"omitempty,oneof=standard ordered"`
	KeyPattern    string `json:"key_pattern" validate:"required,max=100"`
	Scope         string `json:"scope" validate:"omitempty,max=50"`
}

// ruleResponse is the JSON response for a rule. Scope is omitted when the
// rule uses the default.
type ruleResponse struct {
	ID            uuid.UUID `json:"id"`
	GameID        uuid.UUID `json:"game_id"`
	Label         string    `json:"label"`
	DatastoreName string    `json:"datastore_name"`
	DatastoreType string    `json:"datastore_type"`
	KeyPattern    string    `json:"key_pattern"`
	Scope         string    `json:"scope,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toRuleResponse(rule storage.Rule) ruleResponse {
	return ruleResponse{
		ID:            rule.ID,
		GameID:        rule.GameID,
		Label:         rule.Label,
		DatastoreName: rule.DatastoreName,
		DatastoreType: rule.DatastoreType,
		KeyPattern:    rule.KeyPattern,
		Scope:         rule.Scope.String,
		CreatedAt:     rule.CreatedAt,
	}
}

// ListRulesHandler handles GET /api/v1/rules, optionally filtered by
// ?game_id=.
func ListRulesHandler(queries storage.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			rules []storage.Rule
			err   error
		)
		if raw := r.URL.Query().Get("game_id"); raw != "" {
			gameID, perr := uuid.Parse(raw)
			if perr != nil {
				respondError(w, http.StatusBadRequest, "invalid game_id")
				return
			}
			rules, err = queries.ListRulesByGameID(r.Context(), gameID)
		} else {
			rules, err = queries.ListRules(r.Context())
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		resp := make([]ruleResponse, 0, len(rules))
		for _, rule := range rules {
			resp = append(resp, toRuleResponse(rule))
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

// CreateRuleHandler handles POST /api/v1/rules.
func CreateRuleHandler(queries storage.Querier, inv CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRuleRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		gameID, err := uuid.Parse(req.GameID)
		if err != nil {
			respondValidationErrors(w, []string{"game_id must be a UUID"})
			return
		}

		rule, err := queries.CreateRule(r.Context(), storage.CreateRuleParams{
			GameID:        gameID,
			Label:         req.Label,
			DatastoreName: req.DatastoreName,
			DatastoreType: req.DatastoreType,
			KeyPattern:    req.KeyPattern,
			Scope:         pgtype.Text{String: req.Scope, Valid: req.Scope != ""},
		})
		if storage.IsForeignKeyViolation(err) {
			respondError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		invalidateCatalog(r.Context(), inv)

		respondJSON(w, http.StatusCreated, toRuleResponse(rule))
	}
}

// DeleteRuleHandler handles DELETE /api/v1/rules/{id}.
func DeleteRuleHandler(queries storage.Querier, inv CacheInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r)
		if !ok {
			return
		}

		n, err := queries.DeleteRule(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if n == 0 {
			respondError(w, http.StatusNotFound, "rule not found")
			return
		}
		invalidateCatalog(r.Context(), inv)

		w.WriteHeader(http.StatusNoContent)
	}
}
