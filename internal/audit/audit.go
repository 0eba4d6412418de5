// Package audit records deletion outcomes to the history and error-log
// tables and to the structured log.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/sungwon/erasure-bridge/internal/datastore"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// Store persists audit rows.
type Store interface {
	RecordHistory(ctx context.Context, arg storage.RecordHistoryParams) (storage.History, error)
	CreateErrorLog(ctx context.Context, arg storage.CreateErrorLogParams) (storage.ErrorLog, error)
}

// Details is the structured part of an error-log entry. Fields are omitted
// when the failure carried no HTTP response. Permanent marks responses that
// will fail again if the same request is repeated.
type Details struct {
	Status     int         `json:"status,omitempty"`
	StatusText string      `json:"statusText,omitempty"`
	Permanent  bool        `json:"permanent,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// DetailsFromError extracts response details from a datastore error.
func DetailsFromError(err error) Details {
	var ae *datastore.APIError
	if !errors.As(err, &ae) {
		return Details{}
	}
	d := Details{Status: ae.StatusCode, StatusText: ae.StatusText, Permanent: ae.Permanent}
	if ae.Body != "" {
		if json.Valid([]byte(ae.Body)) {
			d.Data = json.RawMessage(ae.Body)
		} else {
			d.Data = ae.Body
		}
	}
	return d
}

// Failure describes one failed unit of work.
type Failure struct {
	GameLabel  string
	UniverseID string
	Err        error
}

// Message renders the human-readable error-log text.
func (f Failure) Message(details Details) string {
	encoded, err := json.Marshal(details)
	if err != nil {
		encoded = []byte("{}")
	}
	return fmt.Sprintf("Delete operation failed for game %s: %v\nDetails: %s", f.GameLabel, f.Err, encoded)
}

// Recorder writes histories and error logs.
type Recorder struct {
	store  Store
	logger zerolog.Logger
}

// NewRecorder creates a Recorder over store.
func NewRecorder(store Store, logger zerolog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// RecordSuccess writes a history row for a completed deletion.
func (r *Recorder) RecordSuccess(ctx context.Context, gameID uuid.UUID, userID string, ruleIDs []uuid.UUID) (storage.History, error) {
	h, err := r.store.RecordHistory(ctx, storage.RecordHistoryParams{
		GameID:  gameID,
		UserID:  userID,
		RuleIDs: ruleIDs,
	})
	if err != nil {
		return storage.History{}, fmt.Errorf("record history: %w", err)
	}

	r.logger.Info().
		Str("history_id", h.ID.String()).
		Str("game_id", gameID.String()).
		Str("user_id", userID).
		Int("rules", len(ruleIDs)).
		Msg("deletion recorded")
	return h, nil
}

// RecordFailure logs f and writes it to the error log. A failed write is
// logged and returned.
func (r *Recorder) RecordFailure(ctx context.Context, f Failure) (storage.ErrorLog, error) {
	details := DetailsFromError(f.Err)
	msg := f.Message(details)

	r.logger.Error().
		Err(f.Err).
		Str("game", f.GameLabel).
		Str("universe_id", f.UniverseID).
		Int("status", details.Status).
		Bool("permanent", details.Permanent).
		Msg("deletion failed")

	encoded, err := json.Marshal(details)
	if err != nil {
		encoded = nil
	}
	entry, err := r.store.CreateErrorLog(ctx, storage.CreateErrorLogParams{
		Message:    msg,
		UniverseID: pgtype.Text{String: f.UniverseID, Valid: f.UniverseID != ""},
		Details:    encoded,
	})
	if err != nil {
		r.logger.Error().Err(err).
			Str("universe_id", f.UniverseID).
			Msg("failed to persist error log")
		return storage.ErrorLog{}, fmt.Errorf("create error log: %w", err)
	}
	return entry, nil
}
