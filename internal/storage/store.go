package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Store combines Queries with the pool so that multi-statement writes can run
// in a transaction.
type Store struct {
	*Queries
	db *DB
}

// NewStore returns a Store over db.
func NewStore(db *DB) *Store {
	return &Store{Queries: New(db.Pool), db: db}
}

// RecordHistoryParams holds the input for RecordHistory.
type RecordHistoryParams struct {
	GameID  uuid.UUID
	UserID  string
	RuleIDs []uuid.UUID
}

// RecordHistory writes a history row and its rule links in one transaction.
// It fails with ErrNotFound when the game or any of the rules does not exist.
func (s *Store) RecordHistory(ctx context.Context, arg RecordHistoryParams) (History, error) {
	var out History
	err := pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		q := s.Queries.WithTx(tx)

		if _, err := q.GetGameByID(ctx, arg.GameID); err != nil {
			return fmt.Errorf("game %s: %w", arg.GameID, err)
		}

		ids := distinct(arg.RuleIDs)
		n, err := q.CountRulesByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("count rules: %w", err)
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("rules %v: %w", ids, ErrNotFound)
		}

		h, err := q.CreateHistory(ctx, CreateHistoryParams{GameID: arg.GameID, UserID: arg.UserID})
		if err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		for _, id := range ids {
			if err := q.CreateHistoryRule(ctx, CreateHistoryRuleParams{HistoryID: h.ID, RuleID: id}); err != nil {
				return fmt.Errorf("link rule %s: %w", id, err)
			}
			h.RuleIDs = append(h.RuleIDs, id.String())
		}
		out = h
		return nil
	})
	return out, err
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
