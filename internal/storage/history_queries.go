package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// CreateHistoryParams holds the input for CreateHistory.
type CreateHistoryParams struct {
	GameID uuid.UUID
	UserID string
}

const createHistory = `
INSERT INTO histories (game_id, user_id)
VALUES ($1, $2)
RETURNING id, game_id, user_id, created_at`

// CreateHistory inserts a history row without rule links. Use
// Store.RecordHistory to write a history and its rules atomically.
func (q *Queries) CreateHistory(ctx context.Context, arg CreateHistoryParams) (History, error) {
	var h History
	err := q.db.QueryRow(ctx, createHistory, arg.GameID, arg.UserID).Scan(&h.ID, &h.GameID, &h.UserID, &h.CreatedAt)
	return h, err
}

// CreateHistoryRuleParams links a history to a rule.
type CreateHistoryRuleParams struct {
	HistoryID uuid.UUID
	RuleID    uuid.UUID
}

const createHistoryRule = `INSERT INTO history_rules (history_id, rule_id) VALUES ($1, $2)`

func (q *Queries) CreateHistoryRule(ctx context.Context, arg CreateHistoryRuleParams) error {
	_, err := q.db.Exec(ctx, createHistoryRule, arg.HistoryID, arg.RuleID)
	return err
}

const historySelect = `
SELECT h.id, h.game_id, h.user_id, h.created_at,
       COALESCE(array_agg(hr.rule_id::text) FILTER (WHERE hr.rule_id IS NOT NULL), '{}')::text[]
FROM histories h
LEFT JOIN history_rules hr ON hr.history_id = h.id`

const getHistoryByID = historySelect + `
WHERE h.id = $1
GROUP BY h.id`

func (q *Queries) GetHistoryByID(ctx context.Context, id uuid.UUID) (History, error) {
	h, err := scanHistory(q.db.QueryRow(ctx, getHistoryByID, id))
	return h, notFound(err)
}

// ListHistoriesParams filters ListHistories. Invalid fields are ignored.
type ListHistoriesParams struct {
	GameID pgtype.UUID
	UserID pgtype.Text
	Limit  int32
}

const listHistories = historySelect + `
WHERE ($1::uuid IS NULL OR h.game_id = $1)
  AND ($2::text IS NULL OR h.user_id = $2)
GROUP BY h.id
ORDER BY h.created_at DESC
LIMIT $3`

// ListHistories returns histories newest first.
func (q *Queries) ListHistories(ctx context.Context, arg ListHistoriesParams) ([]History, error) {
	rows, err := q.db.Query(ctx, listHistories, arg.GameID, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

func scanHistory(row pgx.Row) (History, error) {
	var h History
	err := row.Scan(&h.ID, &h.GameID, &h.UserID, &h.CreatedAt, &h.RuleIDs)
	return h, err
}
