package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// CreateRuleParams holds the input for CreateRule.
type CreateRuleParams struct {
	GameID        uuid.UUID
	Label         string
	DatastoreName string
	DatastoreType string
	KeyPattern    string
	Scope         pgtype.Text
}

const ruleColumns = `id, game_id, label, datastore_name, datastore_type, key_pattern, scope, created_at`

const createRule = `
INSERT INTO rules (game_id, label, datastore_name, datastore_type, key_pattern, scope)
VALUES ($1, $2, $3, COALESCE(NULLIF($4::text, ''), 'standard'), $5, $6)
RETURNING ` + ruleColumns

func (q *Queries) CreateRule(ctx context.Context, arg CreateRuleParams) (Rule, error) {
	row := q.db.QueryRow(ctx, createRule,
		arg.GameID, arg.Label, arg.DatastoreName, arg.DatastoreType, arg.KeyPattern, arg.Scope)
	return scanRule(row)
}

const listRules = `SELECT ` + ruleColumns + ` FROM rules ORDER BY created_at`

func (q *Queries) ListRules(ctx context.Context) ([]Rule, error) {
	rows, err := q.db.Query(ctx, listRules)
	if err != nil {
		return nil, err
	}
	return collectRules(rows)
}

const listRulesByGameID = `SELECT ` + ruleColumns + ` FROM rules WHERE game_id = $1 ORDER BY created_at`

func (q *Queries) ListRulesByGameID(ctx context.Context, gameID uuid.UUID) ([]Rule, error) {
	rows, err := q.db.Query(ctx, listRulesByGameID, gameID)
	if err != nil {
		return nil, err
	}
	return collectRules(rows)
}

const countRulesByIDs = `SELECT count(*) FROM rules WHERE id = ANY($1::uuid[])`

// CountRulesByIDs returns how many of the given rule ids exist.
func (q *Queries) CountRulesByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	var n int64
	err := q.db.QueryRow(ctx, countRulesByIDs, strs).Scan(&n)
	return n, err
}

const deleteRule = `DELETE FROM rules WHERE id = $1`

func (q *Queries) DeleteRule(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteRule, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	err := row.Scan(&r.ID, &r.GameID, &r.Label, &r.DatastoreName, &r.DatastoreType, &r.KeyPattern, &r.Scope, &r.CreatedAt)
	return r, err
}

func collectRules(rows pgx.Rows) ([]Rule, error) {
	defer rows.Close()

	var items []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
