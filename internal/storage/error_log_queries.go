package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// CreateErrorLogParams holds the input for CreateErrorLog.
type CreateErrorLogParams struct {
	Message    string
	UniverseID pgtype.Text
	Details    []byte
}

const createErrorLog = `
INSERT INTO error_logs (message, universe_id, details)
VALUES ($1, $2, $3)
RETURNING id, message, universe_id, details, created_at`

func (q *Queries) CreateErrorLog(ctx context.Context, arg CreateErrorLogParams) (ErrorLog, error) {
	var e ErrorLog
	err := q.db.QueryRow(ctx, createErrorLog, arg.Message, arg.UniverseID, nullJSON(arg.Details)).
		Scan(&e.ID, &e.Message, &e.UniverseID, &e.Details, &e.CreatedAt)
	return e, err
}

const listErrorLogs = `
SELECT id, message, universe_id, details, created_at
FROM error_logs
ORDER BY created_at DESC
LIMIT $1`

// ListErrorLogs returns error logs newest first.
func (q *Queries) ListErrorLogs(ctx context.Context, limit int32) ([]ErrorLog, error) {
	rows, err := q.db.Query(ctx, listErrorLogs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ErrorLog
	for rows.Next() {
		var e ErrorLog
		if err := rows.Scan(&e.ID, &e.Message, &e.UniverseID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// nullJSON sends an empty payload as SQL NULL instead of invalid JSON.
func nullJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
