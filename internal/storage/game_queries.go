package storage

import (
	"context"

	"github.com/google/uuid"
)

// CreateDatastoreAPIKeyParams holds the input for CreateDatastoreAPIKey.
type CreateDatastoreAPIKeyParams struct {
	Label  string
	APIKey string
}

const createDatastoreAPIKey = `
INSERT INTO datastore_api_keys (label, api_key)
VALUES ($1, $2)
RETURNING id, label, api_key, created_at`

func (q *Queries) CreateDatastoreAPIKey(ctx context.Context, arg CreateDatastoreAPIKeyParams) (DatastoreAPIKey, error) {
	var k DatastoreAPIKey
	err := q.db.QueryRow(ctx, createDatastoreAPIKey, arg.Label, arg.APIKey).Scan(&k.ID, &k.Label, &k.APIKey, &k.CreatedAt)
	return k, err
}

const listDatastoreAPIKeys = `
SELECT id, label, api_key, created_at
FROM datastore_api_keys
ORDER BY created_at`

func (q *Queries) ListDatastoreAPIKeys(ctx context.Context) ([]DatastoreAPIKey, error) {
	rows, err := q.db.Query(ctx, listDatastoreAPIKeys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []DatastoreAPIKey
	for rows.Next() {
		var k DatastoreAPIKey
		if err := rows.Scan(&k.ID, &k.Label, &k.APIKey, &k.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, k)
	}
	return items, rows.Err()
}

const deleteDatastoreAPIKey = `DELETE FROM datastore_api_keys WHERE id = $1`

// DeleteDatastoreAPIKey removes a key and, by cascade, every game using it.
func (q *Queries) DeleteDatastoreAPIKey(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteDatastoreAPIKey, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CreateGameParams holds the input for CreateGame.
type CreateGameParams struct {
	Label        string
	UniverseID   int64
	StartPlaceID int64
	APIKeyID     uuid.UUID
}

const createGame = `
INSERT INTO games (label, universe_id, start_place_id, api_key_id)
VALUES ($1, $2, $3, $4)
RETURNING id, label, universe_id, start_place_id, api_key_id, created_at`

func (q *Queries) CreateGame(ctx context.Context, arg CreateGameParams) (Game, error) {
	var g Game
	err := q.db.QueryRow(ctx, createGame, arg.Label, arg.UniverseID, arg.StartPlaceID, arg.APIKeyID).
		Scan(&g.ID, &g.Label, &g.UniverseID, &g.StartPlaceID, &g.APIKeyID, &g.CreatedAt)
	return g, err
}

const getGameByID = `
SELECT id, label, universe_id, start_place_id, api_key_id, created_at
FROM games
WHERE id = $1`

func (q *Queries) GetGameByID(ctx context.Context, id uuid.UUID) (Game, error) {
	var g Game
	err := q.db.QueryRow(ctx, getGameByID, id).
		Scan(&g.ID, &g.Label, &g.UniverseID, &g.StartPlaceID, &g.APIKeyID, &g.CreatedAt)
	return g, notFound(err)
}

const listGames = `
SELECT g.id, g.label, g.universe_id, g.start_place_id, g.api_key_id, g.created_at,
       k.label, k.api_key
FROM games g
JOIN datastore_api_keys k ON k.id = g.api_key_id
ORDER BY g.created_at`

// ListGames returns every game with its datastore credential.
func (q *Queries) ListGames(ctx context.Context) ([]GameWithAPIKey, error) {
	rows, err := q.db.Query(ctx, listGames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GameWithAPIKey
	for rows.Next() {
		var g GameWithAPIKey
		if err := rows.Scan(
			&g.ID, &g.Label, &g.UniverseID, &g.StartPlaceID, &g.APIKeyID, &g.CreatedAt,
			&g.APIKeyLabel, &g.APIKey,
		); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

const deleteGame = `DELETE FROM games WHERE id = $1`

// DeleteGame removes a game together with its rules and histories.
func (q *Queries) DeleteGame(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteGame, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
