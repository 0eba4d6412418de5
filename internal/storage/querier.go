package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the full set of queries. Handlers depend on it so tests can
// substitute a fake.
type Querier interface {
	// Settings
	GetGlobalSettings(ctx context.Context) (GlobalSetting, error)
	UpsertGlobalSettings(ctx context.Context, webhookAuthKey pgtype.Text) (GlobalSetting, error)

	// Datastore API keys
	CreateDatastoreAPIKey(ctx context.Context, arg CreateDatastoreAPIKeyParams) (DatastoreAPIKey, error)
	ListDatastoreAPIKeys(ctx context.Context) ([]DatastoreAPIKey, error)
	DeleteDatastoreAPIKey(ctx context.Context, id uuid.UUID) (int64, error)

	// Games
	CreateGame(ctx context.Context, arg CreateGameParams) (Game, error)
	GetGameByID(ctx context.Context, id uuid.UUID) (Game, error)
	ListGames(ctx context.Context) ([]GameWithAPIKey, error)
	DeleteGame(ctx context.Context, id uuid.UUID) (int64, error)

	// Rules
	CreateRule(ctx context.Context, arg CreateRuleParams) (Rule, error)
	ListRules(ctx context.Context) ([]Rule, error)
	ListRulesByGameID(ctx context.Context, gameID uuid.UUID) ([]Rule, error)
	CountRulesByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
	DeleteRule(ctx context.Context, id uuid.UUID) (int64, error)

	// Histories
	CreateHistory(ctx context.Context, arg CreateHistoryParams) (History, error)
	CreateHistoryRule(ctx context.Context, arg CreateHistoryRuleParams) error
	GetHistoryByID(ctx context.Context, id uuid.UUID) (History, error)
	ListHistories(ctx context.Context, arg ListHistoriesParams) ([]History, error)

	// Error logs
	CreateErrorLog(ctx context.Context, arg CreateErrorLogParams) (ErrorLog, error)
	ListErrorLogs(ctx context.Context, limit int32) ([]ErrorLog, error)
}

var _ Querier = (*Queries)(nil)
