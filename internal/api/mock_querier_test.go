package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// mockQuerier implements storage.Querier for testing.
type mockQuerier struct {
	// Settings
	getGlobalSettingsFn    func(ctx context.Context) (storage.GlobalSetting, error)
	upsertGlobalSettingsFn func(ctx context.Context, key pgtype.Text) (storage.GlobalSetting, error)

	// Datastore API keys
	createDatastoreAPIKeyFn func(ctx context.Context, arg storage.CreateDatastoreAPIKeyParams) (storage.DatastoreAPIKey, error)
	listDatastoreAPIKeysFn  func(ctx context.Context) ([]storage.DatastoreAPIKey, error)
	deleteDatastoreAPIKeyFn func(ctx context.Context, id uuid.UUID) (int64, error)

	// Games
	createGameFn  func(ctx context.Context, arg storage.CreateGameParams) (storage.Game, error)
	getGameByIDFn func(ctx context.Context, id uuid.UUID) (storage.Game, error)
	listGamesFn   func(ctx context.Context) ([]storage.GameWithAPIKey, error)
	deleteGameFn  func(ctx context.Context, id uuid.UUID) (int64, error)

	// Rules
	createRuleFn        func(ctx context.Context, arg storage.CreateRuleParams) (storage.Rule, error)
	listRulesFn         func(ctx context.Context) ([]storage.Rule, error)
	listRulesByGameIDFn func(ctx context.Context, gameID uuid.UUID) ([]storage.Rule, error)
	countRulesByIDsFn   func(ctx context.Context, ids []uuid.UUID) (int64, error)
	deleteRuleFn        func(ctx context.Context, id uuid.UUID) (int64, error)

	// Histories
	createHistoryFn     func(ctx context.Context, arg storage.CreateHistoryParams) (storage.History, error)
	createHistoryRuleFn func(ctx context.Context, arg storage.CreateHistoryRuleParams) error
	getHistoryByIDFn    func(ctx context.Context, id uuid.UUID) (storage.History, error)
	listHistoriesFn     func(ctx context.Context, arg storage.ListHistoriesParams) ([]storage.History, error)

	// Error logs
	createErrorLogFn func(ctx context.Context, arg storage.CreateErrorLogParams) (storage.ErrorLog, error)
	listErrorLogsFn  func(ctx context.Context, limit int32) ([]storage.ErrorLog, error)
}

var _ storage.Querier = (*mockQuerier)(nil)

// --- Settings ---

func (m *mockQuerier) GetGlobalSettings(ctx context.Context) (storage.GlobalSetting, error) {
	if m.getGlobalSettingsFn != nil {
		return m.getGlobalSettingsFn(ctx)
	}
	return storage.GlobalSetting{}, storage.ErrNotFound
}

func (m *mockQuerier) UpsertGlobalSettings(ctx context.Context, key pgtype.Text) (storage.GlobalSetting, error) {
	if m.upsertGlobalSettingsFn != nil {
		return m.upsertGlobalSettingsFn(ctx, key)
	}
	return storage.GlobalSetting{ID: 1, WebhookAuthKey: key}, nil
}

// --- Datastore API keys ---

func (m *mockQuerier) CreateDatastoreAPIKey(ctx context.Context, arg storage.CreateDatastoreAPIKeyParams) (storage.DatastoreAPIKey, error) {
	if m.createDatastoreAPIKeyFn != nil {
		return m.createDatastoreAPIKeyFn(ctx, arg)
	}
	return storage.DatastoreAPIKey{ID: uuid.New(), Label: arg.Label, APIKey: arg.APIKey}, nil
}

func (m *mockQuerier) ListDatastoreAPIKeys(ctx context.Context) ([]storage.DatastoreAPIKey, error) {
	if m.listDatastoreAPIKeysFn != nil {
		return m.listDatastoreAPIKeysFn(ctx)
	}
	return nil, nil
}

func (m *mockQuerier) DeleteDatastoreAPIKey(ctx context.Context, id uuid.UUID) (int64, error) {
	if m.deleteDatastoreAPIKeyFn != nil {
		return m.deleteDatastoreAPIKeyFn(ctx, id)
	}
	return 1, nil
}

// --- Games ---

func (m *mockQuerier) CreateGame(ctx context.Context, arg storage.CreateGameParams) (storage.Game, error) {
	if m.createGameFn != nil {
		return m.createGameFn(ctx, arg)
	}
	return storage.Game{
		ID:           uuid.New(),
		Label:        arg.Label,
		UniverseID:   arg.UniverseID,
		StartPlaceID: arg.StartPlaceID,
		APIKeyID:     arg.APIKeyID,
	}, nil
}

func (m *mockQuerier) GetGameByID(ctx context.Context, id uuid.UUID) (storage.Game, error) {
	if m.getGameByIDFn != nil {
		return m.getGameByIDFn(ctx, id)
	}
	return storage.Game{}, storage.ErrNotFound
}

func (m *mockQuerier) ListGames(ctx context.Context) ([]storage.GameWithAPIKey, error) {
	if m.listGamesFn != nil {
		return m.listGamesFn(ctx)
	}
	return nil, nil
}

func (m *mockQuerier) DeleteGame(ctx context.Context, id uuid.UUID) (int64, error) {
	if m.deleteGameFn != nil {
		return m.deleteGameFn(ctx, id)
	}
	return 1, nil
}

// --- Rules ---

func (m *mockQuerier) CreateRule(ctx context.Context, arg storage.CreateRuleParams) (storage.Rule, error) {
	if m.createRuleFn != nil {
		return m.createRuleFn(ctx, arg)
	}
	return storage.Rule{
		ID:            uuid.New(),
		GameID:        arg.GameID,
		Label:         arg.Label,
		DatastoreName: arg.DatastoreName,
		DatastoreType: arg.DatastoreType,
		KeyPattern:    arg.KeyPattern,
		Scope:         arg.Scope,
	}, nil
}

func (m *mockQuerier) ListRules(ctx context.Context) ([]storage.Rule, error) {
	if m.listRulesFn != nil {
		return m.listRulesFn(ctx)
	}
	return nil, nil
}

func (m *mockQuerier) ListRulesByGameID(ctx context.Context, gameID uuid.UUID) ([]storage.Rule, error) {
	if m.listRulesByGameIDFn != nil {
		return m.listRulesByGameIDFn(ctx, gameID)
	}
	return nil, nil
}

func (m *mockQuerier) CountRulesByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if m.countRulesByIDsFn != nil {
		return m.countRulesByIDsFn(ctx, ids)
	}
	return int64(len(ids)), nil
}

func (m *mockQuerier) DeleteRule(ctx context.Context, id uuid.UUID) (int64, error) {
	if m.deleteRuleFn != nil {
		return m.deleteRuleFn(ctx, id)
	}
	return 1, nil
}

// --- Histories ---

func (m *mockQuerier) CreateHistory(ctx context.Context, arg storage.CreateHistoryParams) (storage.History, error) {
	if m.createHistoryFn != nil {
		return m.createHistoryFn(ctx, arg)
	}
	return storage.History{ID: uuid.New(), GameID: arg.GameID, UserID: arg.UserID}, nil
}

func (m *mockQuerier) CreateHistoryRule(ctx context.Context, arg storage.CreateHistoryRuleParams) error {
	if m.createHistoryRuleFn != nil {
		return m.createHistoryRuleFn(ctx, arg)
	}
	return nil
}

func (m *mockQuerier) GetHistoryByID(ctx context.Context, id uuid.UUID) (storage.History, error) {
	if m.getHistoryByIDFn != nil {
		return m.getHistoryByIDFn(ctx, id)
	}
	return storage.History{}, storage.ErrNotFound
}

func (m *mockQuerier) ListHistories(ctx context.Context, arg storage.ListHistoriesParams) ([]storage.History, error) {
	if m.listHistoriesFn != nil {
		return m.listHistoriesFn(ctx, arg)
	}
	return nil, nil
}

// --- Error logs ---

func (m *mockQuerier) CreateErrorLog(ctx context.Context, arg storage.CreateErrorLogParams) (storage.ErrorLog, error) {
	if m.createErrorLogFn != nil {
		return m.createErrorLogFn(ctx, arg)
	}
	return storage.ErrorLog{ID: uuid.New(), Message: arg.Message, UniverseID: arg.UniverseID, Details: arg.Details}, nil
}

func (m *mockQuerier) ListErrorLogs(ctx context.Context, limit int32) ([]storage.ErrorLog, error) {
	if m.listErrorLogsFn != nil {
		return m.listErrorLogsFn(ctx, limit)
	}
	return nil, nil
}
