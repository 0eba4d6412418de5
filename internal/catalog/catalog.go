// Package catalog exposes the read-only view of tenants, rules and settings
// that webhook processing needs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

// Settings holds the global webhook configuration. An empty WebhookAuthKey
// means no shared secret is configured.
type Settings struct {
	WebhookAuthKey string `json:"-"`
}

// Game is a tenant as seen by the dispatcher. UniverseID is the external
// identifier formatted as a decimal string, matching the notification text.
type Game struct {
	ID         uuid.UUID `json:"id"`
	UniverseID string    `json:"universe_id"`
	Label      string    `json:"label"`
	APIKey     string    `json:"-"`
}

// Rule names one datastore entry to delete. DatastoreName and KeyPattern may
// contain user placeholders. Scope is empty when the rule does not set one.
type Rule struct {
	ID            uuid.UUID `json:"id"`
	GameID        uuid.UUID `json:"game_id"`
	Label         string    `json:"label"`
	DatastoreName string    `json:"datastore_name"`
	KeyPattern    string    `json:"key_pattern"`
	Scope         string    `json:"scope,omitempty"`
}

// Catalog is the read side consumed by webhook processing.
type Catalog interface {
	Settings(ctx context.Context) (Settings, error)
	Games(ctx context.Context) ([]Game, error)
	Rules(ctx context.Context, gameID uuid.UUID) ([]Rule, error)
}

// Reader is the subset of storage queries the catalog reads from.
type Reader interface {
	GetGlobalSettings(ctx context.Context) (storage.GlobalSetting, error)
	ListGames(ctx context.Context) ([]storage.GameWithAPIKey, error)
	ListRulesByGameID(ctx context.Context, gameID uuid.UUID) ([]storage.Rule, error)
}

// StoreCatalog reads the catalog straight from the database.
type StoreCatalog struct {
	r Reader
}

// NewStoreCatalog returns a Catalog backed by r.
func NewStoreCatalog(r Reader) *StoreCatalog {
	return &StoreCatalog{r: r}
}

// Settings returns the global settings. A missing settings row is reported
// as an empty Settings, not an error.
func (c *StoreCatalog) Settings(ctx context.Context) (Settings, error) {
	s, err := c.r.GetGlobalSettings(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get global settings: %w", err)
	}
	return Settings{WebhookAuthKey: s.WebhookAuthKey.String}, nil
}

func (c *StoreCatalog) Games(ctx context.Context) ([]Game, error) {
	rows, err := c.r.ListGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	games := make([]Game, 0, len(rows))
	for _, row := range rows {
		games = append(games, Game{
			ID:         row.ID,
			UniverseID: strconv.FormatInt(row.UniverseID, 10),
			Label:      row.Label,
			APIKey:     row.APIKey,
		})
	}
	return games, nil
}

func (c *StoreCatalog) Rules(ctx context.Context, gameID uuid.UUID) ([]Rule, error) {
	rows, err := c.r.ListRulesByGameID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("list rules for game %s: %w", gameID, err)
	}
	rules := make([]Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, Rule{
			ID:            row.ID,
			GameID:        row.GameID,
			Label:         row.Label,
			DatastoreName: row.DatastoreName,
			KeyPattern:    row.KeyPattern,
			Scope:         row.Scope.String,
		})
	}
	return rules, nil
}

// FindByUniverseID returns the game whose UniverseID equals id exactly.
func FindByUniverseID(games []Game, id string) (Game, bool) {
	for _, g := range games {
		if g.UniverseID == id {
			return g, true
		}
	}
	return Game{}, false
}
