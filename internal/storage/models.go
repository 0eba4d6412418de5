package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// GlobalSetting is the single settings row.
type GlobalSetting struct {
	ID             int16
	WebhookAuthKey pgtype.Text
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DatastoreAPIKey is a credential for the external datastore API, shared by
// one or more games.
type DatastoreAPIKey struct {
	ID        uuid.UUID
	Label     string
	APIKey    string
	CreatedAt time.Time
}

// Game is a tenant whose player data can be erased. UniverseID is the
// external identifier used by notifications and the datastore API.
type Game struct {
	ID           uuid.UUID
	Label        string
	UniverseID   int64
	StartPlaceID int64
	APIKeyID     uuid.UUID
	CreatedAt    time.Time
}

// GameWithAPIKey is a Game joined with its datastore credential.
type GameWithAPIKey struct {
	Game
	APIKeyLabel string
	APIKey      string
}

// Rule names one datastore entry to delete for a game's users.
type Rule struct {
	ID            uuid.UUID
	GameID        uuid.UUID
	Label         string
	DatastoreName string
	DatastoreType string
	KeyPattern    string
	Scope         pgtype.Text
	CreatedAt     time.Time
}

// History records one successful deletion and the rules it covered.
type History struct {
	ID        uuid.UUID
	GameID    uuid.UUID
	UserID    string
	CreatedAt time.Time
	RuleIDs   []string
}

// ErrorLog records a failed deletion or other processing error.
type ErrorLog struct {
	ID         uuid.UUID
	Message    string
	UniverseID pgtype.Text
	Details    []byte
	CreatedAt  time.Time
}
