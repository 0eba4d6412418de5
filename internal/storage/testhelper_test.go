//go:build integration

package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sungwon/erasure-bridge/internal/storage"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	sharedDB    *storage.DB
	sharedDSN   string
	pgContainer testcontainers.Container
)

// TestMain starts one PostgreSQL container for the package and applies the
// embedded migrations to it.
func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	var err error
	pgContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	sharedDSN = fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port())

	if err := storage.Migrate(sharedDSN, "up"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	sharedDB, err = storage.NewDB(ctx, sharedDSN, 2, 10, 10*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create DB: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	sharedDB.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}

	os.Exit(code)
}

// setupTestDB returns the shared DB and a fresh Store over it.
func setupTestDB(t *testing.T) (*storage.DB, *storage.Store) {
	t.Helper()
	return sharedDB, storage.NewStore(sharedDB)
}

// seedGame creates an API key and a game with a unique universe id.
func seedGame(t *testing.T, s *storage.Store, universeID int64) storage.Game {
	t.Helper()
	ctx := context.Background()

	key, err := s.CreateDatastoreAPIKey(ctx, storage.CreateDatastoreAPIKeyParams{
		Label:  fmt.Sprintf("key-%d", universeID),
		APIKey: "secret-key",
	})
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}

	g, err := s.CreateGame(ctx, storage.CreateGameParams{
		Label:        fmt.Sprintf("game-%d", universeID),
		UniverseID:   universeID,
		StartPlaceID: universeID * 10,
		APIKeyID:     key.ID,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}
