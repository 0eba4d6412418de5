// Package archive keeps the raw body of each authenticated deletion
// notification for later inspection.
package archive

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a requested notification does not exist.
var ErrNotFound = errors.New("archive: notification not found")

// ErrInvalidID is returned for ids that are not safe to use as object names.
var ErrInvalidID = errors.New("archive: invalid notification id")

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Store defines the interface for archive backends. ids are correlation ids.
type Store interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
}

// Config holds configuration for creating a Store.
type Config struct {
	Type       string // "none", "local" or "s3"
	Path       string // base directory for local store
	S3Bucket   string
	S3Prefix   string
	S3Endpoint string
	S3Region   string
}

// New creates a Store based on cfg. An empty or "none" type disables
// archiving.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Type {
	case "", "none":
		logger.Info().Msg("notification archive disabled")
		return NopStore{}, nil
	case "local":
		return NewLocalFileStore(cfg.Path)
	case "s3":
		return NewS3StoreFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("archive: unsupported store type %q", cfg.Type)
	}
}

// objectName maps an id to the stored object name.
func objectName(id string) (string, error) {
	if !validID.MatchString(id) {
		return "", ErrInvalidID
	}
	return id + ".json", nil
}

// NopStore discards writes and finds nothing.
type NopStore struct{}

func (NopStore) Put(context.Context, string, []byte) error { return nil }

func (NopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrNotFound }
