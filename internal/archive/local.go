package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalFileStore stores notifications as files under a base directory.
type LocalFileStore struct {
	basePath string
}

// NewLocalFileStore creates a LocalFileStore at basePath, creating the
// directory if needed.
func NewLocalFileStore(basePath string) (*LocalFileStore, error) {
	if basePath == "" {
		return nil, errors.New("archive: local path is required")
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("archive: create base directory: %w", err)
	}
	return &LocalFileStore{basePath: basePath}, nil
}

// Put writes data via a temp file and rename so readers never see a partial
// file.
func (s *LocalFileStore) Put(_ context.Context, id string, data []byte) error {
	name, err := objectName(id)
	if err != nil {
		return err
	}
	finalPath := filepath.Join(s.basePath, name)

	tmp, err := os.CreateTemp(s.basePath, ".tmp-"+id+"-*")
	if err != nil {
		return fmt.Errorf("archive: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("archive: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("archive: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, finalPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("archive: rename temp file: %w", err)
	}
	return nil
}

// Get reads a stored notification, returning ErrNotFound if absent.
func (s *LocalFileStore) Get(_ context.Context, id string) ([]byte, error) {
	name, err := objectName(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("archive: read file: %w", err)
	}
	return data, nil
}
