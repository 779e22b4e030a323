package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/TFMV/cognilink/models"
)

// FileStore keeps one JSON document per graph in a directory
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates dir if needed and returns a store rooted there
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the store directory
func (s *FileStore) Dir() string {
	return s.dir
}

// path maps an id to its file. Only canonical UUIDs are accepted, which
// keeps ids from escaping the directory.
func (s *FileStore) path(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil || u.String() != id {
		return "", false
	}
	return filepath.Join(s.dir, id+".json"), true
}

// Put writes rec to a new file. The file appears atomically.
func (s *FileStore) Put(ctx context.Context, rec *models.GraphRecord) (string, error) {
	if err := validate(rec); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode graph: %w", err)
	}

	id := uuid.NewString()
	path, _ := s.path(id)

	tmp, err := os.CreateTemp(s.dir, ".graph-*")
	if err != nil {
		return "", fmt.Errorf("failed to write graph: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write graph: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write graph: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to write graph: %w", err)
	}

	s.logger.Debug("graph stored", "id", id, "topics", rec.N, "shared_by", rec.SharedBy)
	return id, nil
}

// Get reads the record stored under id
func (s *FileStore) Get(ctx context.Context, id string) (*models.GraphRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, ok := s.path(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read graph %s: %w", id, err)
	}

	var rec models.GraphRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Warn("corrupt graph file", "id", id, "error", err)
		return nil, fmt.Errorf("%w: graph %s: %v", models.ErrMalformedInput, id, err)
	}
	return &rec, nil
}
