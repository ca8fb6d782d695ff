// Package file stores solve reports as JSON files in a local directory.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/lockstep/pkg/domain"
	"github.com/aretw0/lockstep/pkg/report"
)

// DefaultDir is used when New is given an empty path.
var DefaultDir = filepath.Join(".lockstep", "results")

// Store implements ports.ResultStore using the local filesystem.
// Each key lives in its own file named after the SHA-256 of the key,
// so arbitrary cache keys never leak into paths.
type Store struct {
	BasePath string
}

type envelope struct {
	Key    string         `json:"key"`
	Report *report.Report `json:"report"`
}

// New creates a new Store with the given base path.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.BasePath, hex.EncodeToString(sum[:])+".json")
}

// Save persists the report atomically.
// It writes to a temporary file in the same directory, syncs it and renames it over the destination.
func (s *Store) Save(ctx context.Context, key string, r *report.Report) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure result directory: %w", err)
	}

	data, err := json.MarshalIndent(envelope{Key: key, Report: r}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(key)
	if _, err := os.Stat(dest); err == nil {
		// os.Rename does not replace on Windows.
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to remove existing result file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load retrieves the report stored under key.
func (s *Store) Load(ctx context.Context, key string) (*report.Report, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	env, err := readEnvelope(s.path(key))
	if err != nil {
		return nil, err
	}
	if env.Key != key || env.Report == nil {
		return nil, domain.ErrResultNotFound
	}
	return env.Report, nil
}

// Delete removes the result file. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete result file: %w", err)
	}
	return nil
}

// List returns the stored keys in sorted order.
// Files that cannot be decoded are skipped.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		env, err := readEnvelope(filepath.Join(s.BasePath, name))
		if err != nil {
			continue
		}
		keys = append(keys, env.Key)
	}
	slices.Sort(keys)
	return keys, nil
}

func readEnvelope(path string) (*envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &env, nil
}
