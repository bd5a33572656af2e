// Package localstore persists scene records in a single JSON file laid out
// like a browser localStorage dump: a top-level object mapping storage keys to
// arrays of raw records. Unrelated keys in the file survive saves untouched.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Store reads and writes one storage key inside a JSON file. Writes go
// through a temp file plus rename so a crash never leaves a torn file.
type Store struct {
	path   string
	key    string
	logger *slog.Logger
}

// NewStore creates a file-backed store for the given storage key. The file
// and its directory are created on first save.
func NewStore(path, key string, logger *slog.Logger) *Store {
	return &Store{path: path, key: key, logger: logger}
}

// Load returns the records under the store's key. A missing file or a file
// without the key yields (nil, nil).
func (s *Store) Load(_ context.Context) ([][]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	contents, err := parseFile(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	raw := contents[s.key]
	records := make([][]byte, len(raw))
	for i, r := range raw {
		records[i] = []byte(r)
	}
	return records, nil
}

// Save replaces the records under the store's key, leaving other keys in the
// file alone.
func (s *Store) Save(_ context.Context, records [][]byte) error {
	contents := map[string][]json.RawMessage{}
	if data, err := os.ReadFile(s.path); err == nil {
		parsed, perr := parseFile(data)
		if perr != nil {
			// A corrupt file is rewritten from scratch rather than
			// blocking every save.
			s.logger.Warn("store file corrupt, rewriting", "path", s.path, "error", perr)
		} else {
			contents = parsed
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	raw := make([]json.RawMessage, len(records))
	for i, r := range records {
		raw[i] = json.RawMessage(r)
	}
	contents[s.key] = raw

	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

func parseFile(data []byte) (map[string][]json.RawMessage, error) {
	var contents map[string][]json.RawMessage
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, err
	}
	return contents, nil
}
