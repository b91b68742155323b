// Package atomicfile persists a single JSON document with atomic writes.
//
// A save goes to a temporary file in the same directory followed by a
// rename, so readers observe either the previous complete document or the
// new one, never a partial write. An advisory flock on a sidecar lock file
// serializes the swap across processes; it does not serialize
// read-modify-write cycles, which remain last-writer-wins.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/pretty"
)

var emptyDocument = []byte("{}")

// Store reads and writes one JSON document at a fixed path.
type Store struct {
	path   string
	lock   *flock.Flock
	logger zerolog.Logger
}

// New creates a Store for the document at path.
func New(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the current document bytes. A missing file yields an empty
// document and creates the parent directory. A file that does not parse as
// a JSON object also yields an empty document: malformed data is discarded
// rather than surfaced, which is a documented data-loss hazard. Any other
// I/O error propagates.
func (s *Store) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
			return emptyDocument, nil
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	// Tolerate hand-edited files with comments or trailing commas.
	data = jsonc.ToJSON(data)

	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		s.logger.Warn().Str("path", s.path).Msg("file is not a JSON object, treating store as empty")
		return emptyDocument, nil
	}

	return data, nil
}

// Save writes the document atomically, pretty-printed with tab
// indentation, and returns the exact bytes written.
func (s *Store) Save(doc []byte) ([]byte, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer s.lock.Unlock()

	data := pretty.PrettyOptions(doc, &pretty.Options{Indent: "\t"})

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}

	return data, nil
}
