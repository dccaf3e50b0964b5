// Package store persists the game session as a JSON snapshot.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lox/chickenrun/internal/fileutil"
	"github.com/lox/chickenrun/internal/game"
)

// SnapshotName is the fixed file name of the session snapshot within the
// data directory.
const SnapshotName = "chickenrun_v3.json"

// FileStore writes the session snapshot atomically under a data directory.
type FileStore struct {
	path string
}

var _ game.Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. The directory is created
// lazily on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, SnapshotName)}
}

// Path returns the full path of the snapshot file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Save(st game.SessionState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Load reads the snapshot. A missing file is not an error; callers get
// ok=false and fall back to defaults.
func (s *FileStore) Load() (game.SessionState, bool, error) {
	var st game.SessionState
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, false, nil
	}
	if err != nil {
		return st, false, fmt.Errorf("reading session: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return game.SessionState{}, false, fmt.Errorf("decoding session: %w", err)
	}
	return st, true, nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
