package store

import (
	"sync"

	"github.com/lox/chickenrun/internal/game"
)

// MemoryStore keeps the snapshot in memory. Used by tests and the
// headless simulator, where nothing should touch disk.
type MemoryStore struct {
	mu sync.Mutex
	st game.SessionState
	ok bool
}

var _ game.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(st game.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
	s.ok = true
	return nil
}

func (s *MemoryStore) Load() (game.SessionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st, s.ok, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = game.SessionState{}
	s.ok = false
	return nil
}
