package store

import (
	"sync"

	"github.com/heysubinoy/keybase/pkg/kv"
)

// Locked serialises access to a kv.Store that is not itself safe for
// concurrent use, such as a keybase.Connection shared by request handlers.
// Reads take a shared lock, everything that mutates the mapping, the file or
// the lifecycle takes an exclusive one.
type Locked struct {
	mu    sync.RWMutex
	store kv.Store
}

// Compile-time check to ensure Locked implements kv.Store.
var _ kv.Store = (*Locked)(nil)

// NewLocked wraps store.
func NewLocked(store kv.Store) *Locked {
	return &Locked{store: store}
}

// Get reads key under the shared lock.
func (s *Locked) Get(key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.Get(key)
}

// Set stores value under the exclusive lock.
func (s *Locked) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Set(key, value)
}

// Remove deletes key under the exclusive lock.
func (s *Locked) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Remove(key)
}

// Exists reports whether key is present, under the shared lock.
func (s *Locked) Exists(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.Exists(key)
}

// Keys lists the present keys under the shared lock.
func (s *Locked) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.Keys()
}

// Save holds the exclusive lock so no write lands while the mapping is encoded.
func (s *Locked) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Save()
}

// Close closes the wrapped store under the exclusive lock.
func (s *Locked) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Close()
}

// IsClosed reports whether the wrapped store has been closed.
func (s *Locked) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.IsClosed()
}
