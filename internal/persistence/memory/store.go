// Package memory provides a process-local DocumentStore used by tests and the
// memory store driver.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/example/coworkspace/internal/persistence"
)

var _ persistence.DocumentStore = (*Store)(nil)

// Store keeps documents in a map guarded by a read/write mutex.
type Store struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	closed bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// Get returns a copy of the stored payload.
func (s *Store) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := persistence.ValidateName(name); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, persistence.ErrClosed
	}
	payload, ok := s.docs[name]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(payload), true, nil
}

// Put stores a copy of payload under name.
func (s *Store) Put(ctx context.Context, name string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := persistence.ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}
	s.docs[name] = cloneBytes(payload)
	return nil
}

// Delete removes the document if present.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := persistence.ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return persistence.ErrClosed
	}
	delete(s.docs, name)
	return nil
}

// Names lists stored document names in lexical order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close makes further use of the store fail with persistence.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.docs = nil
	s.mu.Unlock()
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
