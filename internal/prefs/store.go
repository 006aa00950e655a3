// Package prefs holds the durable client flags that survive restarts.
package prefs

import (
	"context"
	"errors"
	"sync"
)

// Storage keys. Values are plain strings ("true", "dark", ...).
const (
	KeyTheme          = "theme"
	KeyUserIdentified = "userIdentified"
	KeyAlertHidden    = "identificationAlertHidden"
)

// ErrClosed is returned by a store after Close.
var ErrClosed = errors.New("prefs: store closed")

// Store is a durable string key/value store.
type Store interface {
	// Get returns ok=false when the key was never written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

// NewMemoryStore returns a Store that lives only as long as the process.
func NewMemoryStore() Store {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.values[key] = value
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
