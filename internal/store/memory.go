package store

import (
	"context"
	"sync"
)

// MemoryListStore implements ListStore with in-process slices, suitable for
// tests and for running without a database file.
type MemoryListStore struct {
	mu    sync.RWMutex
	lists map[string][][]byte
}

// NewMemoryListStore returns an empty in-memory list store.
func NewMemoryListStore() *MemoryListStore {
	return &MemoryListStore{lists: make(map[string][][]byte)}
}

// Append adds a value to the end of the keyed list.
func (s *MemoryListStore) Append(_ context.Context, key string, value []byte) error {
	copied := append([]byte(nil), value...)

	s.mu.Lock()
	s.lists[key] = append(s.lists[key], copied)
	s.mu.Unlock()
	return nil
}

// Last returns up to n of the newest entries, oldest-first.
func (s *MemoryListStore) Last(_ context.Context, key string, n int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.lists[key]
	if n < 0 {
		n = 0
	}
	start := len(entries) - n
	if start < 0 {
		start = 0
	}

	window := make([][]byte, 0, len(entries)-start)
	for _, entry := range entries[start:] {
		window = append(window, append([]byte(nil), entry...))
	}
	return window, nil
}

// Trim drops the oldest entries beyond max.
func (s *MemoryListStore) Trim(_ context.Context, key string, max int) error {
	if max < 0 {
		max = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.lists[key]
	if len(entries) <= max {
		return nil
	}
	s.lists[key] = append([][]byte(nil), entries[len(entries)-max:]...)
	return nil
}

// Len reports how many entries the key retains.
func (s *MemoryListStore) Len(_ context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists[key]), nil
}
