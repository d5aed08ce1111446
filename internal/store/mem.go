// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package store

import (
	"context"
	"slices"

	"go.astrophena.name/dailynews/internal/util/syncx"
)

// MemStore is an in-memory implementation of the [Store] interface.
type MemStore struct {
	m syncx.Map[string, []byte]
}

// NewMemStore creates a new [MemStore].
func NewMemStore() *MemStore { return &MemStore{} }

// Get retrieves a value for a given key.
func (s *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := s.m.Load(key)
	if !ok {
		return nil, nil
	}
	// Return a copy to prevent the caller from mutating the stored value.
	return append([]byte(nil), val...), nil
}

// Set stores a value for a given key.
func (s *MemStore) Set(_ context.Context, key string, value []byte) error {
	s.m.Store(key, append([]byte(nil), value...))
	return nil
}

// Keys returns all keys present in the store, sorted.
func (s *MemStore) Keys(_ context.Context) ([]string, error) {
	var keys []string
	s.m.Range(func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	slices.Sort(keys)
	return keys, nil
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error { return nil }
