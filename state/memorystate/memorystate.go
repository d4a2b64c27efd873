// Package memorystate provides an in-process implementation of state.Backend.
package memorystate

import (
	"bytes"
	"context"
	"sync"

	"github.com/AntonStoeckl/kitties-ledger-go/state"
)

// Backend keeps all state in memory. It is safe for concurrent use.
type Backend struct {
	mu      sync.RWMutex
	values  map[string][]byte
	version state.Version
}

// NewBackend creates an empty Backend at version 0.
func NewBackend() *Backend {
	return &Backend{
		values: make(map[string][]byte),
	}
}

// Get returns a copy of the stored value.
func (b *Backend) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.values[string(key)]
	if !ok {
		return nil, false, nil
	}

	return bytes.Clone(value), true, nil
}

// Version returns the current state version.
func (b *Backend) Version(_ context.Context) (state.Version, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.version, nil
}

// Apply writes all changes if expected matches the current version.
func (b *Backend) Apply(_ context.Context, expected state.Version, changes state.Changes) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.version != expected {
		return state.ErrConcurrencyConflict
	}

	for _, change := range changes {
		b.values[string(change.Key)] = bytes.Clone(change.Value)
	}

	b.version++

	return nil
}

// Len returns the number of stored keys.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.values)
}
