package testutil

import (
	"bytes"
	"sync"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// FixedEntropy is a breeding.EntropySource that always returns the same bytes
// and remembers the subjects it was asked for.
type FixedEntropy struct {
	mu       sync.Mutex
	value    [core.GenomeLength]byte
	subjects [][]byte
}

// NewFixedEntropy creates a FixedEntropy returning value.
func NewFixedEntropy(value [core.GenomeLength]byte) *FixedEntropy {
	return &FixedEntropy{value: value}
}

// Random implements breeding.EntropySource.
func (f *FixedEntropy) Random(subject []byte) [core.GenomeLength]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.subjects = append(f.subjects, bytes.Clone(subject))

	return f.value
}

// Calls returns how often Random was called.
func (f *FixedEntropy) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.subjects)
}

// Subjects returns a copy of all subjects Random was called with.
func (f *FixedEntropy) Subjects() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	subjects := make([][]byte, len(f.subjects))
	copy(subjects, f.subjects)

	return subjects
}
