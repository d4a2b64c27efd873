package state

import (
	"context"
	"errors"
)

var (
	// ErrConcurrencyConflict is returned by Commit when the backend version moved since the overlay was opened.
	ErrConcurrencyConflict = errors.New("concurrency error, state version has changed")

	// ErrReadingStateFailed is returned when a backend read fails.
	ErrReadingStateFailed = errors.New("reading state failed")

	// ErrCommittingStateFailed is returned when applying a change set fails for other reasons than a conflict.
	ErrCommittingStateFailed = errors.New("committing state failed")

	// ErrOverlayClosed is returned when an overlay is used after Commit or Discard.
	ErrOverlayClosed = errors.New("state overlay already closed")

	// ErrNilBackend is returned when a nil backend is supplied.
	ErrNilBackend = errors.New("state backend must not be nil")

	// ErrEmptyKey is returned when an empty key is written.
	ErrEmptyKey = errors.New("state key must not be empty")
)

// Version is the state version of a backend. It increases by one with every applied change set.
type Version = uint64

// Change is a single write of a change set.
type Change struct {
	Key   []byte
	Value []byte
}

// Changes is an alias type for a slice of Change.
type Changes = []Change

// Reader reads raw values by key.
type Reader interface {
	Get(ctx context.Context, key []byte) ([]byte, bool, error)
}

// Writer buffers raw writes.
type Writer interface {
	Put(key []byte, value []byte) error
}

// ReadWriter combines Reader and Writer.
type ReadWriter interface {
	Reader
	Writer
}

// Backend is a durable, versioned key-value store.
type Backend interface {
	Reader

	// Version returns the current state version.
	Version(ctx context.Context) (Version, error)

	// Apply writes all changes atomically if the current version equals expected,
	// advancing the version by one. Otherwise, it returns ErrConcurrencyConflict and writes nothing.
	Apply(ctx context.Context, expected Version, changes Changes) error
}
