package state

import (
	"bytes"
	"context"
	"errors"
	"slices"
)

// Overlay is a single all-or-nothing unit of work on top of a Backend.
//
// An Overlay is not safe for concurrent use. The host serializes calls.
type Overlay struct {
	backend Backend
	base    Version
	pending map[string][]byte
	closed  bool
}

// Open starts a new Overlay, remembering the backend version it is based on.
func Open(ctx context.Context, backend Backend) (*Overlay, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}

	base, err := backend.Version(ctx)
	if err != nil {
		return nil, errors.Join(ErrReadingStateFailed, err)
	}

	return &Overlay{
		backend: backend,
		base:    base,
		pending: make(map[string][]byte),
	}, nil
}

// BaseVersion returns the backend version this overlay is based on.
func (o *Overlay) BaseVersion() Version {
	return o.base
}

// Get returns the pending value for key if there is one, otherwise the backend value.
func (o *Overlay) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if o.closed {
		return nil, false, ErrOverlayClosed
	}

	if value, ok := o.pending[string(key)]; ok {
		return bytes.Clone(value), true, nil
	}

	value, found, err := o.backend.Get(ctx, key)
	if err != nil {
		return nil, false, errors.Join(ErrReadingStateFailed, err)
	}

	return value, found, nil
}

// Put buffers a write. Nothing reaches the backend before Commit.
func (o *Overlay) Put(key []byte, value []byte) error {
	if o.closed {
		return ErrOverlayClosed
	}

	if len(key) == 0 {
		return ErrEmptyKey
	}

	o.pending[string(key)] = bytes.Clone(value)

	return nil
}

// Changes returns the buffered writes ordered by key, so that every node produces the same change set.
func (o *Overlay) Changes() Changes {
	changes := make(Changes, 0, len(o.pending))
	for key, value := range o.pending {
		changes = append(changes, Change{Key: []byte(key), Value: bytes.Clone(value)})
	}

	slices.SortFunc(changes, func(a, b Change) int {
		return bytes.Compare(a.Key, b.Key)
	})

	return changes
}

// Commit applies all buffered writes atomically and closes the overlay.
// An overlay without writes commits without touching the backend.
func (o *Overlay) Commit(ctx context.Context) error {
	if o.closed {
		return ErrOverlayClosed
	}

	o.closed = true

	if len(o.pending) == 0 {
		return nil
	}

	if err := o.backend.Apply(ctx, o.base, o.Changes()); err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			return err
		}

		return errors.Join(ErrCommittingStateFailed, err)
	}

	return nil
}

// Discard drops all buffered writes and closes the overlay.
func (o *Overlay) Discard() {
	o.closed = true
	o.pending = nil
}
