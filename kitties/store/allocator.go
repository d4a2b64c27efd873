package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
)

// ErrUnexpectedKittyID is returned by Claim if the counter does not point at the claimed id.
var ErrUnexpectedKittyID = errors.New("claimed kitty id is not the next one")

// Allocator owns the NextKittyId counter cell.
type Allocator struct {
	rw state.ReadWriter
}

// NewAllocator creates an Allocator on top of rw.
func NewAllocator(rw state.ReadWriter) Allocator {
	return Allocator{rw: rw}
}

// Next returns the id the next Allocate would issue. An absent counter cell reads as 0.
func (a Allocator) Next(ctx context.Context) (core.KittyID, error) {
	key := nextKittyIDKey()

	value, found, err := a.rw.Get(ctx, key)
	if err != nil || !found {
		return 0, err
	}

	return decodeKittyID(key, value)
}

// Allocate returns the current counter value and advances the counter by one.
// At MaxKittyID it fails with core.ErrKittyIDCannotOverflow and leaves the counter unchanged.
func (a Allocator) Allocate(ctx context.Context) (core.KittyID, error) {
	id, err := a.Next(ctx)
	if err != nil {
		return 0, err
	}

	if id == core.MaxKittyID {
		return 0, core.ErrKittyIDCannotOverflow
	}

	if err = a.Set(ctx, id+1); err != nil {
		return 0, err
	}

	return id, nil
}

// Claim allocates expected, which must be the id the counter points at.
// A mismatch fails with ErrUnexpectedKittyID and leaves the counter unchanged.
func (a Allocator) Claim(ctx context.Context, expected core.KittyID) error {
	next, err := a.Next(ctx)
	if err != nil {
		return err
	}

	if next != expected {
		return errors.Join(ErrUnexpectedKittyID, fmt.Errorf("claimed %d, counter at %d", expected, next))
	}

	_, err = a.Allocate(ctx)

	return err
}

// Set positions the counter. It is meant for genesis and tests.
func (a Allocator) Set(_ context.Context, next core.KittyID) error {
	return a.rw.Put(nextKittyIDKey(), encodeKittyID(next))
}
