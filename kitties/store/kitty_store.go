package store

import (
	"context"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
	"github.com/AntonStoeckl/kitties-ledger-go/state"
)

// KittyStore reads and writes kitties, owners and lineage. It never allocates ids.
type KittyStore struct {
	rw state.ReadWriter
}

// NewKittyStore creates a KittyStore on top of rw.
func NewKittyStore(rw state.ReadWriter) KittyStore {
	return KittyStore{rw: rw}
}

// Put stores the kitty under id.
func (s KittyStore) Put(_ context.Context, id core.KittyID, kitty core.Kitty) error {
	return s.rw.Put(kittyKey(id), encodeKitty(kitty))
}

// Get returns the kitty stored under id.
func (s KittyStore) Get(ctx context.Context, id core.KittyID) (core.Kitty, bool, error) {
	key := kittyKey(id)

	value, found, err := s.rw.Get(ctx, key)
	if err != nil || !found {
		return core.Kitty{}, false, err
	}

	kitty, err := decodeKitty(key, value)
	if err != nil {
		return core.Kitty{}, false, err
	}

	return kitty, true, nil
}

// OwnerOf returns the owner of the kitty with id.
func (s KittyStore) OwnerOf(ctx context.Context, id core.KittyID) (core.AccountID, bool, error) {
	key := ownerKey(id)

	value, found, err := s.rw.Get(ctx, key)
	if err != nil || !found {
		return 0, false, err
	}

	owner, err := decodeAccountID(key, value)
	if err != nil {
		return 0, false, err
	}

	return owner, true, nil
}

// SetOwner sets the owner of the kitty with id.
func (s KittyStore) SetOwner(_ context.Context, id core.KittyID, account core.AccountID) error {
	return s.rw.Put(ownerKey(id), encodeAccountID(account))
}

// ParentsOf returns the lineage of the kitty with id. Only bred kitties have one.
func (s KittyStore) ParentsOf(ctx context.Context, id core.KittyID) (core.Parents, bool, error) {
	key := parentsKey(id)

	value, found, err := s.rw.Get(ctx, key)
	if err != nil || !found {
		return core.Parents{}, false, err
	}

	parents, err := decodeParents(key, value)
	if err != nil {
		return core.Parents{}, false, err
	}

	return parents, true, nil
}

// SetParents records the lineage of the kitty with id.
func (s KittyStore) SetParents(_ context.Context, id core.KittyID, parents core.Parents) error {
	return s.rw.Put(parentsKey(id), encodeParents(parents))
}
