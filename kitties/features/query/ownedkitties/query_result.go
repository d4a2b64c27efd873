package ownedkitties

import (
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// KittyInfo represents a kitty owned by the queried account.
type KittyInfo struct {
	KittyID    core.KittyID
	OwnedSince time.Time
}

// OwnedKitties represents the query result.
type OwnedKitties struct {
	Owner          core.AccountID
	Kitties        []KittyInfo
	Count          int
	SequenceNumber uint
}

// GetSequenceNumber returns the sequence number of the last event used to build the projection.
func (r OwnedKitties) GetSequenceNumber() uint {
	return r.SequenceNumber
}
