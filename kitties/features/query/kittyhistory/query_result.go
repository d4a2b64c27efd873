package kittyhistory

import (
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

// OwnerChange is one entry of the owner history.
type OwnerChange struct {
	Owner core.AccountID
	Since time.Time
}

// KittyHistory represents the query result. Found is false for kitties without a creation event.
type KittyHistory struct {
	KittyID        core.KittyID
	Found          bool
	DNA            core.Genome
	CreatedAt      time.Time
	Parents        *core.Parents
	Owners         []OwnerChange
	Children       []core.KittyID
	SequenceNumber uint
}

// CurrentOwner returns the latest owner.
func (r KittyHistory) CurrentOwner() (core.AccountID, bool) {
	if len(r.Owners) == 0 {
		return 0, false
	}

	return r.Owners[len(r.Owners)-1].Owner, true
}

// GetSequenceNumber returns the sequence number of the last event used to build the projection.
func (r KittyHistory) GetSequenceNumber() uint {
	return r.SequenceNumber
}
