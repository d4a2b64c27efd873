package core

import (
	"time"
)

// KittyBredEventType is the event type identifier.
const KittyBredEventType = "KittyBred"

// KittyBred is emitted when a kitty was bred from two parents.
//
// The lineage is not part of the event payload on the ledger, but it is carried here
// so that read models built from the event log can reconstruct it.
type KittyBred struct {
	Who        AccountID
	KittyID    KittyID
	Kitty      Kitty
	Parents    Parents
	OccurredAt OccurredAt
}

// BuildKittyBred creates a new KittyBred event.
func BuildKittyBred(who AccountID, kittyID KittyID, kitty Kitty, parents Parents, occurredAt time.Time) KittyBred {
	return KittyBred{
		Who:        who,
		KittyID:    kittyID,
		Kitty:      kitty,
		Parents:    parents,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e KittyBred) EventType() string {
	return KittyBredEventType
}

// HasOccurredAt returns when this event occurred.
func (e KittyBred) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e KittyBred) isKittyEvent() {}
