package core

import (
	"time"
)

// KittyCreatedEventType is the event type identifier.
const KittyCreatedEventType = "KittyCreated"

// KittyCreated is emitted when a kitty was created from fresh entropy.
type KittyCreated struct {
	Who        AccountID
	KittyID    KittyID
	Kitty      Kitty
	OccurredAt OccurredAt
}

// BuildKittyCreated creates a new KittyCreated event.
func BuildKittyCreated(who AccountID, kittyID KittyID, kitty Kitty, occurredAt time.Time) KittyCreated {
	return KittyCreated{
		Who:        who,
		KittyID:    kittyID,
		Kitty:      kitty,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e KittyCreated) EventType() string {
	return KittyCreatedEventType
}

// HasOccurredAt returns when this event occurred.
func (e KittyCreated) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e KittyCreated) isKittyEvent() {}
