package core

import (
	"time"
)

// KittyTransferredEventType is the event type identifier.
const KittyTransferredEventType = "KittyTransferred"

// KittyTransferred is emitted when the owner of a kitty changed.
type KittyTransferred struct {
	Who        AccountID
	Recipient  AccountID
	KittyID    KittyID
	OccurredAt OccurredAt
}

// BuildKittyTransferred creates a new KittyTransferred event.
func BuildKittyTransferred(who AccountID, recipient AccountID, kittyID KittyID, occurredAt time.Time) KittyTransferred {
	return KittyTransferred{
		Who:        who,
		Recipient:  recipient,
		KittyID:    kittyID,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e KittyTransferred) EventType() string {
	return KittyTransferredEventType
}

// HasOccurredAt returns when this event occurred.
func (e KittyTransferred) HasOccurredAt() time.Time {
	return e.OccurredAt
}

func (e KittyTransferred) isKittyEvent() {}
