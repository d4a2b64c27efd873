package core

import (
	"time"
)

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

// DomainEvent represents a state change that has happened on the ledger.
//
// The interface is sealed: only KittyCreated, KittyBred and KittyTransferred implement it.
type DomainEvent interface {
	// EventType returns the string identifier for this event type.
	EventType() string

	// HasOccurredAt returns when this event occurred.
	HasOccurredAt() time.Time

	isKittyEvent()
}
