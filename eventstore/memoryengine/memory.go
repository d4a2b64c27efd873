// Package memoryengine provides an in-process eventstore.EventStore.
//
// It follows the same contract as the PostgreSQL engine, including the optimistic
// concurrency check of Append, and is used by tests and by the demo binary when no
// database is configured.
package memoryengine

import (
	"context"
	"slices"
	"sync"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
)

const (
	logMsgEventsAppended      = "eventstore operation: events appended"
	logMsgConcurrencyConflict = "eventstore operation: concurrency conflict detected"
	logAttrEventCount         = "event_count"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
)

type storedEvent struct {
	sequenceNumber eventstore.MaxSequenceNumberUint
	event          eventstore.StorableEvent
}

// EventStore keeps all events in memory. It is safe for concurrent use.
type EventStore struct {
	mu     sync.RWMutex
	events []storedEvent
	logger eventstore.Logger
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore)

// WithLogger sets the logger for the EventStore.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) {
		es.logger = logger
	}
}

// NewEventStore creates an empty EventStore.
func NewEventStore(options ...Option) *EventStore {
	es := &EventStore{}

	for _, option := range options {
		option(es)
	}

	return es
}

// Query returns all events matching filter in sequence order, plus the highest matching sequence number.
func (es *EventStore) Query(_ context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	events, maxSequenceNumber := es.matching(filter)

	return events, maxSequenceNumber, nil
}

// Append appends the events if no event matching filter was appended after expectedMaxSequenceNumber.
func (es *EventStore) Append(
	_ context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	_, maxSequenceNumber := es.matching(filter)
	if maxSequenceNumber != expectedMaxSequenceNumber {
		if es.logger != nil {
			es.logger.Info(
				logMsgConcurrencyConflict,
				logAttrExpectedSequence, expectedMaxSequenceNumber,
				logAttrActualSequence, maxSequenceNumber,
			)
		}

		return eventstore.ErrConcurrencyConflict
	}

	for _, e := range append([]eventstore.StorableEvent{event}, additionalEvents...) {
		es.events = append(es.events, storedEvent{
			sequenceNumber: eventstore.MaxSequenceNumberUint(len(es.events) + 1),
			event:          cloneEvent(e),
		})
	}

	if es.logger != nil {
		es.logger.Info(logMsgEventsAppended, logAttrEventCount, 1+len(additionalEvents))
	}

	return nil
}

// Len returns the total number of stored events.
func (es *EventStore) Len() int {
	es.mu.RLock()
	defer es.mu.RUnlock()

	return len(es.events)
}

func (es *EventStore) matching(filter eventstore.Filter) (eventstore.StorableEvents, eventstore.MaxSequenceNumberUint) {
	events := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, stored := range es.events {
		if filter.Matches(stored.event) {
			events = append(events, cloneEvent(stored.event))
			maxSequenceNumber = stored.sequenceNumber
		}
	}

	return events, maxSequenceNumber
}

func cloneEvent(event eventstore.StorableEvent) eventstore.StorableEvent {
	event.PayloadJSON = slices.Clone(event.PayloadJSON)
	event.MetadataJSON = slices.Clone(event.MetadataJSON)

	return event
}
