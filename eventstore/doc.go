// Package eventstore provides the durable event log the kitties ledger publishes its events to.
//
// The log is a single append-only sequence of events. Every event is stored as a StorableEvent
// (type, time, JSON payload, JSON metadata) and gets a strictly increasing sequence number.
// Reading and appending happen through "dynamic event streams": a Filter selects the events
// relevant for a decision, and Append only succeeds if no event matching the same Filter was
// appended since the Query that returned expectedMaxSequenceNumber.
//
// Filters match on event types and on top-level payload properties:
//
//	filter := BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(core.KittyCreatedEventType, core.KittyBredEventType, core.KittyTransferredEventType).
//		AndAnyPredicateOf(P("KittyID", "3"), P("ParentA", "3"), P("ParentB", "3")).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	err = store.Append(ctx, filter, maxSeq, newEvent)
//
// Implementations live in the memoryengine and postgresengine subpackages.
package eventstore
