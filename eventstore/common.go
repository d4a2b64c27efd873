package eventstore

import (
	"context"
	"errors"
)

var (
	// ErrConcurrencyConflict is returned by Append when the dynamic event stream has changed.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	// ErrEmptyEventsTableName is returned when an empty table name is supplied.
	ErrEmptyEventsTableName = errors.New("events table name must not be empty")

	// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrQueryingEventsFailed is returned when reading events fails.
	ErrQueryingEventsFailed = errors.New("querying events failed")

	// ErrAppendingEventFailed is returned when appending events fails for other reasons than a conflict.
	ErrAppendingEventFailed = errors.New("appending the event failed")

	// ErrBuildingQueryFailed is returned when building a database query fails.
	ErrBuildingQueryFailed = errors.New("building the query failed")

	// ErrScanningDBRowFailed is returned when a database row cannot be scanned.
	ErrScanningDBRowFailed = errors.New("scanning the database row failed")

	// ErrBuildingStorableEventFailed is returned when a stored row is not a valid StorableEvent.
	ErrBuildingStorableEventFailed = errors.New("building the storable event failed")

	// ErrGettingRowsAffectedFailed is returned when the driver cannot report affected rows.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
)

// MaxSequenceNumberUint is the highest sequence number of a "dynamic event stream" at the time of a Query.
type MaxSequenceNumberUint = uint

// EventStore is implemented by all engines.
type EventStore interface {
	Query(ctx context.Context, filter Filter) (StorableEvents, MaxSequenceNumberUint, error)
	Append(
		ctx context.Context,
		filter Filter,
		expectedMaxSequenceNumber MaxSequenceNumberUint,
		event StorableEvent,
		additionalEvents ...StorableEvent,
	) error
}
