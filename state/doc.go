// Package state provides the transactional key-value substrate the ledger runs on.
//
// A Backend stores raw key/value pairs together with a monotonically increasing version.
// An Overlay is a per-call transaction on top of a Backend: reads fall through to the
// backend, writes are buffered, and Commit applies the whole change set atomically,
// provided that nobody else committed since the overlay was opened.
//
// Backends:
//   - memorystate: in-process maps, used by tests and single-node setups
//   - postgresstate: PostgreSQL via pgx.Pool, sql.DB or sqlx.DB
//
// Common usage pattern:
//
//	overlay, err := state.Open(ctx, backend)
//	if err != nil {
//		// handle error
//	}
//
//	overlay.Put(key, value)
//
//	if err := overlay.Commit(ctx); err != nil {
//		// errors.Is(err, state.ErrConcurrencyConflict) means: retry the whole call
//	}
package state
