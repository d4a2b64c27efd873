// Package postgresengine provides a PostgreSQL implementation of eventstore.EventStore.
//
// Events live in one table with a BIGSERIAL sequence number and a JSONB payload. Filter
// predicates are translated into JSONB containment checks, and Append inserts through a CTE
// that only yields rows when the max sequence number of the filtered stream is still the
// expected one, which makes the optimistic concurrency check part of the insert itself.
//
// Supported connection types: pgx.Pool, sql.DB (lib/pq), sqlx.DB.
//
//	es, err := postgresengine.NewEventStoreFromPGXPool(pool,
//		postgresengine.WithTableName("kitty_events"),
//		postgresengine.WithLogger(logger),
//		postgresengine.WithMetrics(collector),
//	)
//	err = es.EnsureTable(ctx)
package postgresengine
