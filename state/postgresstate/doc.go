// Package postgresstate provides a PostgreSQL implementation of state.Backend.
//
// Values live in a BYTEA key/value table; a single-row version table implements the
// optimistic concurrency check of Apply. Multiple database adapters are supported
// (pgx.Pool, sql.DB, sqlx.DB), all statements are built with goqu.
//
// Usage examples:
//
//	db, _ := pgxpool.New(context.Background(), dsn)
//	backend, _ := postgresstate.NewBackendFromPGXPool(db, postgresstate.WithLogger(logger))
//	_ = backend.EnsureSchema(ctx)
//
//	overlay, _ := state.Open(ctx, backend)
package postgresstate
