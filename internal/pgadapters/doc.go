// Package pgadapters presents the three supported PostgreSQL connection types
// (pgx.Pool, sql.DB, sqlx.DB) through one DBAdapter interface.
//
// It is shared by the PostgreSQL state backend and the PostgreSQL event store engine.
// Statements are passed with positional arguments, as rendered by goqu in prepared mode.
package pgadapters
