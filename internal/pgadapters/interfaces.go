package pgadapters

import (
	"context"
	"errors"
)

// ErrNoRows is returned by DBRow.Scan when the query matched no row, independent of the driver.
var ErrNoRows = errors.New("no rows in result set")

// DBAdapter defines the interface for database operations needed by the PostgreSQL packages.
type DBAdapter interface {
	Query(ctx context.Context, query string, args ...any) (DBRows, error)
	QueryRow(ctx context.Context, query string, args ...any) DBRow
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)

	// WithinTx runs fn inside one database transaction. The transaction is committed
	// if fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(tx DBExecutor) error) error
}

// DBExecutor executes statements inside a transaction.
type DBExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBRow defines the interface for a single result row.
type DBRow interface {
	Scan(dest ...any) error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
