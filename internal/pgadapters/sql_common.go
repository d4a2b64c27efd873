package pgadapters

import (
	"context"
	"database/sql"
	"errors"
)

// stdRows wraps standard library sql.Rows to implement DBRows interface
type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

func (s *stdRows) Err() error {
	return s.rows.Err()
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdRow wraps standard library sql.Row to implement DBRow interface
type stdRow struct {
	row *sql.Row
}

func (s *stdRow) Scan(dest ...any) error {
	err := s.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}

	return err
}

// stdTx wraps standard library sql.Tx to implement DBExecutor interface
type stdTx struct {
	tx *sql.Tx
}

func (s *stdTx) Exec(ctx context.Context, query string, args ...any) (DBResult, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

func runStdTx(tx *sql.Tx, fn func(tx DBExecutor) error) error {
	if fnErr := fn(&stdTx{tx: tx}); fnErr != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Join(fnErr, rollbackErr)
		}

		return fnErr
	}

	return tx.Commit()
}
