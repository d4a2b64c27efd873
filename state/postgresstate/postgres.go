package postgresstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/kitties-ledger-go/state"
	"github.com/AntonStoeckl/kitties-ledger-go/internal/pgadapters"
)

const (
	defaultStateTableName     = "ledger_state"
	versionRowID              = 1
	logMsgBuildQueryFailed    = "failed to build state query"
	logMsgDBQueryFailed       = "state query execution failed"
	logMsgApplyFailed         = "applying state changes failed"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgChangesApplied      = "state changes applied"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "state operation: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrChangeCount        = "change_count"
	logAttrDurationMS         = "duration_ms"
	logAttrExpectedVersion    = "expected_version"
	logActionGet              = "get"
	logActionVersion          = "version"
	logActionApply            = "apply"
	colKey                    = "key"
	colValue                  = "value"
	colID                     = "id"
	colVersion                = "version"
	dialectPostgres           = "postgres"
)

var (
	// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when an empty table name is supplied.
	ErrEmptyTableName = errors.New("state table name must not be empty")

	// ErrBuildingQueryFailed is returned when goqu fails to render a statement.
	ErrBuildingQueryFailed = errors.New("building state query failed")
)

// Logger interface for SQL query logging, operational information, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Backend is a state.Backend stored in PostgreSQL.
type Backend struct {
	db               pgadapters.DBAdapter
	stateTableName   string
	versionTableName string
	logger           Logger
}

// Option defines a functional option for configuring Backend.
type Option func(*Backend) error

// WithTableName sets the name of the key/value table. The version table is named "<name>_version".
func WithTableName(tableName string) Option {
	return func(b *Backend) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		b.stateTableName = tableName
		b.versionTableName = tableName + "_version"

		return nil
	}
}

// WithLogger sets the logger for the Backend.
//
// Debug level: SQL statements with execution timing
// Info level: applied change sets, concurrency conflicts
// Error level: failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(b *Backend) error {
		b.logger = logger
		return nil
	}
}

// NewBackendFromPGXPool creates a new Backend using a pgx Pool with optional configuration.
func NewBackendFromPGXPool(db *pgxpool.Pool, options ...Option) (*Backend, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newBackend(pgadapters.NewPGXAdapter(db), options...)
}

// NewBackendFromSQLDB creates a new Backend using a sql.DB with optional configuration.
func NewBackendFromSQLDB(db *sql.DB, options ...Option) (*Backend, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newBackend(pgadapters.NewSQLAdapter(db), options...)
}

// NewBackendFromSQLX creates a new Backend using a sqlx.DB with optional configuration.
func NewBackendFromSQLX(db *sqlx.DB, options ...Option) (*Backend, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newBackend(pgadapters.NewSQLXAdapter(db), options...)
}

func newBackend(db pgadapters.DBAdapter, options ...Option) (*Backend, error) {
	b := &Backend{
		db:               db,
		stateTableName:   defaultStateTableName,
		versionTableName: defaultStateTableName + "_version",
	}

	for _, option := range options {
		if err := option(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// EnsureSchema creates the state and version tables if they do not exist yet.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (%s BYTEA PRIMARY KEY, %s BYTEA NOT NULL)`,
			b.stateTableName, colKey, colValue,
		),
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (%s SMALLINT PRIMARY KEY, %s BIGINT NOT NULL)`,
			b.versionTableName, colID, colVersion,
		),
	}

	for _, statement := range statements {
		if _, err := b.db.Exec(ctx, statement); err != nil {
			b.logError(logMsgDBQueryFailed, err, logAttrQuery, statement)
			return err
		}
	}

	return nil
}

// Get returns the value stored for key.
func (b *Backend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	sqlQuery, args, err := goqu.Dialect(dialectPostgres).
		From(b.stateTableName).
		Select(colValue).
		Where(goqu.C(colKey).Eq(key)).
		Prepared(true).
		ToSQL()
	if err != nil {
		b.logError(logMsgBuildQueryFailed, err)
		return nil, false, errors.Join(ErrBuildingQueryFailed, err)
	}

	var value []byte

	start := time.Now()
	scanErr := b.db.QueryRow(ctx, sqlQuery, args...).Scan(&value)
	b.logQueryWithDuration(sqlQuery, logActionGet, time.Since(start))

	switch {
	case errors.Is(scanErr, pgadapters.ErrNoRows):
		return nil, false, nil
	case scanErr != nil:
		b.logError(logMsgDBQueryFailed, scanErr, logAttrQuery, sqlQuery)
		return nil, false, scanErr
	}

	return value, true, nil
}

// Version returns the current state version. A fresh database is at version 0.
func (b *Backend) Version(ctx context.Context) (state.Version, error) {
	sqlQuery, args, err := goqu.Dialect(dialectPostgres).
		From(b.versionTableName).
		Select(colVersion).
		Where(goqu.C(colID).Eq(versionRowID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		b.logError(logMsgBuildQueryFailed, err)
		return 0, errors.Join(ErrBuildingQueryFailed, err)
	}

	var version int64

	start := time.Now()
	scanErr := b.db.QueryRow(ctx, sqlQuery, args...).Scan(&version)
	b.logQueryWithDuration(sqlQuery, logActionVersion, time.Since(start))

	switch {
	case errors.Is(scanErr, pgadapters.ErrNoRows):
		return 0, nil
	case scanErr != nil:
		b.logError(logMsgDBQueryFailed, scanErr, logAttrQuery, sqlQuery)
		return 0, scanErr
	}

	return state.Version(version), nil
}

// Apply writes all changes in one transaction, guarded by the version row.
func (b *Backend) Apply(ctx context.Context, expected state.Version, changes state.Changes) error {
	statements, err := b.buildApplyStatements(expected, changes)
	if err != nil {
		b.logError(logMsgBuildQueryFailed, err, logAttrChangeCount, len(changes))
		return err
	}

	start := time.Now()

	txErr := b.db.WithinTx(ctx, func(tx pgadapters.DBExecutor) error {
		if _, execErr := tx.Exec(ctx, statements.seedVersion.sql, statements.seedVersion.args...); execErr != nil {
			return execErr
		}

		result, execErr := tx.Exec(ctx, statements.bumpVersion.sql, statements.bumpVersion.args...)
		if execErr != nil {
			return execErr
		}

		rowsAffected, rowsErr := result.RowsAffected()
		if rowsErr != nil {
			return rowsErr
		}

		if rowsAffected == 0 {
			return state.ErrConcurrencyConflict
		}

		if len(changes) == 0 {
			return nil
		}

		_, execErr = tx.Exec(ctx, statements.upsertValues.sql, statements.upsertValues.args...)

		return execErr
	})

	duration := time.Since(start)
	b.logQueryWithDuration(statements.upsertValues.sql, logActionApply, duration)

	if errors.Is(txErr, state.ErrConcurrencyConflict) {
		b.logOperation(logMsgConcurrencyConflict, logAttrExpectedVersion, expected)
		return state.ErrConcurrencyConflict
	}

	if txErr != nil {
		b.logError(logMsgApplyFailed, txErr, logAttrChangeCount, len(changes))
		return txErr
	}

	b.logOperation(
		logMsgChangesApplied,
		logAttrChangeCount, len(changes),
		logAttrDurationMS, b.toMilliseconds(duration),
	)

	return nil
}

type preparedStatement struct {
	sql  string
	args []any
}

type applyStatements struct {
	seedVersion  preparedStatement
	bumpVersion  preparedStatement
	upsertValues preparedStatement
}

func (b *Backend) buildApplyStatements(expected state.Version, changes state.Changes) (applyStatements, error) {
	builder := goqu.Dialect(dialectPostgres)

	var statements applyStatements
	var err error

	statements.seedVersion.sql, statements.seedVersion.args, err = builder.
		Insert(b.versionTableName).
		Rows(goqu.Record{colID: versionRowID, colVersion: 0}).
		OnConflict(goqu.DoNothing()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return applyStatements{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	statements.bumpVersion.sql, statements.bumpVersion.args, err = builder.
		Update(b.versionTableName).
		Set(goqu.Record{colVersion: goqu.L(colVersion + " + 1")}).
		Where(
			goqu.C(colID).Eq(versionRowID),
			goqu.C(colVersion).Eq(int64(expected)), //nolint:gosec // versions stay far below MaxInt64
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return applyStatements{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	if len(changes) == 0 {
		return statements, nil
	}

	rows := make([]any, 0, len(changes))
	for _, change := range changes {
		rows = append(rows, goqu.Record{colKey: change.Key, colValue: change.Value})
	}

	statements.upsertValues.sql, statements.upsertValues.args, err = builder.
		Insert(b.stateTableName).
		Rows(rows...).
		OnConflict(goqu.DoUpdate(colKey, goqu.Record{colValue: goqu.I("excluded." + colValue)})).
		Prepared(true).
		ToSQL()
	if err != nil {
		return applyStatements{}, errors.Join(ErrBuildingQueryFailed, err)
	}

	return statements, nil
}

// logQueryWithDuration logs SQL statements with execution time at debug level if the logger is configured.
func (b *Backend) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if b.logger != nil {
		b.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, b.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (b *Backend) logOperation(action string, args ...any) {
	if b.logger != nil {
		b.logger.Info(logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (b *Backend) logError(message string, err error, args ...any) {
	if b.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		b.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (b *Backend) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
