package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
	"github.com/AntonStoeckl/kitties-ledger-go/internal/pgadapters"
)

const (
	defaultEventTableName = "events"
	colSequenceNumber     = "sequence_number"
	colEventType          = "event_type"
	colOccurredAt         = "occurred_at"
	colPayload            = "payload"
	colMetadata           = "metadata"
	cteContext            = "context"
	cteVals               = "vals"
	aliasMaxSeq           = "max_seq"
	dialectPostgres       = "postgres"
	castText              = "?::text"
	castTimestamp         = "?::timestamp with time zone"
	castJsonb             = "?::jsonb"
	containsJsonb         = colPayload + " @> ?::jsonb"
)

// EventStore is the PostgreSQL eventstore.EventStore.
type EventStore struct {
	db               pgadapters.DBAdapter
	eventTableName   string
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(pgadapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(pgadapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (*EventStore, error) {
	if db == nil {
		return nil, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(pgadapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db pgadapters.DBAdapter, options ...Option) (*EventStore, error) {
	es := &EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(es); err != nil {
			return nil, err
		}
	}

	return es, nil
}

// EnsureTable creates the events table and its indexes if they do not exist yet.
func (es *EventStore) EnsureTable(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	%[2]s BIGSERIAL PRIMARY KEY,
	%[3]s TEXT NOT NULL,
	%[4]s TIMESTAMP WITH TIME ZONE NOT NULL,
	%[5]s JSONB NOT NULL,
	%[6]s JSONB NOT NULL,
	append_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
)`, es.eventTableName, colSequenceNumber, colEventType, colOccurredAt, colPayload, colMetadata),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_%[2]s_idx ON %[1]s (%[2]s)`, es.eventTableName, colEventType),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_%[2]s_gin_idx ON %[1]s USING gin (%[2]s jsonb_path_ops)`, es.eventTableName, colPayload),
	}

	for _, statement := range statements {
		if _, err := es.db.Exec(ctx, statement); err != nil {
			es.logError(logMsgDBExecFailed, err, logAttrQuery, statement)
			return err
		}
	}

	return nil
}

// Query retrieves the events matching filter in sequence order, together with the
// MaxSequenceNumberUint of this "dynamic event stream" at the time of the query.
func (es *EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {
	ctx, span := es.startTraceSpan(ctx, spanNameQuery, map[string]string{spanAttrOperation: operationQuery})
	start := time.Now()

	events, maxSequenceNumber, err := es.query(ctx, filter)

	duration := time.Since(start)
	if err != nil {
		es.recordErrorMetrics(operationQuery, errorTypeOf(err))
		es.recordDurationMetrics(metricQueryDuration, duration, operationQuery, statusError)
		es.finishTraceSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeOf(err)})

		return nil, 0, err
	}

	es.recordDurationMetrics(metricQueryDuration, duration, operationQuery, statusSuccess)
	es.recordValueMetrics(metricEventsQueried, float64(len(events)), operationQuery, statusSuccess)
	es.finishTraceSpan(span, statusSuccess, map[string]string{
		spanAttrEventCount:  fmt.Sprintf("%d", len(events)),
		spanAttrMaxSequence: fmt.Sprintf("%d", maxSequenceNumber),
	})
	es.logOperation(ctx, logMsgQueryCompleted, logAttrEventCount, len(events), logAttrDurationMS, toMilliseconds(duration))

	return events, maxSequenceNumber, nil
}

func (es *EventStore) query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEventType, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	selectStmt, err := es.addWhereClause(filter, selectStmt)
	if err != nil {
		return nil, 0, err
	}

	sqlQuery, args, err := selectStmt.Prepared(true).ToSQL()
	if err != nil {
		es.logError(logMsgBuildSelectQueryFailed, err)
		return nil, 0, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	start := time.Now()
	rows, err := es.db.Query(ctx, sqlQuery, args...)
	es.logQueryWithDuration(sqlQuery, logActionQuery, time.Since(start))

	if err != nil {
		es.logError(logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	defer es.closeRows(rows)

	return es.scanEvents(rows)
}

func (es *EventStore) scanEvents(rows pgadapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {
	events := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		var (
			eventType      string
			occurredAt     time.Time
			payload        []byte
			metadata       []byte
			sequenceNumber int64
		)

		if err := rows.Scan(&eventType, &occurredAt, &payload, &metadata, &sequenceNumber); err != nil {
			es.logError(logMsgScanRowFailed, err)
			return nil, 0, errors.Join(eventstore.ErrScanningDBRowFailed, err)
		}

		event, err := eventstore.BuildStorableEvent(eventType, occurredAt, payload, metadata)
		if err != nil {
			es.logError(logMsgBuildStorableEventFailed, err, logAttrEventType, eventType)
			return nil, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, err)
		}

		events = append(events, event)
		maxSequenceNumber = eventstore.MaxSequenceNumberUint(sequenceNumber) //nolint:gosec // BIGSERIAL is positive
	}

	if err := rows.Err(); err != nil {
		es.logError(logMsgScanRowFailed, err)
		return nil, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	return events, maxSequenceNumber, nil
}

// Append appends the events if no event matching filter was appended after expectedMaxSequenceNumber.
// The filter must be the one used for the Query the decision was based on.
func (es *EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {
	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)

	ctx, span := es.startTraceSpan(ctx, spanNameAppend, map[string]string{
		spanAttrOperation:  operationAppend,
		spanAttrEventType:  event.EventType,
		spanAttrEventCount: fmt.Sprintf("%d", len(allEvents)),
	})
	start := time.Now()

	err := es.appendEvents(ctx, filter, expectedMaxSequenceNumber, allEvents)

	duration := time.Since(start)
	switch {
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		es.recordConcurrencyConflictMetrics(operationAppend)
		es.recordDurationMetrics(metricAppendDuration, duration, operationAppend, statusConflict)
		es.finishTraceSpan(span, statusConflict, map[string]string{spanAttrErrorType: errorTypeConcurrencyConflict})
		es.logOperation(
			ctx, logMsgConcurrencyConflict,
			logAttrExpectedEvents, len(allEvents),
			logAttrExpectedSequence, expectedMaxSequenceNumber,
		)

		return err

	case err != nil:
		es.recordErrorMetrics(operationAppend, errorTypeOf(err))
		es.recordDurationMetrics(metricAppendDuration, duration, operationAppend, statusError)
		es.finishTraceSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeOf(err)})

		return err
	}

	es.recordDurationMetrics(metricAppendDuration, duration, operationAppend, statusSuccess)
	es.recordValueMetrics(metricEventsAppended, float64(len(allEvents)), operationAppend, statusSuccess)
	es.finishTraceSpan(span, statusSuccess, nil)
	es.logOperation(ctx, logMsgEventsAppended, logAttrEventCount, len(allEvents), logAttrDurationMS, toMilliseconds(duration))

	return nil
}

func (es *EventStore) appendEvents(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	allEvents eventstore.StorableEvents,
) error {
	sqlQuery, args, err := es.buildInsertQuery(allEvents, filter, expectedMaxSequenceNumber)
	if err != nil {
		es.logError(logMsgBuildInsertQueryFailed, err, logAttrEventCount, len(allEvents))
		return err
	}

	start := time.Now()
	result, err := es.db.Exec(ctx, sqlQuery, args...)
	es.logQueryWithDuration(sqlQuery, logActionAppend, time.Since(start))

	if err != nil {
		es.logError(logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		es.logError(logMsgRowsAffectedFailed, err)
		return errors.Join(eventstore.ErrGettingRowsAffectedFailed, err)
	}

	if rowsAffected < int64(len(allEvents)) {
		return eventstore.ErrConcurrencyConflict
	}

	return nil
}

// buildInsertQuery renders
//
//	WITH context AS (SELECT MAX(sequence_number) AS max_seq FROM events WHERE <filter>),
//	     vals AS (SELECT ... UNION ALL SELECT ...)
//	INSERT INTO events (...) SELECT vals.* FROM context, vals WHERE COALESCE(max_seq, 0) = <expected>
func (es *EventStore) buildInsertQuery(
	events eventstore.StorableEvents,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (string, []any, error) {
	builder := goqu.Dialect(dialectPostgres)

	cteStmt := builder.
		From(es.eventTableName).
		Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq))

	cteStmt, err := es.addWhereClause(filter, cteStmt)
	if err != nil {
		return "", nil, err
	}

	var valuesStmt *goqu.SelectDataset
	for _, event := range events {
		row := builder.Select(
			goqu.L(castText, event.EventType).As(colEventType),
			goqu.L(castTimestamp, event.OccurredAt).As(colOccurredAt),
			goqu.L(castJsonb, string(event.PayloadJSON)).As(colPayload),
			goqu.L(castJsonb, string(event.MetadataJSON)).As(colMetadata),
		)

		if valuesStmt == nil {
			valuesStmt = row
			continue
		}

		valuesStmt = valuesStmt.UnionAll(row)
	}

	insertStmt := builder.
		Insert(es.eventTableName).
		Cols(colEventType, colOccurredAt, colPayload, colMetadata).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Select(
					goqu.I(cteVals+"."+colEventType),
					goqu.I(cteVals+"."+colOccurredAt),
					goqu.I(cteVals+"."+colPayload),
					goqu.I(cteVals+"."+colMetadata),
				).
				Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(int64(expectedMaxSequenceNumber))), //nolint:gosec // sequence numbers fit
		).
		Prepared(true)

	sqlQuery, args, err := insertStmt.ToSQL()
	if err != nil {
		return "", nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
	}

	return sqlQuery, args, nil
}

// addWhereClause ORs the filter items; within an item, event types and predicates are each ORed
// and both groups must match.
func (es *EventStore) addWhereClause(filter eventstore.Filter, selectStmt *goqu.SelectDataset) (*goqu.SelectDataset, error) {
	itemExpressions := make([]exp.Expression, 0, len(filter.Items()))

	for _, item := range filter.Items() {
		itemExpression := make([]exp.Expression, 0, 2)

		if len(item.EventTypes()) > 0 {
			itemExpression = append(itemExpression, goqu.C(colEventType).In(item.EventTypes()))
		}

		predicateExpressions := make([]exp.Expression, 0, len(item.Predicates()))
		for _, predicate := range item.Predicates() {
			containment, err := jsoniter.ConfigFastest.MarshalToString(map[string]string{predicate.Key(): predicate.Val()})
			if err != nil {
				return nil, errors.Join(eventstore.ErrBuildingQueryFailed, err)
			}

			predicateExpressions = append(predicateExpressions, goqu.L(containsJsonb, containment))
		}

		if len(predicateExpressions) > 0 {
			itemExpression = append(itemExpression, goqu.Or(predicateExpressions...))
		}

		if len(itemExpression) > 0 {
			itemExpressions = append(itemExpressions, goqu.And(itemExpression...))
		}
	}

	if len(itemExpressions) == 0 {
		return selectStmt, nil
	}

	return selectStmt.Where(goqu.Or(itemExpressions...)), nil
}

func (es *EventStore) closeRows(rows pgadapters.DBRows) {
	if err := rows.Close(); err != nil && es.logger != nil {
		es.logger.Warn(logMsgCloseRowsFailed, logAttrError, err.Error())
	}
}
