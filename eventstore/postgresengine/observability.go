package postgresengine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/AntonStoeckl/kitties-ledger-go/eventstore"
)

const (
	logMsgBuildSelectQueryFailed   = "failed to build select query"
	logMsgBuildInsertQueryFailed   = "failed to build insert query"
	logMsgDBQueryFailed            = "database query execution failed"
	logMsgDBExecFailed             = "database execution failed"
	logMsgCloseRowsFailed          = "failed to close database rows"
	logMsgScanRowFailed            = "failed to scan database row"
	logMsgBuildStorableEventFailed = "failed to build storable event from database row"
	logMsgRowsAffectedFailed       = "failed to get rows affected count"
	logMsgQueryCompleted           = "query completed"
	logMsgEventsAppended           = "events appended"
	logMsgConcurrencyConflict      = "concurrency conflict detected"
	logMsgSQLExecuted              = "executed sql for: "
	logMsgOperation                = "eventstore operation: "

	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrEventType        = "event_type"
	logAttrEventCount       = "event_count"
	logAttrDurationMS       = "duration_ms"
	logAttrExpectedEvents   = "expected_events"
	logAttrExpectedSequence = "expected_sequence"

	logActionQuery  = "query"
	logActionAppend = "append"

	metricQueryDuration        = "eventstore_query_duration_seconds"
	metricAppendDuration       = "eventstore_append_duration_seconds"
	metricEventsQueried        = "eventstore_events_queried_total"
	metricEventsAppended       = "eventstore_events_appended_total"
	metricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	metricDatabaseErrors       = "eventstore_database_errors_total"

	spanNameQuery  = "eventstore.query"
	spanNameAppend = "eventstore.append"

	spanAttrOperation   = "operation"
	spanAttrEventType   = "event_type"
	spanAttrEventCount  = "event_count"
	spanAttrMaxSequence = "max_sequence"
	spanAttrErrorType   = "error_type"

	labelStatus       = "status"
	labelConflictType = "conflict_type"

	operationQuery  = "query"
	operationAppend = "append"

	statusSuccess  = "success"
	statusError    = "error"
	statusConflict = "conflict"

	errorTypeConcurrencyConflict = "concurrency_conflict"
	errorTypeBuildQuery          = "build_query"
	errorTypeDatabaseQuery       = "database_query"
	errorTypeDatabaseExec        = "database_exec"
	errorTypeRowScan             = "row_scan"
	errorTypeBuildStorableEvent  = "build_storable_event"
	errorTypeRowsAffected        = "rows_affected"
	errorTypeUnknown             = "unknown"
)

func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		return errorTypeConcurrencyConflict
	case errors.Is(err, eventstore.ErrBuildingQueryFailed):
		return errorTypeBuildQuery
	case errors.Is(err, eventstore.ErrQueryingEventsFailed):
		return errorTypeDatabaseQuery
	case errors.Is(err, eventstore.ErrAppendingEventFailed):
		return errorTypeDatabaseExec
	case errors.Is(err, eventstore.ErrScanningDBRowFailed):
		return errorTypeRowScan
	case errors.Is(err, eventstore.ErrBuildingStorableEventFailed):
		return errorTypeBuildStorableEvent
	case errors.Is(err, eventstore.ErrGettingRowsAffectedFailed):
		return errorTypeRowsAffected
	default:
		return errorTypeUnknown
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level if the logger is configured.
func (es *EventStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if es.logger != nil {
		es.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level, preferring the contextual logger.
func (es *EventStore) logOperation(ctx context.Context, action string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (es *EventStore) logError(message string, err error, args ...any) {
	if es.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		es.logger.Error(message, allArgs...)
	}
}

func (es *EventStore) recordDurationMetrics(metric string, duration time.Duration, operation, status string) {
	if es.metricsCollector != nil {
		es.metricsCollector.RecordDuration(metric, duration, map[string]string{
			spanAttrOperation: operation,
			labelStatus:       status,
		})
	}
}

func (es *EventStore) recordValueMetrics(metric string, value float64, operation, status string) {
	if es.metricsCollector != nil {
		es.metricsCollector.RecordValue(metric, value, map[string]string{
			spanAttrOperation: operation,
			labelStatus:       status,
		})
	}
}

func (es *EventStore) recordErrorMetrics(operation, errorType string) {
	if es.metricsCollector != nil {
		es.metricsCollector.IncrementCounter(metricDatabaseErrors, map[string]string{
			spanAttrOperation: operation,
			labelStatus:       statusError,
			spanAttrErrorType: errorType,
		})
	}
}

func (es *EventStore) recordConcurrencyConflictMetrics(operation string) {
	if es.metricsCollector != nil {
		es.metricsCollector.IncrementCounter(metricConcurrencyConflicts, map[string]string{
			spanAttrOperation: operation,
			labelConflictType: "concurrency",
		})
	}
}

// startTraceSpan starts a tracing span if the tracing collector is configured.
func (es *EventStore) startTraceSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	if es.tracingCollector != nil {
		return es.tracingCollector.StartSpan(ctx, name, attrs)
	}

	return ctx, nil
}

// finishTraceSpan finishes a tracing span if the tracing collector is configured.
func (es *EventStore) finishTraceSpan(span eventstore.SpanContext, status string, attrs map[string]string) {
	if es.tracingCollector != nil && span != nil {
		es.tracingCollector.FinishSpan(span, status, attrs)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
