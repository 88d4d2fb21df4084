package postgresengine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

const (
	metricFetchDuration        = "eventstore_fetch_duration_seconds"
	metricAppendDuration       = "eventstore_append_duration_seconds"
	metricViewDuration         = "eventstore_view_state_duration_seconds"
	metricEventsFetched        = "eventstore_events_fetched_total"
	metricEventsAppended       = "eventstore_events_appended_total"
	metricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	metricDatabaseErrors       = "eventstore_database_errors_total"

	spanNamePrefix       = "eventstore."
	spanAttrOperation    = "operation"
	spanAttrStream       = "stream"
	spanAttrEventCount   = "event_count"
	spanAttrErrorType    = "error_type"
	spanAttrDurationMS   = "duration_ms"
	spanAttrExpectations = "expected_streams"
	spanAttrViewName     = "view_name"

	labelStatus       = "status"
	labelConflictType = "conflict_type"

	statusSuccess = "success"
	statusError   = "error"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (es *EventStore) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	es.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, es.toMilliseconds(duration), logAttrQuery, sqlQuery)
}

func (es *EventStore) logDebug(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Debug(msg, args...)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (es *EventStore) logOperation(ctx context.Context, action string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

func (es *EventStore) logWarn(ctx context.Context, msg string, err error) {
	if es.contextualLogger != nil {
		es.contextualLogger.WarnContext(ctx, msg, logAttrError, err.Error())
		return
	}

	if es.logger != nil {
		es.logger.Warn(msg, logAttrError, err.Error())
	}
}

// logError logs error information at the error level if a logger is configured.
func (es *EventStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if es.contextualLogger != nil {
		es.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if es.logger != nil {
		es.logger.Error(message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (es *EventStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func (es *EventStore) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if es.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	es.metricsCollector.RecordDuration(metric, duration, labels)
}

func (es *EventStore) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if es.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	es.metricsCollector.RecordValue(metric, value, labels)
}

func (es *EventStore) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if es.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := es.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	es.metricsCollector.IncrementCounter(metric, labels)
}

// === Operation Observer ===
// One observer wraps the tracing span, the metrics and the operational log line of one store operation.

type operationObserver struct {
	es             *EventStore
	ctx            context.Context
	operation      string
	durationMetric string
	countMetric    string
	span           eventstore.SpanContext
	start          time.Time
}

func (es *EventStore) startObserving(
	ctx context.Context,
	operation string,
	durationMetric string,
	countMetric string,
	attrs map[string]string,
) (*operationObserver, context.Context) {

	spanAttrs := map[string]string{spanAttrOperation: operation}
	for key, value := range attrs {
		spanAttrs[key] = value
	}

	var span eventstore.SpanContext
	if es.tracingCollector != nil {
		ctx, span = es.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, spanAttrs)
	}

	return &operationObserver{
		es:             es,
		ctx:            ctx,
		operation:      operation,
		durationMetric: durationMetric,
		countMetric:    countMetric,
		span:           span,
		start:          time.Now(),
	}, ctx
}

func (o *operationObserver) labels(status string) map[string]string {
	return map[string]string{spanAttrOperation: o.operation, labelStatus: status}
}

// finishSuccess records the metrics, the log line and the span of a successful operation.
func (o *operationObserver) finishSuccess(eventCount int, logArgs ...any) {
	duration := time.Since(o.start)

	o.es.recordDuration(o.ctx, o.durationMetric, duration, o.labels(statusSuccess))

	if o.countMetric != "" {
		o.es.recordValue(o.ctx, o.countMetric, float64(eventCount), o.labels(statusSuccess))
	}

	args := []any{logAttrEventCount, eventCount, logAttrDurationMS, o.es.toMilliseconds(duration)}
	o.es.logOperation(o.ctx, o.operation, append(args, logArgs...)...)

	o.finishSpan(statusSuccess, map[string]string{
		spanAttrEventCount: strconv.Itoa(eventCount),
		spanAttrDurationMS: fmt.Sprintf("%.2f", o.es.toMilliseconds(duration)),
	})
}

// finishError records a failed operation. The error itself was logged where it happened.
func (o *operationObserver) finishError(errorType string) {
	duration := time.Since(o.start)

	o.es.recordDuration(o.ctx, o.durationMetric, duration, o.labels(statusError))

	errorLabels := o.labels(statusError)
	errorLabels[spanAttrErrorType] = errorType
	o.es.incrementCounter(o.ctx, metricDatabaseErrors, errorLabels)

	o.finishSpan(statusError, map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: fmt.Sprintf("%.2f", o.es.toMilliseconds(duration)),
	})
}

// finishConflict records an append that lost against a concurrent writer or hit a finalized stream.
func (o *operationObserver) finishConflict(conflictType string, logArgs ...any) {
	duration := time.Since(o.start)

	o.es.recordDuration(o.ctx, o.durationMetric, duration, o.labels(statusError))
	o.es.incrementCounter(o.ctx, metricConcurrencyConflicts, map[string]string{
		spanAttrOperation: o.operation,
		labelConflictType: conflictType,
	})

	o.es.logOperation(o.ctx, logMsgConcurrencyConflict, logArgs...)

	o.finishSpan(statusError, map[string]string{spanAttrErrorType: conflictType})
}

func (o *operationObserver) finishSpan(status string, attrs map[string]string) {
	if o.es.tracingCollector == nil || o.span == nil {
		return
	}

	o.span.SetStatus(status)
	for key, value := range attrs {
		o.span.AddAttribute(key, value)
	}

	o.es.tracingCollector.FinishSpan(o.span, status, attrs)
}
