package application

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

const (
	// HandleDurationMetric tracks the duration of one Handle or HandleAll call.
	HandleDurationMetric = "aggregate_handle_duration_seconds"
	// HandleCallsMetric counts Handle and HandleAll calls.
	HandleCallsMetric = "aggregate_handle_calls_total"
	// EventsProducedMetric tracks how many events one call appended.
	EventsProducedMetric = "aggregate_events_produced"
	// ViewHandleDurationMetric tracks the duration of one materialized view update.
	ViewHandleDurationMetric = "materialized_view_handle_duration_seconds"
	// ViewHandleCallsMetric counts materialized view updates.
	ViewHandleCallsMetric = "materialized_view_handle_calls_total"

	// StatusSuccess marks a call that persisted its result.
	StatusSuccess = "success"
	// StatusConflict marks a call that lost against a concurrent writer.
	StatusConflict = "conflict"
	// StatusError marks a call that failed for any other reason.
	StatusError = "error"

	logMsgHandled = "application: handled "
	logMsgFailed  = "application: failed to handle "

	logAttrComponent   = "component"
	logAttrMessageType = "message_type"
	logAttrStatus      = "status"
	logAttrEventCount  = "event_count"
	logAttrDurationMS  = "duration_ms"
	logAttrError       = "error"

	spanNamePrefix = "application."
)

// observer bundles the optional logger, metrics and tracing collaborators of one component.
type observer struct {
	component      string
	durationMetric string
	callsMetric    string
	countMetric    string
	settings       settings
}

func newObserver(component, durationMetric, callsMetric, countMetric string, s settings) observer {
	return observer{
		component:      component,
		durationMetric: durationMetric,
		callsMetric:    callsMetric,
		countMetric:    countMetric,
		settings:       s,
	}
}

// observation is one observed call, from start to finish.
type observation struct {
	observer    observer
	ctx         context.Context
	messageType string
	span        eventstore.SpanContext
	start       time.Time
}

func (o observer) start(ctx context.Context, operation string, messageType string) (*observation, context.Context) {
	var span eventstore.SpanContext

	if o.settings.tracingCollector != nil {
		ctx, span = o.settings.tracingCollector.StartSpan(ctx, spanNamePrefix+o.component+"."+operation, map[string]string{
			logAttrComponent:   o.component,
			logAttrMessageType: messageType,
		})
	}

	return &observation{observer: o, ctx: ctx, messageType: messageType, span: span, start: time.Now()}, ctx
}

// finish records the outcome of the call. A nil err means success.
func (ob *observation) finish(eventCount int, err error) {
	duration := time.Since(ob.start)
	status := statusOf(err)
	labels := map[string]string{logAttrComponent: ob.observer.component, logAttrMessageType: ob.messageType, logAttrStatus: status}

	ob.recordDuration(ob.observer.durationMetric, duration, labels)
	ob.incrementCounter(ob.observer.callsMetric, labels)

	if err == nil && ob.observer.countMetric != "" {
		ob.recordValue(ob.observer.countMetric, float64(eventCount), labels)
	}

	args := []any{
		logAttrComponent, ob.observer.component,
		logAttrStatus, status,
		logAttrEventCount, eventCount,
		logAttrDurationMS, toMilliseconds(duration),
	}

	if err != nil {
		ob.logError(logMsgFailed+ob.messageType, append(args, logAttrError, err.Error())...)
	} else {
		ob.logInfo(logMsgHandled+ob.messageType, args...)
	}

	ob.finishSpan(status, duration, err)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, eventstore.ErrConcurrencyConflict), errors.Is(err, eventstore.ErrStreamFinalized):
		return StatusConflict
	default:
		return StatusError
	}
}

func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func (ob *observation) logInfo(msg string, args ...any) {
	if ob.observer.settings.contextualLogger != nil {
		ob.observer.settings.contextualLogger.InfoContext(ob.ctx, msg, args...)
		return
	}

	if ob.observer.settings.logger != nil {
		ob.observer.settings.logger.Info(msg, args...)
	}
}

func (ob *observation) logError(msg string, args ...any) {
	if ob.observer.settings.contextualLogger != nil {
		ob.observer.settings.contextualLogger.ErrorContext(ob.ctx, msg, args...)
		return
	}

	if ob.observer.settings.logger != nil {
		ob.observer.settings.logger.Error(msg, args...)
	}
}

func (ob *observation) recordDuration(metric string, duration time.Duration, labels map[string]string) {
	collector := ob.observer.settings.metricsCollector
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ob.ctx, metric, duration, labels)
		return
	}

	collector.RecordDuration(metric, duration, labels)
}

func (ob *observation) incrementCounter(metric string, labels map[string]string) {
	collector := ob.observer.settings.metricsCollector
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ob.ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

func (ob *observation) recordValue(metric string, value float64, labels map[string]string) {
	collector := ob.observer.settings.metricsCollector
	if collector == nil {
		return
	}

	if contextualCollector, ok := collector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ob.ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}

func (ob *observation) finishSpan(status string, duration time.Duration, err error) {
	if ob.observer.settings.tracingCollector == nil || ob.span == nil {
		return
	}

	attrs := map[string]string{
		logAttrStatus:     status,
		logAttrDurationMS: fmt.Sprintf("%.2f", toMilliseconds(duration)),
	}

	if err != nil {
		attrs[logAttrError] = err.Error()
	}

	ob.span.SetStatus(status)
	ob.observer.settings.tracingCollector.FinishSpan(ob.span, status, attrs)
}
