package oteladapters

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

// SlogBridgeLogger logs through the OpenTelemetry slog bridge, so every record carries the trace and span
// of its context. It satisfies both eventstore.Logger and eventstore.ContextualLogger.
type SlogBridgeLogger struct {
	*slog.Logger
}

// NewSlogBridgeLogger creates a SlogBridgeLogger on the global OpenTelemetry LoggerProvider.
func NewSlogBridgeLogger(name string) *SlogBridgeLogger {
	return &SlogBridgeLogger{Logger: otelslog.NewLogger(name)}
}

// NewSlogBridgeLoggerWithProvider creates a SlogBridgeLogger on the given LoggerProvider.
func NewSlogBridgeLoggerWithProvider(name string, provider log.LoggerProvider) *SlogBridgeLogger {
	return &SlogBridgeLogger{Logger: otelslog.NewLogger(name, otelslog.WithLoggerProvider(provider))}
}

var (
	_ eventstore.Logger           = (*SlogBridgeLogger)(nil)
	_ eventstore.ContextualLogger = (*SlogBridgeLogger)(nil)
)

// OTelLogger emits records through the OpenTelemetry log API directly, without slog.
// The key/value arguments become record attributes, keeping their int, float and bool kinds.
type OTelLogger struct {
	logger log.Logger
}

// NewOTelLogger creates an OTelLogger.
func NewOTelLogger(logger log.Logger) *OTelLogger {
	return &OTelLogger{logger: logger}
}

// DebugContext implements eventstore.ContextualLogger.
func (l *OTelLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityDebug, msg, args)
}

// InfoContext implements eventstore.ContextualLogger.
func (l *OTelLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityInfo, msg, args)
}

// WarnContext implements eventstore.ContextualLogger.
func (l *OTelLogger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityWarn, msg, args)
}

// ErrorContext implements eventstore.ContextualLogger.
func (l *OTelLogger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, log.SeverityError, msg, args)
}

var _ eventstore.ContextualLogger = (*OTelLogger)(nil)

func (l *OTelLogger) emit(ctx context.Context, severity log.Severity, msg string, args []any) {
	var record log.Record
	record.SetSeverity(severity)
	record.SetSeverityText(severity.String())
	record.SetBody(log.StringValue(msg))
	record.AddAttributes(keyValues(args)...)

	l.logger.Emit(ctx, record)
}

// keyValues converts slog style alternating key/value arguments. A dangling key is kept with an empty value.
func keyValues(args []any) []log.KeyValue {
	attrs := make([]log.KeyValue, 0, len(args)/2+1)

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}

		if i+1 == len(args) {
			attrs = append(attrs, log.String(key, ""))
			break
		}

		attrs = append(attrs, keyValue(key, args[i+1]))
	}

	return attrs
}

func keyValue(key string, value any) log.KeyValue {
	switch v := value.(type) {
	case string:
		return log.String(key, v)
	case int:
		return log.Int(key, v)
	case int64:
		return log.Int64(key, v)
	case float64:
		return log.Float64(key, v)
	case bool:
		return log.Bool(key, v)
	case error:
		return log.String(key, v.Error())
	case fmt.Stringer:
		return log.String(key, v.String())
	default:
		return log.String(key, fmt.Sprint(v))
	}
}
