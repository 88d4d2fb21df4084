package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

// TracingCollector starts one OpenTelemetry span per observed operation.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a TracingCollector on the given tracer.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

var _ eventstore.TracingCollector = (*TracingCollector)(nil)

// StartSpan implements eventstore.TracingCollector. The returned context carries the new span.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attributes(attrs)...))

	return ctx, &Span{span: span}
}

// FinishSpan implements eventstore.TracingCollector. Spans not started by this collector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	s, ok := spanCtx.(*Span)
	if !ok {
		return
	}

	s.span.SetAttributes(attributes(attrs)...)
	s.SetStatus(status)
	s.span.End()
}

// Span wraps an OpenTelemetry span as eventstore.SpanContext.
type Span struct {
	span trace.Span
}

var _ eventstore.SpanContext = (*Span)(nil)

// SetStatus maps the status labels used by this module to OpenTelemetry status codes.
// Unknown labels are kept as a status attribute.
func (s *Span) SetStatus(status string) {
	switch status {
	case "success":
		s.span.SetStatus(codes.Ok, "")
	case "error":
		s.span.SetStatus(codes.Error, "operation failed")
	case "conflict":
		s.span.SetStatus(codes.Error, "concurrency conflict")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

// AddAttribute implements eventstore.SpanContext.
func (s *Span) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}
