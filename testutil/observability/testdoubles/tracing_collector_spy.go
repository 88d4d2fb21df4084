package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

// SpanSpy is the eventstore.SpanContext handed out by the TracingCollectorSpy.
type SpanSpy struct {
	mu              sync.Mutex
	Name            string
	StartAttributes map[string]string
	status          string
	attributes      map[string]string
	finished        bool
}

// SetStatus implements eventstore.SpanContext.
func (s *SpanSpy) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

// AddAttribute implements eventstore.SpanContext.
func (s *SpanSpy) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attributes[key] = value
}

// Status returns the last status set on the span.
func (s *SpanSpy) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Attributes returns a copy of the attributes added while the span was active and when it finished.
func (s *SpanSpy) Attributes() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.attributes)
}

// Finished reports whether FinishSpan was called for the span.
func (s *SpanSpy) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.finished
}

// TracingCollectorSpy captures started and finished spans.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*SpanSpy
}

// NewTracingCollectorSpy creates an empty TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

// StartSpan implements eventstore.TracingCollector.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	span := &SpanSpy{Name: name, StartAttributes: maps.Clone(attrs), attributes: make(map[string]string)}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, span)

	return ctx, span
}

// FinishSpan implements eventstore.TracingCollector.
func (s *TracingCollectorSpy) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpanSpy)
	if !ok {
		return
	}

	span.mu.Lock()
	defer span.mu.Unlock()

	span.status = status
	span.finished = true
	maps.Copy(span.attributes, attrs)
}

// Spans returns the captured spans in start order.
func (s *TracingCollectorSpy) Spans() []*SpanSpy {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*SpanSpy(nil), s.spans...)
}
