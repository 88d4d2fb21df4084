package oteladapters

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

// MetricsCollector records eventstore metrics with OpenTelemetry instruments, created on first use:
//   - RecordDuration: Float64Histogram in seconds
//   - IncrementCounter: Int64Counter
//   - RecordValue: Float64Histogram without unit, event counts per call are a distribution, not a level
//
// It is safe for concurrent use.
type MetricsCollector struct {
	meter      metric.Meter
	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
}

// NewMetricsCollector creates a MetricsCollector on the given meter.
func NewMetricsCollector(meter metric.Meter) *MetricsCollector {
	return &MetricsCollector{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
	}
}

var _ eventstore.ContextualMetricsCollector = (*MetricsCollector)(nil)

// RecordDuration implements eventstore.MetricsCollector.
func (m *MetricsCollector) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	m.RecordDurationContext(context.Background(), name, duration, labels)
}

// RecordDurationContext implements eventstore.ContextualMetricsCollector.
func (m *MetricsCollector) RecordDurationContext(ctx context.Context, name string, duration time.Duration, labels map[string]string) {
	if histogram := m.histogram(name, "s"); histogram != nil {
		histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(attributes(labels)...))
	}
}

// IncrementCounter implements eventstore.MetricsCollector.
func (m *MetricsCollector) IncrementCounter(name string, labels map[string]string) {
	m.IncrementCounterContext(context.Background(), name, labels)
}

// IncrementCounterContext implements eventstore.ContextualMetricsCollector.
func (m *MetricsCollector) IncrementCounterContext(ctx context.Context, name string, labels map[string]string) {
	if counter := m.counter(name); counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attributes(labels)...))
	}
}

// RecordValue implements eventstore.MetricsCollector.
func (m *MetricsCollector) RecordValue(name string, value float64, labels map[string]string) {
	m.RecordValueContext(context.Background(), name, value, labels)
}

// RecordValueContext implements eventstore.ContextualMetricsCollector.
func (m *MetricsCollector) RecordValueContext(ctx context.Context, name string, value float64, labels map[string]string) {
	if histogram := m.histogram(name, ""); histogram != nil {
		histogram.Record(ctx, value, metric.WithAttributes(attributes(labels)...))
	}
}

// histogram returns nil if the instrument cannot be created, the measurement is dropped then.
func (m *MetricsCollector) histogram(name string, unit string) metric.Float64Histogram {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, ok := m.histograms[name]; ok {
		return histogram
	}

	options := []metric.Float64HistogramOption{metric.WithDescription(describe(name))}
	if unit != "" {
		options = append(options, metric.WithUnit(unit))
	}

	histogram, err := m.meter.Float64Histogram(name, options...)
	if err != nil {
		return nil
	}

	m.histograms[name] = histogram

	return histogram
}

func (m *MetricsCollector) counter(name string) metric.Int64Counter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, ok := m.counters[name]; ok {
		return counter
	}

	counter, err := m.meter.Int64Counter(name, metric.WithDescription(describe(name)))
	if err != nil {
		return nil
	}

	m.counters[name] = counter

	return counter
}

// describe turns a metric name like eventstore_append_duration_seconds into "eventstore append duration".
func describe(name string) string {
	words := strings.Split(name, "_")

	if last := words[len(words)-1]; last == "seconds" || last == "total" {
		words = words[:len(words)-1]
	}

	return strings.Join(words, " ")
}

func attributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))

	for key, value := range labels {
		attrs = append(attrs, attribute.String(key, value))
	}

	return attrs
}
