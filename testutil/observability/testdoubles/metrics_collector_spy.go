package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MetricRecord is one captured metrics call. Duration is set for durations, Value for recorded values.
type MetricRecord struct {
	Kind       string
	Metric     string
	Duration   time.Duration
	Value      float64
	Labels     map[string]string
	Contextual bool
}

// Metric kinds of MetricRecord.
const (
	KindDuration = "duration"
	KindCounter  = "counter"
	KindValue    = "value"
)

// MetricsCollectorSpy captures the calls of the eventstore.ContextualMetricsCollector interface.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []MetricRecord
}

// NewMetricsCollectorSpy creates an empty MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) record(record MetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Labels = maps.Clone(record.Labels)
	s.records = append(s.records, record)
}

// RecordDuration implements eventstore.MetricsCollector.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(MetricRecord{Kind: KindDuration, Metric: metric, Duration: duration, Labels: labels})
}

// IncrementCounter implements eventstore.MetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(MetricRecord{Kind: KindCounter, Metric: metric, Labels: labels})
}

// RecordValue implements eventstore.MetricsCollector.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(MetricRecord{Kind: KindValue, Metric: metric, Value: value, Labels: labels})
}

// RecordDurationContext implements eventstore.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.record(MetricRecord{Kind: KindDuration, Metric: metric, Duration: duration, Labels: labels, Contextual: true})
}

// IncrementCounterContext implements eventstore.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.record(MetricRecord{Kind: KindCounter, Metric: metric, Labels: labels, Contextual: true})
}

// RecordValueContext implements eventstore.ContextualMetricsCollector.
func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.record(MetricRecord{Kind: KindValue, Metric: metric, Value: value, Labels: labels, Contextual: true})
}

// Records returns the captured records of one metric.
func (s *MetricsCollectorSpy) Records(metric string) []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]MetricRecord, 0)

	for _, record := range s.records {
		if record.Metric == metric {
			matching = append(matching, record)
		}
	}

	return matching
}
