// Package promadapters implements the metrics interface of the eventstore package with Prometheus.
package promadapters

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

// MetricsCollector records eventstore metrics as Prometheus collectors, registered on first use:
//   - RecordDuration: HistogramVec in seconds with the default buckets
//   - IncrementCounter: CounterVec
//   - RecordValue: GaugeVec holding the last recorded value
//
// The label names of a metric are fixed by its first observation. Later observations fill missing
// labels with an empty value and drop unknown ones. It is safe for concurrent use.
type MetricsCollector struct {
	factory    promauto.Factory
	namespace  string
	mu         sync.Mutex
	histograms map[string]*vec[*prometheus.HistogramVec]
	counters   map[string]*vec[*prometheus.CounterVec]
	gauges     map[string]*vec[*prometheus.GaugeVec]
}

type vec[V any] struct {
	collector  V
	labelNames []string
}

// Option configures a MetricsCollector.
type Option func(*MetricsCollector)

// WithNamespace prefixes every metric name with the namespace.
func WithNamespace(namespace string) Option {
	return func(m *MetricsCollector) {
		m.namespace = namespace
	}
}

// NewMetricsCollector creates a MetricsCollector registering its collectors on the registerer,
// prometheus.DefaultRegisterer if nil.
func NewMetricsCollector(registerer prometheus.Registerer, options ...Option) *MetricsCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &MetricsCollector{
		factory:    promauto.With(registerer),
		histograms: make(map[string]*vec[*prometheus.HistogramVec]),
		counters:   make(map[string]*vec[*prometheus.CounterVec]),
		gauges:     make(map[string]*vec[*prometheus.GaugeVec]),
	}

	for _, option := range options {
		option(m)
	}

	return m
}

var _ eventstore.MetricsCollector = (*MetricsCollector)(nil)

// RecordDuration implements eventstore.MetricsCollector.
func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.histograms[metric]
	if !ok {
		names := labelNames(labels)
		v = &vec[*prometheus.HistogramVec]{
			collector: m.factory.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: m.namespace,
				Name:      metric,
				Help:      help(metric),
				Buckets:   prometheus.DefBuckets,
			}, names),
			labelNames: names,
		}
		m.histograms[metric] = v
	}

	v.collector.WithLabelValues(labelValues(v.labelNames, labels)...).Observe(duration.Seconds())
}

// IncrementCounter implements eventstore.MetricsCollector.
func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.counters[metric]
	if !ok {
		names := labelNames(labels)
		v = &vec[*prometheus.CounterVec]{
			collector: m.factory.NewCounterVec(prometheus.CounterOpts{
				Namespace: m.namespace,
				Name:      metric,
				Help:      help(metric),
			}, names),
			labelNames: names,
		}
		m.counters[metric] = v
	}

	v.collector.WithLabelValues(labelValues(v.labelNames, labels)...).Inc()
}

// RecordValue implements eventstore.MetricsCollector.
func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.gauges[metric]
	if !ok {
		names := labelNames(labels)
		v = &vec[*prometheus.GaugeVec]{
			collector: m.factory.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: m.namespace,
				Name:      metric,
				Help:      help(metric),
			}, names),
			labelNames: names,
		}
		m.gauges[metric] = v
	}

	v.collector.WithLabelValues(labelValues(v.labelNames, labels)...).Set(value)
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func labelValues(names []string, labels map[string]string) []string {
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = labels[name]
	}

	return values
}

func help(metric string) string {
	return strings.ReplaceAll(metric, "_", " ") + "."
}
