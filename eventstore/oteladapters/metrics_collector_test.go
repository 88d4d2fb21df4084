package oteladapters_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/oteladapters"
)

func givenMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var data metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &data))

	metrics := make(map[string]metricdata.Metrics)
	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			metrics[m.Name] = m
		}
	}

	return metrics
}

func Test_MetricsCollector_RecordDuration_InSeconds(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()

	// act
	collector.RecordDuration("eventstore_append_duration_seconds", 1500*time.Millisecond, map[string]string{"status": "success"})
	collector.RecordDurationContext(context.Background(), "eventstore_append_duration_seconds", 500*time.Millisecond, map[string]string{"status": "success"})

	// assert
	m, ok := collect(t, reader)["eventstore_append_duration_seconds"]
	require.True(t, ok)
	assert.Equal(t, "s", m.Unit)
	assert.Equal(t, "eventstore append duration", m.Description)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(2), histogram.DataPoints[0].Count)
	assert.InDelta(t, 2.0, histogram.DataPoints[0].Sum, 0.0001)

	status, ok := histogram.DataPoints[0].Attributes.Value(attribute.Key("status"))
	require.True(t, ok)
	assert.Equal(t, "success", status.AsString())
}

func Test_MetricsCollector_IncrementCounter_PerLabelSet(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()

	// act
	collector.IncrementCounter("aggregate_handle_calls_total", map[string]string{"status": "success"})
	collector.IncrementCounter("aggregate_handle_calls_total", map[string]string{"status": "success"})
	collector.IncrementCounterContext(context.Background(), "aggregate_handle_calls_total", map[string]string{"status": "conflict"})

	// assert
	m, ok := collect(t, reader)["aggregate_handle_calls_total"]
	require.True(t, ok)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.True(t, sum.IsMonotonic)

	byStatus := make(map[string]int64)
	for _, point := range sum.DataPoints {
		status, _ := point.Attributes.Value(attribute.Key("status"))
		byStatus[status.AsString()] = point.Value
	}
	assert.Equal(t, map[string]int64{"success": 2, "conflict": 1}, byStatus)
}

func Test_MetricsCollector_RecordValue_AsDistribution(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()

	// act
	collector.RecordValue("aggregate_events_produced", 2, nil)
	collector.RecordValueContext(context.Background(), "aggregate_events_produced", 3, nil)

	// assert
	m, ok := collect(t, reader)["aggregate_events_produced"]
	require.True(t, ok)
	assert.Empty(t, m.Unit)

	histogram, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.InDelta(t, 5.0, histogram.DataPoints[0].Sum, 0.0001)
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	done := make(chan struct{})

	// act
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			collector.IncrementCounter("eventstore_events_appended_total", nil)
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	// assert
	sum, ok := collect(t, reader)["eventstore_events_appended_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(8), sum.DataPoints[0].Value)
}
