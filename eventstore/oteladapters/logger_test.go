package oteladapters

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"
)

func Test_KeyValues_KeepsTheValueKinds(t *testing.T) {
	// arrange
	id := uuid.New()

	// act
	attrs := keyValues([]any{
		"operation", "append",
		"event_count", 3,
		"duration_ms", 1.25,
		"final", true,
		"error", errors.New("boom"),
		"stream_id", id,
		"dangling",
	})

	// assert
	expected := []log.KeyValue{
		log.String("operation", "append"),
		log.Int("event_count", 3),
		log.Float64("duration_ms", 1.25),
		log.Bool("final", true),
		log.String("error", "boom"),
		log.String("stream_id", id.String()),
		log.String("dangling", ""),
	}
	assertKeyValues(t, expected, attrs)
}

func assertKeyValues(t *testing.T, expected, actual []log.KeyValue) {
	t.Helper()

	if !assert.Len(t, actual, len(expected)) {
		return
	}

	for i := range expected {
		assert.True(t, expected[i].Equal(actual[i]), "expected %s, got %s", expected[i], actual[i])
	}
}

func Test_KeyValues_NonStringKey(t *testing.T) {
	attrs := keyValues([]any{42, "value"})

	assertKeyValues(t, []log.KeyValue{log.String("42", "value")}, attrs)
}

func Test_Loggers_OnANoopProvider(t *testing.T) {
	provider := noop.NewLoggerProvider()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		otelLogger := NewOTelLogger(provider.Logger("test"))
		otelLogger.DebugContext(ctx, "debug", "k", "v")
		otelLogger.InfoContext(ctx, "info")
		otelLogger.WarnContext(ctx, "warn", "n", 1)
		otelLogger.ErrorContext(ctx, "error", "error", errors.New("boom"))

		bridge := NewSlogBridgeLoggerWithProvider("test", provider)
		bridge.InfoContext(ctx, "info", "k", "v")
		bridge.Error("error")
	})
}
