// Package oteladapters implements the observability interfaces of the eventstore package with OpenTelemetry.
//
// The same adapters serve the postgresengine and the application package:
//
//	logger := oteladapters.NewSlogBridgeLogger("orders")
//	metrics := oteladapters.NewMetricsCollector(otel.Meter("orders"))
//	tracing := oteladapters.NewTracingCollector(otel.Tracer("orders"))
//
//	store, err := postgresengine.NewEventStoreFromPGXPool(pool,
//		postgresengine.WithContextualLogger(logger),
//		postgresengine.WithMetrics(metrics),
//		postgresengine.WithTracing(tracing),
//	)
package oteladapters
