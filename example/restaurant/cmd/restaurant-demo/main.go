// Command restaurant-demo runs the restaurant and order example against PostgreSQL:
// it installs the schema, handles a scenario of commands, projects the views and logs the outcome.
//
// Configuration comes from the environment, see the config package. With METRICS_ADDR set the
// Prometheus metrics are served on /metrics and the dispatcher keeps running until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/application"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/oteladapters"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/postgresengine"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore/promadapters"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/core"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/shell"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/shell/config"
)

const (
	metricsNamespace  = "restaurant"
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	commandsFile := flag.String("commands", "", "JSON file with an array of tagged commands to handle as one batch instead of the built-in scenario")
	flag.Parse()

	if err := run(*commandsFile); err != nil {
		slog.Error("restaurant demo failed", "error", err)
		os.Exit(1)
	}
}

func run(commandsFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := promadapters.NewMetricsCollector(registry, promadapters.WithNamespace(metricsNamespace))
	tracing := oteladapters.NewTracingCollector(otel.Tracer(cfg.ServiceName))

	store, closeStore, err := openStore(ctx, cfg, logger, metrics, tracing)
	if err != nil {
		return err
	}
	defer closeStore()

	if err = store.InstallSchema(ctx); err != nil {
		return err
	}

	service, err := shell.NewService(
		store,
		[]shell.RetryOption{
			shell.WithMaxAttempts(cfg.RetryMaxAttempts),
			shell.WithBaseDelay(cfg.RetryBaseDelay),
			shell.WithRetryMetrics(metrics, "handle"),
		},
		application.WithContextualLogger(logger),
		application.WithMetrics(metrics),
		application.WithTracing(tracing),
		application.WithMaxCascadeDepth(cfg.MaxCascadeDepth),
		application.WithBatchSize(cfg.DispatchBatch),
		application.WithEventuallyConsistentFeed(),
	)
	if err != nil {
		return err
	}

	batches, err := commandBatches(commandsFile)
	if err != nil {
		return err
	}

	for _, batch := range batches {
		events, handleErr := service.Handle(ctx, batch...)
		if handleErr != nil {
			logger.ErrorContext(ctx, "handling commands failed", "commands", len(batch), "error", handleErr)
			continue
		}

		logEvents(ctx, logger, events)
	}

	dispatched, err := service.Dispatcher.DispatchPending(ctx)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "views projected", "events", dispatched, "checkpoint", service.Dispatcher.Checkpoint())

	if err = logViews(ctx, logger, service, batches); err != nil {
		return err
	}

	if cfg.MetricsAddr == "" {
		return nil
	}

	return serve(ctx, logger, cfg, registry, service)
}

// serve exposes the metrics and keeps projecting new events until the context ends.
func serve(ctx context.Context, logger *slog.Logger, cfg config.Config, registry *prometheus.Registry, service *shell.Service) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

	go func() {
		logger.InfoContext(ctx, "serving metrics", "addr", cfg.MetricsAddr)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorContext(ctx, "metrics server failed", "error", err)
		}
	}()

	err := service.Dispatcher.Run(ctx, cfg.DispatchInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("metrics server shutdown failed", "error", shutdownErr)
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func openStore(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	metrics eventstore.MetricsCollector,
	tracing eventstore.TracingCollector,
) (*postgresengine.EventStore, func(), error) {

	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.EventsTable),
		postgresengine.WithViewTableName(cfg.ViewStatesTable),
		postgresengine.WithContextualLogger(logger),
		postgresengine.WithMetrics(metrics),
		postgresengine.WithTracing(tracing),
	}

	switch cfg.Postgres.Driver {
	case config.DriverSQL:
		db, err := cfg.Postgres.OpenSQLDB(ctx)
		if err != nil {
			return nil, nil, err
		}

		store, err := postgresengine.NewEventStoreFromSQLDB(db, options...)

		return store, func() { _ = db.Close() }, err

	case config.DriverSQLX:
		db, err := cfg.Postgres.OpenSQLX(ctx)
		if err != nil {
			return nil, nil, err
		}

		store, err := postgresengine.NewEventStoreFromSQLX(db, options...)

		return store, func() { _ = db.Close() }, err

	default:
		pool, err := cfg.Postgres.OpenPGXPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}

		if cfg.Postgres.ReplicaDSN == "" {
			store, err := postgresengine.NewEventStoreFromPGXPool(pool, options...)
			return store, pool.Close, err
		}

		replica, err := cfg.Postgres.OpenPGXPool(ctx, cfg.Postgres.ReplicaDSN)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		store, err := postgresengine.NewEventStoreFromPGXPoolAndReplica(pool, replica, options...)

		return store, func() { replica.Close(); pool.Close() }, err
	}
}

func commandBatches(commandsFile string) ([][]core.Command, error) {
	if commandsFile == "" {
		return scenario(), nil
	}

	payload, err := os.ReadFile(commandsFile)
	if err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}

	commands, err := shell.NewCodec().DecodeCommands(payload)
	if err != nil {
		return nil, fmt.Errorf("decode commands: %w", err)
	}

	return [][]core.Command{commands}, nil
}

func logEvents(ctx context.Context, logger *slog.Logger, events []core.Event) {
	for _, event := range events {
		args := []any{
			"event_type", event.EventType(),
			"decider", event.DeciderType(),
			"id", event.Identifier(),
			"final", event.IsFinal(),
		}

		if rejection, ok := event.(core.Rejection); ok {
			args = append(args, "reason", rejection.RejectionReason())
		}

		logger.InfoContext(ctx, "event persisted", args...)
	}
}

func logViews(ctx context.Context, logger *slog.Logger, service *shell.Service, batches [][]core.Command) error {
	for _, batch := range batches {
		for _, command := range batch {
			switch c := command.(type) {
			case core.CreateRestaurant:
				restaurant, err := service.Restaurant(ctx, c.RestaurantID)
				if err != nil {
					return err
				}

				logger.InfoContext(ctx, "restaurant view", "id", c.RestaurantID, "state", restaurant)

			case core.PlaceOrder:
				order, err := service.Order(ctx, c.OrderID)
				if err != nil {
					return err
				}

				logger.InfoContext(ctx, "order view", "id", c.OrderID, "state", order)
			}
		}
	}

	return nil
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		slogLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
