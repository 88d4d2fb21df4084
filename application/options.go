package application

import (
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

// ConcurrencyPolicy selects how an aggregate protects its appends against concurrent writers.
type ConcurrencyPolicy int

const (
	// ExplicitPredecessor records the version of every stream fetched while computing the events
	// and passes all of them to one atomic append. Any concurrent write to one of those streams
	// makes the append fail with eventstore.ErrConcurrencyConflict.
	ExplicitPredecessor ConcurrencyPolicy = iota

	// LatestVersion lets the store chain every event onto its stream's tail at append time.
	// Racing writers to the same tail still conflict, but a write between fetch and append does not.
	LatestVersion
)

const (
	defaultMaxCascadeDepth = 64
	defaultBatchSize       = 100
)

func (p ConcurrencyPolicy) String() string {
	switch p {
	case ExplicitPredecessor:
		return "explicit_predecessor"
	case LatestVersion:
		return "latest_version"
	default:
		return "unknown"
	}
}

type settings struct {
	policy           ConcurrencyPolicy
	maxCascadeDepth  int
	batchSize        int
	eventualFeed     bool
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector
	tracingCollector eventstore.TracingCollector
}

func newSettings(options []Option) (settings, error) {
	s := settings{
		policy:          ExplicitPredecessor,
		maxCascadeDepth: defaultMaxCascadeDepth,
		batchSize:       defaultBatchSize,
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return settings{}, err
		}
	}

	return s, nil
}

// Option defines a functional option shared by the components of this package.
// Options that do not apply to a component are ignored by it.
type Option func(*settings) error

// WithConcurrencyPolicy sets the concurrency policy of an aggregate, ExplicitPredecessor by default.
func WithConcurrencyPolicy(policy ConcurrencyPolicy) Option {
	return func(s *settings) error {
		s.policy = policy
		return nil
	}
}

// WithMaxCascadeDepth bounds how deep saga reactions may trigger further commands.
// The root command has depth 0.
func WithMaxCascadeDepth(depth int) Option {
	return func(s *settings) error {
		if depth <= 0 {
			return ErrInvalidMaxCascadeDepth
		}

		s.maxCascadeDepth = depth

		return nil
	}
}

// WithBatchSize sets how many events the EventDispatcher pulls from the change feed at once.
func WithBatchSize(size int) Option {
	return func(s *settings) error {
		if size <= 0 {
			return ErrInvalidBatchSize
		}

		s.batchSize = size

		return nil
	}
}

// WithEventuallyConsistentFeed lets the EventDispatcher read the change feed from a replica.
// View state reads and writes of the handlers keep the consistency level of the caller's context.
func WithEventuallyConsistentFeed() Option {
	return func(s *settings) error {
		s.eventualFeed = true
		return nil
	}
}

// WithLogger sets a logger that receives one info line per handled command or event and every failure.
func WithLogger(logger eventstore.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger. It takes precedence over the Logger set with WithLogger.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return func(s *settings) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return func(s *settings) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector. One span is started per handled command or event.
func WithTracing(collector eventstore.TracingCollector) Option {
	return func(s *settings) error {
		s.tracingCollector = collector
		return nil
	}
}
