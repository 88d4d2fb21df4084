package eventstore

import "context"

// ConsistencyLevel defines whether reads must go to the primary database or may go to a replica.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database.
	// This is the default: the orchestrating path fetches history and appends in one unit of work
	// and must see its own writes.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows reads from a replica database.
	// Suitable for the change feed that drives materialized views, which are eventually consistent anyway.
	EventualConsistency
)

type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "eventstore.consistency_level"

// WithStrongConsistency returns a context that signals reads must use the primary database.
//
// Example usage:
//
//	ctx = eventstore.WithStrongConsistency(ctx)
//	events, err := store.Fetch(ctx, stream)
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that signals reads may use a replica database.
//
// Example usage:
//
//	ctx = eventstore.WithEventualConsistency(ctx)
//	events, err := store.FetchAfter(ctx, checkpoint, 100)
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context, StrongConsistency if none is set.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
