// Package memengine provides an in-memory implementation of the event store and the view state store.
//
// It follows the same contract as the postgresengine: a global offset, a predecessor chain per stream,
// atomic appends with expected versions, finalized streams and last-write-wins view rows.
// It is meant for tests and for embedding, nothing is persisted.
package memengine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

const (
	logMsgEventsAppended      = "memengine: events appended"
	logMsgConcurrencyConflict = "memengine: concurrency conflict detected"
	logAttrStream             = "stream"
	logAttrEventCount         = "event_count"
	logAttrExpectedVersion    = "expected_version"
	logAttrActualVersion      = "actual_version"
)

type viewKey struct {
	viewName string
	id       uuid.UUID
}

// EventStore keeps events and view rows in memory. It is safe for concurrent use.
type EventStore struct {
	mu       sync.RWMutex
	events   eventstore.StorableEvents
	streams  map[eventstore.StreamID][]int // indexes into events, per stream, oldest first
	eventIDs map[uuid.UUID]struct{}
	views    map[viewKey]eventstore.ViewState
	logger   eventstore.Logger
	now      func() time.Time
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore)

// WithLogger sets a logger that receives appends and concurrency conflicts at info level.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) {
		es.logger = logger
	}
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(es *EventStore) {
		es.now = now
	}
}

// NewEventStore creates an empty in-memory EventStore.
func NewEventStore(options ...Option) *EventStore {
	es := &EventStore{
		streams:  make(map[eventstore.StreamID][]int),
		eventIDs: make(map[uuid.UUID]struct{}),
		views:    make(map[viewKey]eventstore.ViewState),
		now:      time.Now,
	}

	for _, option := range options {
		option(es)
	}

	return es
}

// Fetch returns the full history of one stream, oldest first.
func (es *EventStore) Fetch(ctx context.Context, stream eventstore.StreamID) (eventstore.StorableEvents, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := stream.Validate(); err != nil {
		return nil, err
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	indexes := es.streams[stream]
	events := make(eventstore.StorableEvents, 0, len(indexes))

	for _, index := range indexes {
		events = append(events, es.events[index])
	}

	return events, nil
}

// LatestVersion returns the EventID of the stream's most recent event, uuid.Nil for an empty stream.
func (es *EventStore) LatestVersion(ctx context.Context, stream eventstore.StreamID) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	if err := stream.Validate(); err != nil {
		return uuid.Nil, err
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	return es.tail(stream).EventID, nil
}

// FetchAfter returns up to limit events with an offset greater than after, ordered by offset.
func (es *EventStore) FetchAfter(ctx context.Context, after eventstore.Offset, limit int) (eventstore.StorableEvents, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		return nil, eventstore.ErrInvalidFetchAfterLimit
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	// offsets are 1-based positions in es.events
	start := min(max(int(after), 0), len(es.events))
	end := min(start+limit, len(es.events))

	return append(eventstore.StorableEvents(nil), es.events[start:end]...), nil
}

// Append appends the events atomically, in the given order.
// It has the same semantics as the PostgreSQL engine's Append.
func (es *EventStore) Append(
	ctx context.Context,
	expected eventstore.ExpectedVersions,
	events ...eventstore.StorableEvent,
) (eventstore.StorableEvents, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(events) == 0 {
		return nil, eventstore.ErrEmptyEventsToAppend
	}

	for _, event := range events {
		if err := event.Stream().Validate(); err != nil {
			return nil, err
		}
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	for stream, version := range expected {
		if actual := es.tail(stream).EventID; actual != version {
			es.log(logMsgConcurrencyConflict,
				logAttrStream, stream.String(),
				logAttrExpectedVersion, version.String(),
				logAttrActualVersion, actual.String(),
			)

			return nil, eventstore.ErrConcurrencyConflict
		}
	}

	tails := make(map[eventstore.StreamID]eventstore.StorableEvent)
	appended := make(eventstore.StorableEvents, 0, len(events))

	for _, event := range events {
		stream := event.Stream()

		tail, ok := tails[stream]
		if !ok {
			tail = es.tail(stream)
		}

		if tail.Final {
			return nil, eventstore.ErrStreamFinalized
		}

		event.PreviousID = uuid.NullUUID{UUID: tail.EventID, Valid: tail.EventID != uuid.Nil}
		event.Offset = eventstore.Offset(len(es.events) + len(appended) + 1)
		event.CreatedAt = es.now()

		tails[stream] = event
		appended = append(appended, event)
	}

	if err := es.checkEventIDsAreUnique(appended); err != nil {
		return nil, err
	}

	for _, event := range appended {
		stream := event.Stream()
		es.streams[stream] = append(es.streams[stream], len(es.events))
		es.eventIDs[event.EventID] = struct{}{}
		es.events = append(es.events, event)
	}

	es.log(logMsgEventsAppended, logAttrEventCount, len(appended))

	return appended, nil
}

// FetchViewState loads the row of one view for one entity.
// The boolean result is false if no row exists yet.
func (es *EventStore) FetchViewState(ctx context.Context, viewName string, id uuid.UUID) (eventstore.ViewState, bool, error) {
	if err := ctx.Err(); err != nil {
		return eventstore.ViewState{}, false, err
	}

	if viewName == "" {
		return eventstore.ViewState{}, false, eventstore.ErrEmptyViewName
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	state, ok := es.views[viewKey{viewName: viewName, id: id}]

	return state, ok, nil
}

// SaveViewState inserts or overwrites the row of one view for one entity, last write wins.
func (es *EventStore) SaveViewState(ctx context.Context, state eventstore.ViewState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := state.Validate(); err != nil {
		return err
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	es.views[viewKey{viewName: state.ViewName, id: state.ID}] = state

	return nil
}

// tail returns the most recent event of a stream, the zero event for an empty stream. The caller holds the lock.
func (es *EventStore) tail(stream eventstore.StreamID) eventstore.StorableEvent {
	indexes := es.streams[stream]
	if len(indexes) == 0 {
		return eventstore.StorableEvent{}
	}

	return es.events[indexes[len(indexes)-1]]
}

// checkEventIDsAreUnique mirrors the unique constraint on event_id of the PostgreSQL schema.
func (es *EventStore) checkEventIDsAreUnique(appended eventstore.StorableEvents) error {
	seen := make(map[uuid.UUID]struct{}, len(appended))

	for _, event := range appended {
		if _, ok := es.eventIDs[event.EventID]; ok {
			return eventstore.ErrConcurrencyConflict
		}

		if _, ok := seen[event.EventID]; ok {
			return eventstore.ErrConcurrencyConflict
		}

		seen[event.EventID] = struct{}{}
	}

	return nil
}

func (es *EventStore) log(msg string, args ...any) {
	if es.logger != nil {
		es.logger.Info(msg, args...)
	}
}
