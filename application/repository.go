package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// Versioned pairs an event with the version it is stored under, which is its EventID.
type Versioned[E any] struct {
	Event   E
	Version uuid.UUID
}

// CommandEvents are the events computed for one externally issued command, including its whole saga cascade.
type CommandEvents[E any] struct {
	CommandID uuid.UUID
	Events    []E
}

// EventRepository is the write-side persistence contract of the aggregates.
type EventRepository[C, E any] interface {
	// FetchEvents returns the ordered history of the stream the command targets, oldest first.
	FetchEvents(ctx context.Context, command C) ([]Versioned[E], error)

	// Save appends all events of all batches atomically, honoring the expected versions.
	// A nil expected map lets the store chain every event onto its stream's tail at append time.
	Save(ctx context.Context, expected eventstore.ExpectedVersions, batches ...CommandEvents[E]) ([]Versioned[E], error)
}

// ViewStateRepository is the read-side persistence contract of the materialized views.
type ViewStateRepository[E, S any] interface {
	// FetchState returns the current state of the entity the event belongs to, nil if there is none yet.
	FetchState(ctx context.Context, event E) (*S, error)

	// SaveState overwrites the state of the entity the event belongs to.
	SaveState(ctx context.Context, event E, state *S) error
}

// EventStore is what the StoreEventRepository needs from an event store engine.
type EventStore interface {
	Fetch(ctx context.Context, stream eventstore.StreamID) (eventstore.StorableEvents, error)
	Append(ctx context.Context, expected eventstore.ExpectedVersions, events ...eventstore.StorableEvent) (eventstore.StorableEvents, error)
}

// ViewStore is what the StoreViewStateRepository needs from a view state store engine.
type ViewStore interface {
	FetchViewState(ctx context.Context, viewName string, id uuid.UUID) (eventstore.ViewState, bool, error)
	SaveViewState(ctx context.Context, state eventstore.ViewState) error
}

// EventCodec converts domain events to and from their stored payload.
type EventCodec[E any] interface {
	EncodeEvent(event E) ([]byte, error)
	DecodeEvent(eventType string, payload []byte) (E, error)
}

// StreamOf returns the stream a command or an event belongs to.
func StreamOf(message fmodel.Command) eventstore.StreamID {
	return eventstore.NewStreamID(message.DeciderType(), message.Identifier())
}

// StoreEventRepository implements EventRepository on top of an event store engine and an EventCodec.
type StoreEventRepository[C fmodel.Command, E fmodel.Event] struct {
	store EventStore
	codec EventCodec[E]
}

// NewStoreEventRepository creates a StoreEventRepository.
func NewStoreEventRepository[C fmodel.Command, E fmodel.Event](
	store EventStore,
	codec EventCodec[E],
) (*StoreEventRepository[C, E], error) {

	if store == nil || codec == nil {
		return nil, ErrNilCollaborator
	}

	return &StoreEventRepository[C, E]{store: store, codec: codec}, nil
}

// FetchEvents loads and decodes the history of the stream the command targets.
func (r *StoreEventRepository[C, E]) FetchEvents(ctx context.Context, command C) ([]Versioned[E], error) {
	stored, err := r.store.Fetch(ctx, StreamOf(command))
	if err != nil {
		return nil, errors.Join(ErrFetchingEventsFailed, err)
	}

	return r.decodeAll(stored)
}

// Save encodes and appends the events of all batches in one atomic append.
func (r *StoreEventRepository[C, E]) Save(
	ctx context.Context,
	expected eventstore.ExpectedVersions,
	batches ...CommandEvents[E],
) ([]Versioned[E], error) {

	events := make([]E, 0)
	storable := make(eventstore.StorableEvents, 0)

	for _, batch := range batches {
		for _, event := range batch.Events {
			payload, err := r.codec.EncodeEvent(event)
			if err != nil {
				return nil, errors.Join(ErrEncodingEventFailed, err)
			}

			storableEvent, err := eventstore.BuildStorableEvent(
				event.EventType(),
				StreamOf(event),
				payload,
				batch.CommandID,
				event.IsFinal(),
			)
			if err != nil {
				return nil, errors.Join(ErrEncodingEventFailed, err)
			}

			events = append(events, event)
			storable = append(storable, storableEvent)
		}
	}

	if len(storable) == 0 {
		return []Versioned[E]{}, nil
	}

	appended, err := r.store.Append(ctx, expected, storable...)
	if err != nil {
		return nil, errors.Join(ErrSavingEventsFailed, err)
	}

	saved := make([]Versioned[E], 0, len(appended))
	for i, storableEvent := range appended {
		saved = append(saved, Versioned[E]{Event: events[i], Version: storableEvent.EventID})
	}

	return saved, nil
}

// Decode converts one stored event back into a domain event.
func (r *StoreEventRepository[C, E]) Decode(storableEvent eventstore.StorableEvent) (E, error) {
	event, err := r.codec.DecodeEvent(storableEvent.EventType, storableEvent.PayloadJSON)
	if err != nil {
		var zero E
		return zero, errors.Join(ErrDecodingEventFailed, fmt.Errorf("event %s of stream %s: %w", storableEvent.EventID, storableEvent.Stream(), err))
	}

	return event, nil
}

func (r *StoreEventRepository[C, E]) decodeAll(stored eventstore.StorableEvents) ([]Versioned[E], error) {
	versioned := make([]Versioned[E], 0, len(stored))

	for _, storableEvent := range stored {
		event, err := r.Decode(storableEvent)
		if err != nil {
			return nil, err
		}

		versioned = append(versioned, Versioned[E]{Event: event, Version: storableEvent.EventID})
	}

	return versioned, nil
}

// StoreViewStateRepository implements ViewStateRepository on top of a view state store engine.
// States are stored as JSON, keyed by the view name and the identifier of the event's entity.
type StoreViewStateRepository[E fmodel.Event, S any] struct {
	store    ViewStore
	viewName string
}

// NewStoreViewStateRepository creates a StoreViewStateRepository for one view.
func NewStoreViewStateRepository[E fmodel.Event, S any](store ViewStore, viewName string) (*StoreViewStateRepository[E, S], error) {
	if store == nil {
		return nil, ErrNilCollaborator
	}

	if viewName == "" {
		return nil, eventstore.ErrEmptyViewName
	}

	return &StoreViewStateRepository[E, S]{store: store, viewName: viewName}, nil
}

// FetchState loads the state of the event's entity, nil if there is none yet.
func (r *StoreViewStateRepository[E, S]) FetchState(ctx context.Context, event E) (*S, error) {
	row, found, err := r.store.FetchViewState(ctx, r.viewName, event.Identifier())
	if err != nil {
		return nil, errors.Join(ErrFetchingViewStateFailed, err)
	}

	if !found {
		return nil, nil
	}

	state := new(S)
	if err = jsoniter.ConfigFastest.Unmarshal(row.Data, state); err != nil {
		return nil, errors.Join(ErrFetchingViewStateFailed, err)
	}

	return state, nil
}

// SaveState overwrites the state of the event's entity.
func (r *StoreViewStateRepository[E, S]) SaveState(ctx context.Context, event E, state *S) error {
	if state == nil {
		return ErrEmptyViewState
	}

	data, err := jsoniter.ConfigFastest.Marshal(state)
	if err != nil {
		return errors.Join(ErrSavingViewStateFailed, err)
	}

	row, err := eventstore.BuildViewState(r.viewName, event.Identifier(), data)
	if err != nil {
		return errors.Join(ErrSavingViewStateFailed, err)
	}

	if err = r.store.SaveViewState(ctx, row); err != nil {
		return errors.Join(ErrSavingViewStateFailed, err)
	}

	return nil
}
