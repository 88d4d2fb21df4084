package application

import (
	"context"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

const componentMaterializedView = "materialized_view"

// MaterializedView keeps one persisted read-side state per entity up to date.
// The view evolves a pointer state: nil means there is no state for the entity yet.
type MaterializedView[S any, E fmodel.Event] struct {
	repository ViewStateRepository[E, S]
	view       fmodel.View[*S, E]
	observer   observer
}

// NewMaterializedView creates a MaterializedView.
func NewMaterializedView[S any, E fmodel.Event](
	repository ViewStateRepository[E, S],
	view fmodel.View[*S, E],
	options ...Option,
) (*MaterializedView[S, E], error) {

	if repository == nil || view.Evolve == nil || view.InitialState == nil {
		return nil, ErrNilCollaborator
	}

	s, err := newSettings(options)
	if err != nil {
		return nil, err
	}

	return &MaterializedView[S, E]{
		repository: repository,
		view:       view,
		observer:   newObserver(componentMaterializedView, ViewHandleDurationMetric, ViewHandleCallsMetric, "", s),
	}, nil
}

// ComputeNewState evolves the state with the event. Nothing is persisted.
func (v *MaterializedView[S, E]) ComputeNewState(state *S, event E) *S {
	return v.view.ComputeNewState(state, event)
}

// Handle fetches the state of the event's entity, evolves it once with the event, saves and returns it.
// Without a stored state the view's initial state is evolved. An event that evolves to no state results in ErrEmptyViewState.
func (v *MaterializedView[S, E]) Handle(ctx context.Context, event E) (*S, error) {
	observation, ctx := v.observer.start(ctx, "handle", event.EventType())

	state, err := v.handle(ctx, event)
	observation.finish(1, err)

	return state, err
}

func (v *MaterializedView[S, E]) handle(ctx context.Context, event E) (*S, error) {
	current, err := v.repository.FetchState(ctx, event)
	if err != nil {
		return nil, err
	}

	if current == nil {
		current = v.view.InitialState()
	}

	newState := v.view.ComputeNewState(current, event)
	if newState == nil {
		return nil, ErrEmptyViewState
	}

	if err = v.repository.SaveState(ctx, event, newState); err != nil {
		return nil, err
	}

	return newState, nil
}

// EventHandler handles one dispatched event.
type EventHandler[E any] func(ctx context.Context, event E) error

// HandlerFor adapts a MaterializedView over a narrower event type to an EventHandler over the wider one.
// Events that narrow returns false for do not belong to the view and are ignored.
func HandlerFor[S any, E any, Ev fmodel.Event](view *MaterializedView[S, Ev], narrow func(E) (Ev, bool)) EventHandler[E] {
	return func(ctx context.Context, event E) error {
		narrowed, ok := narrow(event)
		if !ok {
			return nil
		}

		_, err := view.Handle(ctx, narrowed)

		return err
	}
}
