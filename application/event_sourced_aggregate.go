package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

const componentEventSourcedAggregate = "event_sourced_aggregate"

// EventSourcedAggregate executes a single decider against the command's stream, without saga reactions.
type EventSourcedAggregate[C fmodel.Command, S any, E fmodel.Event] struct {
	repository EventRepository[C, E]
	decider    fmodel.Decider[C, S, E]
	settings   settings
	observer   observer
}

// NewEventSourcedAggregate creates an EventSourcedAggregate.
func NewEventSourcedAggregate[C fmodel.Command, S any, E fmodel.Event](
	repository EventRepository[C, E],
	decider fmodel.Decider[C, S, E],
	options ...Option,
) (*EventSourcedAggregate[C, S, E], error) {

	if repository == nil || decider.Decide == nil || decider.Evolve == nil || decider.InitialState == nil {
		return nil, ErrNilCollaborator
	}

	s, err := newSettings(options)
	if err != nil {
		return nil, err
	}

	return &EventSourcedAggregate[C, S, E]{
		repository: repository,
		decider:    decider,
		settings:   s,
		observer:   newObserver(componentEventSourcedAggregate, HandleDurationMetric, HandleCallsMetric, EventsProducedMetric, s),
	}, nil
}

// ComputeNewEvents decides on the command given the stream's events. Nothing is persisted.
func (a *EventSourcedAggregate[C, S, E]) ComputeNewEvents(events []E, command C) []E {
	return a.decider.ComputeNewEvents(events, command)
}

// Handle fetches the command's stream, decides and appends the new events with the fetched version
// as the expected predecessor, unless the LatestVersion policy is configured.
func (a *EventSourcedAggregate[C, S, E]) Handle(ctx context.Context, command C) ([]Versioned[E], error) {
	observation, ctx := a.observer.start(ctx, "handle", messageTypeOf(command))

	saved, err := a.handle(ctx, command)
	observation.finish(len(saved), err)

	return saved, err
}

func (a *EventSourcedAggregate[C, S, E]) handle(ctx context.Context, command C) ([]Versioned[E], error) {
	versioned, err := a.repository.FetchEvents(ctx, command)
	if err != nil {
		return nil, err
	}

	newEvents := a.decider.ComputeNewEvents(eventsOf(versioned), command)

	var expected eventstore.ExpectedVersions
	if a.settings.policy == ExplicitPredecessor {
		expected = eventstore.ExpectedVersions{StreamOf(command): versionOf(versioned)}
	}

	return a.repository.Save(ctx, expected, CommandEvents[E]{CommandID: uuid.New(), Events: newEvents})
}
