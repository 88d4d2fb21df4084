package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

const componentOrchestratingAggregate = "orchestrating_aggregate"

// OrchestratingAggregate executes a decider together with the reactions of its saga as one unit of work.
//
// Every event the decider produces is handed to the saga. Each command the saga triggers is decided
// against its own stream's history plus the events that triggered it, and its events are reacted to
// in turn, until no further commands are triggered. The whole cascade is appended atomically.
//
// The decider and saga usually are combinations of several entity kinds, see fmodel.CombineDeciders
// and fmodel.CombineSagas.
type OrchestratingAggregate[C fmodel.Command, S any, E fmodel.Event] struct {
	repository EventRepository[C, E]
	decider    fmodel.Decider[C, S, E]
	saga       fmodel.Saga[E, C]
	settings   settings
	observer   observer
}

// NewOrchestratingAggregate creates an OrchestratingAggregate.
func NewOrchestratingAggregate[C fmodel.Command, S any, E fmodel.Event](
	repository EventRepository[C, E],
	decider fmodel.Decider[C, S, E],
	saga fmodel.Saga[E, C],
	options ...Option,
) (*OrchestratingAggregate[C, S, E], error) {

	if repository == nil || decider.Decide == nil || decider.Evolve == nil || decider.InitialState == nil || saga.React == nil {
		return nil, ErrNilCollaborator
	}

	s, err := newSettings(options)
	if err != nil {
		return nil, err
	}

	return &OrchestratingAggregate[C, S, E]{
		repository: repository,
		decider:    decider,
		saga:       saga,
		settings:   s,
		observer:   newObserver(componentOrchestratingAggregate, HandleDurationMetric, HandleCallsMetric, EventsProducedMetric, s),
	}, nil
}

// ComputeNewEvents decides on the command given the events visible to it and resolves all saga reactions.
//
// The result holds the command's own events first, followed by the full result of every triggered command,
// in the order the triggering events and reactions were produced. Triggered commands see their own
// stream's stored history followed by the events of the command that triggered them.
// Nothing is persisted.
func (a *OrchestratingAggregate[C, S, E]) ComputeNewEvents(ctx context.Context, events []E, command C) ([]E, error) {
	return a.computeNewEvents(ctx, events, command, nil)
}

// Handle fetches the command's stream, computes all events of the command and its saga cascade
// and appends them atomically.
//
// It returns the appended events paired with their versions.
// A concurrent write to any stream involved results in an error wrapping eventstore.ErrConcurrencyConflict;
// retrying is up to the caller.
func (a *OrchestratingAggregate[C, S, E]) Handle(ctx context.Context, command C) ([]Versioned[E], error) {
	observation, ctx := a.observer.start(ctx, "handle", messageTypeOf(command))

	saved, err := a.handle(ctx, []C{command})
	observation.finish(len(saved), err)

	return saved, err
}

// HandleAll handles the commands in the given order and appends all resulting events in one final append.
//
// Each command sees its stream's stored history followed by every event computed for the preceding
// commands of the batch, so a later command observes the effects of earlier ones before they are persisted.
func (a *OrchestratingAggregate[C, S, E]) HandleAll(ctx context.Context, commands ...C) ([]Versioned[E], error) {
	observation, ctx := a.observer.start(ctx, "handle_all", fmt.Sprintf("batch(%d)", len(commands)))

	saved, err := a.handle(ctx, commands)
	observation.finish(len(saved), err)

	return saved, err
}

func (a *OrchestratingAggregate[C, S, E]) handle(ctx context.Context, commands []C) ([]Versioned[E], error) {
	var expected eventstore.ExpectedVersions
	if a.settings.policy == ExplicitPredecessor {
		expected = eventstore.ExpectedVersions{}
	}

	batches := make([]CommandEvents[E], 0, len(commands))
	accumulated := make([]E, 0)

	for _, command := range commands {
		history, err := a.fetch(ctx, command, expected)
		if err != nil {
			return nil, err
		}

		newEvents, err := a.computeNewEvents(ctx, concat(history, accumulated), command, expected)
		if err != nil {
			return nil, err
		}

		batches = append(batches, CommandEvents[E]{CommandID: uuid.New(), Events: newEvents})
		accumulated = append(accumulated, newEvents...)
	}

	return a.repository.Save(ctx, expected, batches...)
}

// cascadeFrame holds the events one command decided and the commands its events triggered that still await processing.
type cascadeFrame[C, E any] struct {
	decided []E
	pending []C
}

// computeNewEvents resolves the saga cascade depth first with an explicit stack, producing the same order
// a recursive resolution would. If expected is not nil the version of every fetched stream is recorded in it.
func (a *OrchestratingAggregate[C, S, E]) computeNewEvents(
	ctx context.Context,
	events []E,
	command C,
	expected eventstore.ExpectedVersions,
) ([]E, error) {

	decided := a.decider.ComputeNewEvents(events, command)
	all := append([]E(nil), decided...)
	stack := []cascadeFrame[C, E]{{decided: decided, pending: a.react(decided)}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if len(top.pending) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}

		triggered := top.pending[0]
		top.pending = top.pending[1:]
		visible := top.decided

		if len(stack) > a.settings.maxCascadeDepth {
			return nil, errors.Join(
				ErrMaxCascadeDepthExceeded,
				fmt.Errorf("command %s for stream %s at depth %d", messageTypeOf(triggered), StreamOf(triggered), len(stack)),
			)
		}

		history, err := a.fetch(ctx, triggered, expected)
		if err != nil {
			return nil, err
		}

		triggeredEvents := a.decider.ComputeNewEvents(concat(history, visible), triggered)
		all = append(all, triggeredEvents...)
		stack = append(stack, cascadeFrame[C, E]{decided: triggeredEvents, pending: a.react(triggeredEvents)})
	}

	return all, nil
}

func (a *OrchestratingAggregate[C, S, E]) react(events []E) []C {
	commands := make([]C, 0)

	for _, event := range events {
		commands = append(commands, a.saga.React(event)...)
	}

	return commands
}

// fetch loads the history of the command's stream and, if expected is not nil, records its version.
func (a *OrchestratingAggregate[C, S, E]) fetch(ctx context.Context, command C, expected eventstore.ExpectedVersions) ([]E, error) {
	versioned, err := a.repository.FetchEvents(ctx, command)
	if err != nil {
		return nil, err
	}

	if expected != nil {
		if err = expected.Expect(StreamOf(command), versionOf(versioned)); err != nil {
			return nil, err
		}
	}

	return eventsOf(versioned), nil
}

func versionOf[E any](versioned []Versioned[E]) uuid.UUID {
	if len(versioned) == 0 {
		return uuid.Nil
	}

	return versioned[len(versioned)-1].Version
}

func eventsOf[E any](versioned []Versioned[E]) []E {
	events := make([]E, 0, len(versioned))

	for _, v := range versioned {
		events = append(events, v.Event)
	}

	return events
}

func concat[E any](first, second []E) []E {
	result := make([]E, 0, len(first)+len(second))
	result = append(result, first...)

	return append(result, second...)
}

func messageTypeOf(command fmodel.Command) string {
	return fmt.Sprintf("%T", command)
}
