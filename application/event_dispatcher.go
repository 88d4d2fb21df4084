package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
)

const (
	componentEventDispatcher = "event_dispatcher"
	messageTypeChangeFeed    = "change_feed"

	// DispatchDurationMetric tracks the duration of one dispatched batch.
	DispatchDurationMetric = "event_dispatcher_batch_duration_seconds"
	// DispatchCallsMetric counts dispatched batches.
	DispatchCallsMetric = "event_dispatcher_batches_total"
	// EventsDispatchedMetric tracks how many events one batch dispatched.
	EventsDispatchedMetric = "event_dispatcher_events_dispatched"
)

// ChangeFeed is the store's ordered feed of all persisted events.
type ChangeFeed interface {
	FetchAfter(ctx context.Context, after eventstore.Offset, limit int) (eventstore.StorableEvents, error)
}

// EventDecoder converts one stored event into a domain event, see StoreEventRepository.Decode.
type EventDecoder[E any] interface {
	Decode(storableEvent eventstore.StorableEvent) (E, error)
}

type subscription[E any] struct {
	name    string
	handler EventHandler[E]
}

// EventDispatcher delivers persisted events to the subscribed handlers, usually materialized views.
//
// Events are pulled from the change feed in offset order. The checkpoint advances past an event only
// after every handler handled it, so a failing handler gets the same event again on the next dispatch.
// The checkpoint lives in memory: after a restart delivery starts over, which makes delivery at least once.
type EventDispatcher[E any] struct {
	mu            sync.Mutex
	feed          ChangeFeed
	decoder       EventDecoder[E]
	subscriptions []subscription[E]
	checkpoint    eventstore.Offset
	batchSize     int
	eventualFeed  bool
	observer      observer
}

// NewEventDispatcher creates an EventDispatcher starting at the beginning of the feed.
func NewEventDispatcher[E any](feed ChangeFeed, decoder EventDecoder[E], options ...Option) (*EventDispatcher[E], error) {
	if feed == nil || decoder == nil {
		return nil, ErrNilCollaborator
	}

	s, err := newSettings(options)
	if err != nil {
		return nil, err
	}

	return &EventDispatcher[E]{
		feed:         feed,
		decoder:      decoder,
		batchSize:    s.batchSize,
		eventualFeed: s.eventualFeed,
		observer:     newObserver(componentEventDispatcher, DispatchDurationMetric, DispatchCallsMetric, EventsDispatchedMetric, s),
	}, nil
}

// Subscribe registers a handler. Handlers are called in registration order.
func (d *EventDispatcher[E]) Subscribe(name string, handler EventHandler[E]) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.subscriptions = append(d.subscriptions, subscription[E]{name: name, handler: handler})
}

// Checkpoint returns the offset of the last event every handler handled.
func (d *EventDispatcher[E]) Checkpoint() eventstore.Offset {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.checkpoint
}

// DispatchPending delivers all events persisted after the checkpoint and returns how many were delivered.
func (d *EventDispatcher[E]) DispatchPending(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	total := 0

	for {
		dispatched, err := d.dispatchBatch(ctx)
		total += dispatched

		if err != nil {
			return total, err
		}

		if dispatched < d.batchSize {
			return total, nil
		}
	}
}

// Run dispatches pending events every interval until the context is done.
// It returns the first dispatch error, or nil when the context is canceled.
func (d *EventDispatcher[E]) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := d.DispatchPending(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (d *EventDispatcher[E]) dispatchBatch(ctx context.Context) (int, error) {
	observation, ctx := d.observer.start(ctx, "dispatch", messageTypeChangeFeed)

	dispatched, err := d.dispatch(ctx)
	observation.finish(dispatched, err)

	return dispatched, err
}

func (d *EventDispatcher[E]) dispatch(ctx context.Context) (int, error) {
	feedCtx := ctx
	if d.eventualFeed {
		feedCtx = eventstore.WithEventualConsistency(ctx)
	}

	stored, err := d.feed.FetchAfter(feedCtx, d.checkpoint, d.batchSize)
	if err != nil {
		return 0, errors.Join(ErrFetchingEventsFailed, err)
	}

	for i, storableEvent := range stored {
		event, err := d.decoder.Decode(storableEvent)
		if err != nil {
			return i, err
		}

		for _, sub := range d.subscriptions {
			if err = sub.handler(ctx, event); err != nil {
				return i, errors.Join(
					ErrDispatchingEventFailed,
					fmt.Errorf("handler %s, event %s at offset %d: %w", sub.name, storableEvent.EventType, storableEvent.Offset, err),
				)
			}
		}

		d.checkpoint = storableEvent.Offset
	}

	return len(stored), nil
}
