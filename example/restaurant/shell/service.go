package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/application"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/eventstore"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/core"
)

const (
	subscriptionRestaurantView = "restaurant_view"
	subscriptionOrderView      = "order_view"
	operationHandle            = "handle"
)

// Store is what the restaurant service needs from an event store engine.
// Both the postgresengine and the memengine EventStore satisfy it.
type Store interface {
	application.EventStore
	application.ViewStore
	application.ChangeFeed
}

// Service wires the restaurant domain to a store: the orchestrating aggregate on the write side,
// the restaurant and order views on the read side, and the dispatcher in between.
type Service struct {
	Aggregate      *application.OrchestratingAggregate[core.Command, core.State, core.Event]
	RestaurantView *application.MaterializedView[core.RestaurantView, core.RestaurantEvent]
	OrderView      *application.MaterializedView[core.OrderView, core.OrderEvent]
	Dispatcher     *application.EventDispatcher[core.Event]

	views        application.ViewStore
	retryOptions []RetryOption
}

// NewService creates a Service. The application options configure the aggregate, the views and the
// dispatcher alike; the retry options configure Handle.
func NewService(store Store, retryOptions []RetryOption, options ...application.Option) (*Service, error) {
	if store == nil {
		return nil, application.ErrNilCollaborator
	}

	eventRepository, err := NewEventRepository(store)
	if err != nil {
		return nil, err
	}

	restaurantViewRepository, err := NewRestaurantViewRepository(store)
	if err != nil {
		return nil, err
	}

	orderViewRepository, err := NewOrderViewRepository(store)
	if err != nil {
		return nil, err
	}

	aggregate, err := application.NewOrchestratingAggregate[core.Command, core.State, core.Event](
		eventRepository,
		core.Decider(),
		core.Saga(),
		options...,
	)
	if err != nil {
		return nil, err
	}

	restaurantView, err := application.NewMaterializedView[core.RestaurantView, core.RestaurantEvent](
		restaurantViewRepository,
		core.RestaurantViewOf(),
		options...,
	)
	if err != nil {
		return nil, err
	}

	orderView, err := application.NewMaterializedView[core.OrderView, core.OrderEvent](
		orderViewRepository,
		core.OrderViewOf(),
		options...,
	)
	if err != nil {
		return nil, err
	}

	dispatcher, err := application.NewEventDispatcher[core.Event](store, eventRepository, options...)
	if err != nil {
		return nil, err
	}

	dispatcher.Subscribe(subscriptionRestaurantView, application.HandlerFor(restaurantView, restaurantViewEvent))
	dispatcher.Subscribe(subscriptionOrderView, application.HandlerFor(orderView, orderViewEvent))

	return &Service{
		Aggregate:      aggregate,
		RestaurantView: restaurantView,
		OrderView:      orderView,
		Dispatcher:     dispatcher,
		views:          store,
		retryOptions:   retryOptions,
	}, nil
}

// Handle handles the commands as one batch and returns the persisted events, in order.
// On a concurrency conflict the whole batch is computed again on fresh history.
func (s *Service) Handle(ctx context.Context, commands ...core.Command) ([]core.Event, error) {
	var saved []application.Versioned[core.Event]

	_, err := RetryWithExponentialBackoff(
		ctx,
		func(ctx context.Context) error {
			var handleErr error
			saved, handleErr = s.Aggregate.HandleAll(ctx, commands...)

			return handleErr
		},
		s.retryOptions...,
	)
	if err != nil {
		return nil, err
	}

	events := make([]core.Event, 0, len(saved))
	for _, versioned := range saved {
		events = append(events, versioned.Event)
	}

	return events, nil
}

// Restaurant returns the projected state of a restaurant, nil if there is none.
func (s *Service) Restaurant(ctx context.Context, restaurantID uuid.UUID) (*core.RestaurantView, error) {
	return fetchView[core.RestaurantView](ctx, s.views, core.RestaurantViewName, restaurantID)
}

// Order returns the projected state of an order, nil if there is none.
func (s *Service) Order(ctx context.Context, orderID uuid.UUID) (*core.OrderView, error) {
	return fetchView[core.OrderView](ctx, s.views, core.OrderViewName, orderID)
}

func fetchView[S any](ctx context.Context, views application.ViewStore, viewName string, id uuid.UUID) (*S, error) {
	row, found, err := views.FetchViewState(ctx, viewName, id)
	if err != nil {
		return nil, errors.Join(application.ErrFetchingViewStateFailed, err)
	}

	if !found {
		return nil, nil
	}

	state := new(S)
	if err = json.Unmarshal(row.Data, state); err != nil {
		return nil, errors.Join(application.ErrFetchingViewStateFailed, eventstore.ErrInvalidPayloadJSON, err)
	}

	return state, nil
}
