package shell

import (
	"github.com/AntonStoeckl/orchestrating-eventstore-go/application"
	"github.com/AntonStoeckl/orchestrating-eventstore-go/example/restaurant/core"
)

// EventRepository stores the events of both restaurants and orders in one event store.
type EventRepository = application.StoreEventRepository[core.Command, core.Event]

// RestaurantViewRepository stores the restaurant view states.
type RestaurantViewRepository = application.StoreViewStateRepository[core.RestaurantEvent, core.RestaurantView]

// OrderViewRepository stores the order view states.
type OrderViewRepository = application.StoreViewStateRepository[core.OrderEvent, core.OrderView]

// NewEventRepository creates the event repository over the store, encoding with the tagged JSON Codec.
func NewEventRepository(store application.EventStore) (*EventRepository, error) {
	return application.NewStoreEventRepository[core.Command, core.Event](store, NewCodec())
}

// NewRestaurantViewRepository creates the restaurant view repository over the store.
func NewRestaurantViewRepository(store application.ViewStore) (*RestaurantViewRepository, error) {
	return application.NewStoreViewStateRepository[core.RestaurantEvent, core.RestaurantView](store, core.RestaurantViewName)
}

// NewOrderViewRepository creates the order view repository over the store.
func NewOrderViewRepository(store application.ViewStore) (*OrderViewRepository, error) {
	return application.NewStoreViewStateRepository[core.OrderEvent, core.OrderView](store, core.OrderViewName)
}

// restaurantViewEvent selects the events the restaurant view projects.
// Rejections change nothing and are skipped: for a restaurant that does not exist they would evolve to no state.
func restaurantViewEvent(event core.Event) (core.RestaurantEvent, bool) {
	if _, rejected := event.(core.Rejection); rejected {
		return nil, false
	}

	restaurantEvent, ok := event.(core.RestaurantEvent)

	return restaurantEvent, ok
}

// orderViewEvent selects the events the order view projects.
func orderViewEvent(event core.Event) (core.OrderEvent, bool) {
	if _, rejected := event.(core.Rejection); rejected {
		return nil, false
	}

	orderEvent, ok := event.(core.OrderEvent)

	return orderEvent, ok
}
