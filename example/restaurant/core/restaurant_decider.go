package core

import (
	"maps"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// Restaurant is the write-side state of one restaurant.
type Restaurant struct {
	ID   uuid.UUID
	Name string
	Menu RestaurantMenu
}

// Restaurants is the write-side state the restaurant decider folds its events into, keyed by restaurant.
// Decisions only ever look at the entry of the restaurant a command targets, so a batch that touches
// several restaurants does not mix their states up.
type Restaurants map[uuid.UUID]Restaurant

// Of returns the state of one restaurant, false if it does not exist.
func (s Restaurants) Of(id uuid.UUID) (Restaurant, bool) {
	restaurant, ok := s[id]
	return restaurant, ok
}

// RestaurantDecider creates the decider of the restaurant entity.
func RestaurantDecider() fmodel.Decider[RestaurantCommand, Restaurants, RestaurantEvent] {
	return fmodel.Decider[RestaurantCommand, Restaurants, RestaurantEvent]{
		Decide:       decideRestaurant,
		Evolve:       evolveRestaurant,
		InitialState: func() Restaurants { return Restaurants{} },
	}
}

func decideRestaurant(command RestaurantCommand, state Restaurants) []RestaurantEvent {
	_, exists := state.Of(command.Identifier())

	switch c := command.(type) {
	case CreateRestaurant:
		if exists {
			return []RestaurantEvent{RestaurantNotCreated{
				RestaurantID: c.RestaurantID,
				Name:         c.Name,
				Menu:         c.Menu,
				Reason:       ReasonRestaurantAlreadyExists,
			}}
		}

		return []RestaurantEvent{RestaurantCreated{RestaurantID: c.RestaurantID, Name: c.Name, Menu: c.Menu}}

	case ChangeRestaurantMenu:
		if !exists {
			return []RestaurantEvent{RestaurantMenuNotChanged{
				RestaurantID: c.RestaurantID,
				Menu:         c.Menu,
				Reason:       ReasonRestaurantDoesNotExist,
			}}
		}

		return []RestaurantEvent{RestaurantMenuChanged{RestaurantID: c.RestaurantID, Menu: c.Menu}}

	case PlaceOrder:
		if !exists {
			return []RestaurantEvent{OrderNotPlaced{
				RestaurantID: c.RestaurantID,
				OrderID:      c.OrderID,
				LineItems:    c.LineItems,
				Reason:       ReasonRestaurantDoesNotExist,
			}}
		}

		return []RestaurantEvent{OrderPlaced{RestaurantID: c.RestaurantID, OrderID: c.OrderID, LineItems: c.LineItems}}

	default:
		return []RestaurantEvent{}
	}
}

func evolveRestaurant(state Restaurants, event RestaurantEvent) Restaurants {
	switch e := event.(type) {
	case RestaurantCreated:
		return withRestaurant(state, Restaurant{ID: e.RestaurantID, Name: e.Name, Menu: e.Menu})

	case RestaurantMenuChanged:
		restaurant, ok := state.Of(e.RestaurantID)
		if !ok {
			return state
		}

		restaurant.Menu = e.Menu

		return withRestaurant(state, restaurant)

	default: // OrderPlaced and the rejections leave the restaurant as it is
		return state
	}
}

func withRestaurant(state Restaurants, restaurant Restaurant) Restaurants {
	next := maps.Clone(state)
	if next == nil {
		next = Restaurants{}
	}

	next[restaurant.ID] = restaurant

	return next
}
