package core

import (
	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// The names of the read-side views, which are also their storage keys.
const (
	RestaurantViewName = "restaurants"
	OrderViewName      = "orders"
)

// RestaurantView is the read-side state of one restaurant.
type RestaurantView struct {
	RestaurantID uuid.UUID      `json:"identifier"`
	Name         string         `json:"name"`
	Menu         RestaurantMenu `json:"menu"`
}

// OrderView is the read-side state of one order.
type OrderView struct {
	OrderID      uuid.UUID       `json:"identifier"`
	RestaurantID uuid.UUID       `json:"restaurant_identifier"`
	Status       OrderStatus     `json:"status"`
	LineItems    []OrderLineItem `json:"line_items"`
}

// RestaurantViewOf creates the view projecting restaurant events into RestaurantView.
// Applying the same event twice yields the same state.
func RestaurantViewOf() fmodel.View[*RestaurantView, RestaurantEvent] {
	return fmodel.View[*RestaurantView, RestaurantEvent]{
		Evolve: func(state *RestaurantView, event RestaurantEvent) *RestaurantView {
			switch e := event.(type) {
			case RestaurantCreated:
				return &RestaurantView{RestaurantID: e.RestaurantID, Name: e.Name, Menu: e.Menu}

			case RestaurantMenuChanged:
				if state == nil {
					return nil
				}

				return &RestaurantView{RestaurantID: state.RestaurantID, Name: state.Name, Menu: e.Menu}

			default:
				return state
			}
		},
		InitialState: func() *RestaurantView { return nil },
	}
}

// OrderViewOf creates the view projecting order events into OrderView.
func OrderViewOf() fmodel.View[*OrderView, OrderEvent] {
	return fmodel.View[*OrderView, OrderEvent]{
		Evolve: func(state *OrderView, event OrderEvent) *OrderView {
			switch e := event.(type) {
			case OrderCreated:
				return &OrderView{
					OrderID:      e.OrderID,
					RestaurantID: e.RestaurantID,
					Status:       e.Status,
					LineItems:    e.LineItems,
				}

			case OrderPrepared:
				if state == nil {
					return nil
				}

				return &OrderView{
					OrderID:      state.OrderID,
					RestaurantID: state.RestaurantID,
					Status:       e.Status,
					LineItems:    state.LineItems,
				}

			default:
				return state
			}
		},
		InitialState: func() *OrderView { return nil },
	}
}
