package core

import (
	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// OrderSaga reacts to restaurant events with order commands: a placed order gets created.
func OrderSaga() fmodel.Saga[RestaurantEvent, OrderCommand] {
	return fmodel.Saga[RestaurantEvent, OrderCommand]{
		React: func(event RestaurantEvent) []OrderCommand {
			placed, ok := event.(OrderPlaced)
			if !ok {
				return []OrderCommand{}
			}

			return []OrderCommand{CreateOrder{
				OrderID:      placed.OrderID,
				RestaurantID: placed.RestaurantID,
				LineItems:    placed.LineItems,
			}}
		},
	}
}

// RestaurantSaga reacts to order events with restaurant commands. No order event needs a reaction yet.
func RestaurantSaga() fmodel.Saga[OrderEvent, RestaurantCommand] {
	return fmodel.Saga[OrderEvent, RestaurantCommand]{
		React: func(OrderEvent) []RestaurantCommand {
			return []RestaurantCommand{}
		},
	}
}
