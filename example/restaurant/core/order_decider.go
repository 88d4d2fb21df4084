package core

import (
	"maps"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// Order is the write-side state of one order.
type Order struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Status       OrderStatus
	LineItems    []OrderLineItem
}

// Orders is the write-side state the order decider folds its events into, keyed by order.
type Orders map[uuid.UUID]Order

// Of returns the state of one order, false if it does not exist.
func (s Orders) Of(id uuid.UUID) (Order, bool) {
	order, ok := s[id]
	return order, ok
}

// OrderDecider creates the decider of the order entity.
func OrderDecider() fmodel.Decider[OrderCommand, Orders, OrderEvent] {
	return fmodel.Decider[OrderCommand, Orders, OrderEvent]{
		Decide:       decideOrder,
		Evolve:       evolveOrder,
		InitialState: func() Orders { return Orders{} },
	}
}

func decideOrder(command OrderCommand, state Orders) []OrderEvent {
	order, exists := state.Of(command.Identifier())

	switch c := command.(type) {
	case CreateOrder:
		if exists {
			return []OrderEvent{OrderNotCreated{
				OrderID:      c.OrderID,
				RestaurantID: c.RestaurantID,
				LineItems:    c.LineItems,
				Reason:       ReasonOrderAlreadyExists,
			}}
		}

		return []OrderEvent{OrderCreated{
			OrderID:      c.OrderID,
			RestaurantID: c.RestaurantID,
			Status:       OrderStatusCreated,
			LineItems:    c.LineItems,
		}}

	case MarkOrderAsPrepared:
		if !exists || order.Status != OrderStatusCreated {
			return []OrderEvent{OrderNotPrepared{OrderID: c.OrderID, Reason: ReasonOrderInTheWrongStatus}}
		}

		return []OrderEvent{OrderPrepared{OrderID: c.OrderID, Status: OrderStatusPrepared}}

	default:
		return []OrderEvent{}
	}
}

func evolveOrder(state Orders, event OrderEvent) Orders {
	switch e := event.(type) {
	case OrderCreated:
		return withOrder(state, Order{
			ID:           e.OrderID,
			RestaurantID: e.RestaurantID,
			Status:       e.Status,
			LineItems:    e.LineItems,
		})

	case OrderPrepared:
		order, ok := state.Of(e.OrderID)
		if !ok {
			return state
		}

		order.Status = e.Status

		return withOrder(state, order)

	default:
		return state
	}
}

func withOrder(state Orders, order Order) Orders {
	next := maps.Clone(state)
	if next == nil {
		next = Orders{}
	}

	next[order.ID] = order

	return next
}
