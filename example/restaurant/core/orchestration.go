package core

import (
	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// State is the combined write-side state of the restaurant and the order decider.
type State = fmodel.Pair[Restaurants, Orders]

// Decider combines the restaurant and the order decider into one decider over the whole domain.
func Decider() fmodel.Decider[Command, State, Event] {
	combined := fmodel.CombineDeciders(RestaurantDecider(), OrderDecider())

	return fmodel.MapDeciderEvent(
		fmodel.MapDeciderCommand(combined, commandToSum),
		eventToSum,
		sumToEvent,
	)
}

// Saga combines the restaurant and the order saga into one saga over the whole domain.
func Saga() fmodel.Saga[Event, Command] {
	combined := fmodel.CombineSagas(RestaurantSaga(), OrderSaga())

	return fmodel.MapSagaAction(
		fmodel.MapSagaActionResult(combined, eventToSagaSum),
		sagaSumToCommand,
	)
}

func commandToSum(command Command) fmodel.Sum[RestaurantCommand, OrderCommand] {
	if c, ok := command.(RestaurantCommand); ok {
		return fmodel.First[RestaurantCommand, OrderCommand](c)
	}

	return fmodel.Second[RestaurantCommand](command.(OrderCommand))
}

func eventToSum(event Event) fmodel.Sum[RestaurantEvent, OrderEvent] {
	if e, ok := event.(RestaurantEvent); ok {
		return fmodel.First[RestaurantEvent, OrderEvent](e)
	}

	return fmodel.Second[RestaurantEvent](event.(OrderEvent))
}

func sumToEvent(event fmodel.Sum[RestaurantEvent, OrderEvent]) Event {
	return fmodel.FoldSum(
		event,
		func(e RestaurantEvent) Event { return e },
		func(e OrderEvent) Event { return e },
	)
}

// The combined saga has the restaurant saga on the first side, which reacts to order events.
func eventToSagaSum(event Event) fmodel.Sum[OrderEvent, RestaurantEvent] {
	if e, ok := event.(OrderEvent); ok {
		return fmodel.First[OrderEvent, RestaurantEvent](e)
	}

	return fmodel.Second[OrderEvent](event.(RestaurantEvent))
}

func sagaSumToCommand(command fmodel.Sum[RestaurantCommand, OrderCommand]) Command {
	return fmodel.FoldSum(
		command,
		func(c RestaurantCommand) Command { return c },
		func(c OrderCommand) Command { return c },
	)
}
