// Package fmodel provides the pure algebra of the runtime: Decider, Saga and View.
//
// None of the types in this package perform I/O. A Decider decides which events
// a command produces for a given state and evolves the state with an event.
// A Saga reacts to an event with follow-up commands. A View evolves a read-side
// state with an event.
//
// Deciders and Sagas compose by routing over a two-way tagged union (Sum):
//
//	combined := fmodel.CombineDeciders(restaurantDecider, orderDecider)
//	decider := fmodel.MapDeciderEvent(
//		fmodel.MapDeciderCommand(combined, commandToSum),
//		eventToSum,
//		sumToEvent,
//	)
//
// The application package runs these algebras against an event store.
package fmodel
