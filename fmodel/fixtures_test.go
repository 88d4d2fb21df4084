package fmodel_test

import (
	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

// A counter that can be incremented up to a limit, and a toggle that can be flipped.

type increment struct{ by int }

type incremented struct{ by int }

type incrementRejected struct{ reason string }

type flip struct{}

type flipped struct{ on bool }

type counterEvent interface{ isCounterEvent() }

func (incremented) isCounterEvent()       {}
func (incrementRejected) isCounterEvent() {}

func counterDecider(limit int) fmodel.Decider[increment, int, counterEvent] {
	return fmodel.Decider[increment, int, counterEvent]{
		Decide: func(command increment, state int) []counterEvent {
			if state+command.by > limit {
				return []counterEvent{incrementRejected{reason: "limit exceeded"}}
			}

			return []counterEvent{incremented{by: command.by}}
		},
		Evolve: func(state int, event counterEvent) int {
			switch e := event.(type) {
			case incremented:
				return state + e.by
			default:
				return state
			}
		},
		InitialState: func() int { return 0 },
	}
}

func toggleDecider() fmodel.Decider[flip, bool, flipped] {
	return fmodel.Decider[flip, bool, flipped]{
		Decide: func(_ flip, state bool) []flipped {
			return []flipped{{on: !state}}
		},
		Evolve: func(_ bool, event flipped) bool {
			return event.on
		},
		InitialState: func() bool { return false },
	}
}
