package fmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/orchestrating-eventstore-go/fmodel"
)

func Test_View_ComputeNewState_IsOrderSensitive(t *testing.T) {
	// arrange
	lastWriteWins := fmodel.View[string, string]{
		Evolve:       func(_ string, event string) string { return event },
		InitialState: func() string { return "" },
	}

	// act
	ab := lastWriteWins.ComputeNewState(lastWriteWins.InitialState(), "a", "b")
	ba := lastWriteWins.ComputeNewState(lastWriteWins.InitialState(), "b", "a")

	// assert
	assert.Equal(t, "b", ab)
	assert.Equal(t, "a", ba)
}

func Test_CombineViews_And_MapViewEvent(t *testing.T) {
	counterView := fmodel.View[int, counterEvent]{
		Evolve:       counterDecider(100).Evolve,
		InitialState: func() int { return 0 },
	}
	toggleView := fmodel.MapViewEvent(
		fmodel.View[bool, flipped]{
			Evolve:       toggleDecider().Evolve,
			InitialState: func() bool { return false },
		},
		func(on bool) flipped { return flipped{on: on} },
	)
	combined := fmodel.CombineViews(counterView, toggleView)

	state := combined.ComputeNewState(
		combined.InitialState(),
		fmodel.First[counterEvent, bool](incremented{by: 2}),
		fmodel.Second[counterEvent](true),
	)

	assert.Equal(t, fmodel.Pair[int, bool]{First: 2, Second: true}, state)
}
