package fmodel

// View is the read-side evolution algebra: one event in, one state out, no reactions.
type View[S, E any] struct {
	Evolve       func(state S, event E) S
	InitialState func() S
}

// ComputeNewState evolves the given state with the events, in order.
func (v View[S, E]) ComputeNewState(state S, events ...E) S {
	for _, event := range events {
		state = v.Evolve(state, event)
	}

	return state
}

// CombineViews combines two views into one operating over the Sum of their events and the Pair of their states.
func CombineViews[S1, E1, S2, E2 any](x View[S1, E1], y View[S2, E2]) View[Pair[S1, S2], Sum[E1, E2]] {
	return View[Pair[S1, S2], Sum[E1, E2]]{
		Evolve: func(state Pair[S1, S2], event Sum[E1, E2]) Pair[S1, S2] {
			if e, ok := event.GetFirst(); ok {
				return Pair[S1, S2]{First: x.Evolve(state.First, e), Second: state.Second}
			}

			e, _ := event.GetSecond()

			return Pair[S1, S2]{First: state.First, Second: y.Evolve(state.Second, e)}
		},
		InitialState: func() Pair[S1, S2] {
			return Pair[S1, S2]{First: x.InitialState(), Second: y.InitialState()}
		},
	}
}

// MapViewEvent adapts the event type of a view: events of type En are converted with f before evolving.
func MapViewEvent[S, E, En any](v View[S, E], f func(En) E) View[S, En] {
	return View[S, En]{
		Evolve: func(state S, event En) S {
			return v.Evolve(state, f(event))
		},
		InitialState: v.InitialState,
	}
}
