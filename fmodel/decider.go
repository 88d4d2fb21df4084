package fmodel

// Decider is the pure decision and evolution algebra for one entity kind.
//
//   - C is the command type
//   - S is the state type
//   - E is the event type
//
// Decide must be total over C: every command produces at least one event, a rejection
// being modeled as an event as well. Evolve must handle every event Decide can produce.
type Decider[C, S, E any] struct {
	Decide       func(command C, state S) []E
	Evolve       func(state S, event E) S
	InitialState func() S
}

// ComputeNewState folds the events through Evolve, starting from the initial state.
func (d Decider[C, S, E]) ComputeNewState(events []E) S {
	state := d.InitialState()

	for _, event := range events {
		state = d.Evolve(state, event)
	}

	return state
}

// ComputeNewEvents re-derives the state from the given events and decides on the command.
func (d Decider[C, S, E]) ComputeNewEvents(events []E, command C) []E {
	return d.Decide(command, d.ComputeNewState(events))
}

// CombineDeciders combines two deciders into one operating over the Sum of their commands and events
// and the Pair of their states.
//
// A command is routed to the side it belongs to and decided with that side's sub-state only.
// An event is routed to the side it belongs to and evolves that side's sub-state only;
// the other sub-state is left untouched.
func CombineDeciders[C1, S1, E1, C2, S2, E2 any](
	x Decider[C1, S1, E1],
	y Decider[C2, S2, E2],
) Decider[Sum[C1, C2], Pair[S1, S2], Sum[E1, E2]] {

	return Decider[Sum[C1, C2], Pair[S1, S2], Sum[E1, E2]]{
		Decide: func(command Sum[C1, C2], state Pair[S1, S2]) []Sum[E1, E2] {
			if c, ok := command.GetFirst(); ok {
				return mapSlice(x.Decide(c, state.First), First[E1, E2])
			}

			c, _ := command.GetSecond()

			return mapSlice(y.Decide(c, state.Second), Second[E1, E2])
		},

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

// MapDeciderCommand adapts the command type of a decider: commands of type Cn are converted with f before deciding.
func MapDeciderCommand[C, Cn, S, E any](d Decider[C, S, E], f func(Cn) C) Decider[Cn, S, E] {
	return Decider[Cn, S, E]{
		Decide: func(command Cn, state S) []E {
			return d.Decide(f(command), state)
		},
		Evolve:       d.Evolve,
		InitialState: d.InitialState,
	}
}

// MapDeciderEvent adapts the event type of a decider in both directions:
// incoming events are converted with in before evolving, decided events are converted with out.
func MapDeciderEvent[C, S, E, En any](d Decider[C, S, E], in func(En) E, out func(E) En) Decider[C, S, En] {
	return Decider[C, S, En]{
		Decide: func(command C, state S) []En {
			return mapSlice(d.Decide(command, state), out)
		},
		Evolve: func(state S, event En) S {
			return d.Evolve(state, in(event))
		},
		InitialState: d.InitialState,
	}
}

// MapDeciderState adapts the state type of a decider in both directions.
func MapDeciderState[C, S, Sn, E any](d Decider[C, S, E], in func(Sn) S, out func(S) Sn) Decider[C, Sn, E] {
	return Decider[C, Sn, E]{
		Decide: func(command C, state Sn) []E {
			return d.Decide(command, in(state))
		},
		Evolve: func(state Sn, event E) Sn {
			return out(d.Evolve(in(state), event))
		},
		InitialState: func() Sn {
			return out(d.InitialState())
		},
	}
}

func mapSlice[A, B any](items []A, f func(A) B) []B {
	result := make([]B, 0, len(items))

	for _, item := range items {
		result = append(result, f(item))
	}

	return result
}
