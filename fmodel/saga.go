package fmodel

// Saga is the pure reaction algebra: it maps an action result (usually an event) to follow-up actions
// (usually commands). An empty result means no reaction.
type Saga[AR, A any] struct {
	React func(actionResult AR) []A
}

// CombineSagas combines two sagas into one operating over the Sum of their action results and actions.
// Each action result is routed to exactly one side; the other side contributes no actions for it.
func CombineSagas[AR1, A1, AR2, A2 any](x Saga[AR1, A1], y Saga[AR2, A2]) Saga[Sum[AR1, AR2], Sum[A1, A2]] {
	return Saga[Sum[AR1, AR2], Sum[A1, A2]]{
		React: func(actionResult Sum[AR1, AR2]) []Sum[A1, A2] {
			if ar, ok := actionResult.GetFirst(); ok {
				return mapSlice(x.React(ar), First[A1, A2])
			}

			ar, _ := actionResult.GetSecond()

			return mapSlice(y.React(ar), Second[A1, A2])
		},
	}
}

// MapSagaActionResult adapts the action result type: results of type ARn are converted with f before reacting.
func MapSagaActionResult[AR, ARn, A any](s Saga[AR, A], f func(ARn) AR) Saga[ARn, A] {
	return Saga[ARn, A]{
		React: func(actionResult ARn) []A {
			return s.React(f(actionResult))
		},
	}
}

// MapSagaAction adapts the action type: every emitted action is converted with f.
func MapSagaAction[AR, A, An any](s Saga[AR, A], f func(A) An) Saga[AR, An] {
	return Saga[AR, An]{
		React: func(actionResult AR) []An {
			return mapSlice(s.React(actionResult), f)
		},
	}
}
