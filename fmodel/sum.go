package fmodel

// Sum is a two-way tagged union: it holds either a First or a Second value.
//
// The zero value is a First holding the zero value of A.
type Sum[A, B any] struct {
	first    A
	second   B
	isSecond bool
}

// First builds a Sum holding the left value.
func First[A, B any](a A) Sum[A, B] {
	return Sum[A, B]{first: a}
}

// Second builds a Sum holding the right value.
func Second[A, B any](b B) Sum[A, B] {
	return Sum[A, B]{second: b, isSecond: true}
}

// IsFirst reports whether the Sum holds the left value.
func (s Sum[A, B]) IsFirst() bool {
	return !s.isSecond
}

// IsSecond reports whether the Sum holds the right value.
func (s Sum[A, B]) IsSecond() bool {
	return s.isSecond
}

// GetFirst returns the left value and true if the Sum holds it.
func (s Sum[A, B]) GetFirst() (A, bool) {
	return s.first, !s.isSecond
}

// GetSecond returns the right value and true if the Sum holds it.
func (s Sum[A, B]) GetSecond() (B, bool) {
	return s.second, s.isSecond
}

// FoldSum applies onFirst or onSecond depending on which side s holds.
func FoldSum[A, B, R any](s Sum[A, B], onFirst func(A) R, onSecond func(B) R) R {
	if s.isSecond {
		return onSecond(s.second)
	}

	return onFirst(s.first)
}

// Pair is the product state of two combined deciders.
type Pair[A, B any] struct {
	First  A
	Second B
}
