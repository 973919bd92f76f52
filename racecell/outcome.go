package racecell

import "fmt"

// Outcome is the result of reading a cell.
//
// It is either Consistent, carrying the value both copies agreed on, or
// Inconsistent, meaning a write was observed half-done. An inconsistent
// read is an expected observation, not an error. Outcomes are comparable.
type Outcome[T comparable] struct {
	value      T
	consistent bool
}

// Consistent returns the outcome of a read whose two copies held v.
func Consistent[T comparable](v T) Outcome[T] {
	return Outcome[T]{value: v, consistent: true}
}

// Inconsistent returns the outcome of a read whose copies diverged.
func Inconsistent[T comparable]() Outcome[T] {
	return Outcome[T]{}
}

// IsConsistent reports whether both copies matched.
func (o Outcome[T]) IsConsistent() bool {
	return o.consistent
}

// Value returns the value read and true, or the zero value and false for
// an inconsistent read.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.consistent
}

// String returns "Consistent(v)" or "Inconsistent".
func (o Outcome[T]) String() string {
	if !o.consistent {
		return "Inconsistent"
	}
	return fmt.Sprintf("Consistent(%v)", o.value)
}
