package xiter

import (
	"iter"
)

// Number pairs every element of the sequence with its position, counting
// from first.
func Number[T any](seq iter.Seq[T], first int) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		n := first - 1
		for v := range seq {
			n++
			if !yield(n, v) {
				return
			}
		}
	}
}

// Filter yields only the elements for which keep returns true.
func Filter[T any](seq iter.Seq[T], keep func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for v := range seq {
			if keep(v) && !yield(v) {
				return
			}
		}
	}
}
