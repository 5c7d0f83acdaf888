// Package tuple provides positional helpers over fixed-size ordered
// sequences: index generation, ordered iteration and right padding.
//
// Argument lists handed to the binding layer are plain slices; the
// helpers here are what normalise them to a fixed width before they are
// frozen into a bound node.
package tuple

import (
	"iter"
	"slices"
)

// Indices yields 0, 1, ..., n-1 in ascending order. A non-positive n
// yields nothing.
func Indices(n int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// IndexSequence returns the slice form of Indices.
func IndexSequence(n int) []int {
	if n <= 0 {
		return []int{}
	}
	return slices.Collect(Indices(n))
}

// ForEach calls fn once per element of t, strictly in ascending
// position order.
func ForEach[T any](t []T, fn func(T)) {
	for i := range Indices(len(t)) {
		fn(t[i])
	}
}

// ForEachIndex is ForEach with the slot position passed alongside the
// value.
func ForEachIndex[T any](t []T, fn func(int, T)) {
	for i := range Indices(len(t)) {
		fn(i, t[i])
	}
}

// Const returns a sequence of n copies of x.
func Const[T any](n int, x T) []T {
	out := make([]T, 0, max(n, 0))
	for range Indices(n) {
		out = append(out, x)
	}
	return out
}

// Pad right-extends t to width n with copies of fill.
//
// If t already has n or more elements it is returned unchanged (the
// same slice, never truncated). Otherwise the result is a new slice
// holding t's elements in order followed by n-len(t) copies of fill;
// t's backing array is never written.
func Pad[T any](fill T, t []T, n int) []T {
	if len(t) >= n {
		return t
	}
	return append(slices.Clip(t), Const(n-len(t), fill)...)
}

// Map applies fn to each element of xs, in order.
func Map[A, B any](fn func(A) B, xs []A) []B {
	out := make([]B, 0, len(xs))
	ForEach(xs, func(x A) {
		out = append(out, fn(x))
	})
	return out
}
