// Package aggregate provides reducers for Stream.Reduce and short-circuiting
// queries over streams.
//
// A reducer consumes the values leaving a run and keeps a single result.
// Reducers keep state between runs until Reset is called.
package aggregate

import (
	"cmp"
	"strings"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Numeric is a constraint for numeric types that support arithmetic operations.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Reducer accumulates with fn. The first value becomes the initial
// accumulator; until a value was consumed there is no result.
type Reducer[V any] struct {
	fn     func(acc, value V) V
	acc    V
	hasAcc bool
}

// Reduce creates a Reducer from fn.
func Reduce[V any](fn func(acc, value V) V) *Reducer[V] {
	return &Reducer[V]{fn: fn}
}

func (r *Reducer[V]) Consume(value V) {
	if !r.hasAcc {
		r.acc, r.hasAcc = value, true
		return
	}
	r.acc = r.fn(r.acc, value)
}

func (r *Reducer[V]) Result() V       { return r.acc }
func (r *Reducer[V]) HasResult() bool { return r.hasAcc }

func (r *Reducer[V]) Reset() {
	var zero V
	r.acc, r.hasAcc = zero, false
}

// Folder accumulates with fn from an initial value. It always has a result,
// the initial value when nothing was consumed.
type Folder[V any] struct {
	initial V
	fn      func(acc, value V) V
	acc     V
}

// Fold creates a Folder from initial and fn.
func Fold[V any](initial V, fn func(acc, value V) V) *Folder[V] {
	return &Folder[V]{initial: initial, fn: fn, acc: initial}
}

func (f *Folder[V]) Consume(value V) { f.acc = f.fn(f.acc, value) }
func (f *Folder[V]) Result() V       { return f.acc }
func (f *Folder[V]) HasResult() bool { return true }
func (f *Folder[V]) Reset()          { f.acc = f.initial }

// Count counts the values consumed. The count is reported in the value type.
func Count[V Numeric]() *Folder[V] {
	return Fold(0, func(acc, _ V) V { return acc + 1 })
}

// Sum adds the values consumed. The sum of nothing is zero.
func Sum[V Numeric]() *Folder[V] {
	return Fold(0, func(acc, value V) V { return acc + value })
}

// Min keeps the smallest value consumed.
func Min[V cmp.Ordered]() *Reducer[V] {
	return Reduce(func(acc, value V) V { return min(acc, value) })
}

// Max keeps the largest value consumed.
func Max[V cmp.Ordered]() *Reducer[V] {
	return Reduce(func(acc, value V) V { return max(acc, value) })
}

// MinBy keeps the first of the smallest values consumed, ordered by c.
func MinBy[V any](c core.Comparator[V]) *Reducer[V] {
	return Reduce(func(acc, value V) V {
		if c(value, acc) < 0 {
			return value
		}
		return acc
	})
}

// MaxBy keeps the first of the largest values consumed, ordered by c.
func MaxBy[V any](c core.Comparator[V]) *Reducer[V] {
	return MinBy(c.Reversed())
}

// First keeps the first value consumed.
func First[V any]() *Reducer[V] {
	return Reduce(func(acc, _ V) V { return acc })
}

// Last keeps the last value consumed.
func Last[V any]() *Reducer[V] {
	return Reduce(func(_, value V) V { return value })
}

// Averager computes the arithmetic mean of the values consumed.
type Averager[V Numeric] struct {
	sum   float64
	count int
}

// Average creates an Averager.
func Average[V Numeric]() *Averager[V] {
	return &Averager[V]{}
}

func (a *Averager[V]) Consume(value V) {
	a.sum += float64(value)
	a.count++
}

// Result returns the mean converted to V, which truncates for integer types.
// Use Mean for the exact value.
func (a *Averager[V]) Result() V { return V(a.Mean()) }

// Mean returns the mean as a float64, or 0 when nothing was consumed.
func (a *Averager[V]) Mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

func (a *Averager[V]) HasResult() bool { return a.count > 0 }
func (a *Averager[V]) Reset()          { a.sum, a.count = 0, 0 }

// Joiner concatenates string values with a separator.
type Joiner struct {
	sep string
	b   strings.Builder
	n   int
}

// Concat creates a Joiner placing sep between consecutive values.
func Concat(sep string) *Joiner {
	return &Joiner{sep: sep}
}

func (j *Joiner) Consume(value string) {
	if j.n > 0 {
		j.b.WriteString(j.sep)
	}
	j.b.WriteString(value)
	j.n++
}

func (j *Joiner) Result() string  { return j.b.String() }
func (j *Joiner) HasResult() bool { return j.n > 0 }

func (j *Joiner) Reset() {
	j.b.Reset()
	j.n = 0
}
