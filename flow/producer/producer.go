// Package producer provides sources for flow streams: in-memory collections,
// channels, text readers (lines, CSV and JSON), file system walks and
// database queries.
//
// Every producer here satisfies flow.Producer. Those reading from an outside
// resource also implement flow.ContextProducer, so the query or read stops
// with the run, and report read failures through an Err method that
// flow.From picks up.
package producer

import (
	"cmp"
	"context"
	"iter"
	"maps"
	"slices"
)

// SliceProducer produces the elements of a slice keyed by index.
type SliceProducer[V any] struct {
	values []V
}

// Slice creates a producer over values. The slice is not copied.
func Slice[V any](values ...V) *SliceProducer[V] {
	return &SliceProducer[V]{values: values}
}

func (p *SliceProducer[V]) All() iter.Seq2[int, V] { return slices.All(p.values) }

func (p *SliceProducer[V]) Len() (int, bool) { return len(p.values), true }

// MapProducer produces the entries of a map.
type MapProducer[K comparable, V any] struct {
	m    map[K]V
	keys func(map[K]V) []K
}

// Map creates a producer over the entries of m, in map iteration order.
func Map[K comparable, V any](m map[K]V) *MapProducer[K, V] {
	return &MapProducer[K, V]{m: m}
}

// SortedMap creates a producer over the entries of m in ascending key order.
// The keys are sorted each time the producer is read.
func SortedMap[K cmp.Ordered, V any](m map[K]V) *MapProducer[K, V] {
	return &MapProducer[K, V]{m: m, keys: func(m map[K]V) []K {
		return slices.Sorted(maps.Keys(m))
	}}
}

func (p *MapProducer[K, V]) All() iter.Seq2[K, V] {
	if p.keys == nil {
		return maps.All(p.m)
	}
	return func(yield func(K, V) bool) {
		for _, k := range p.keys(p.m) {
			if !yield(k, p.m[k]) {
				return
			}
		}
	}
}

func (p *MapProducer[K, V]) Len() (int, bool) { return len(p.m), true }

// RangeProducer produces an arithmetic sequence of integers keyed by position.
type RangeProducer struct {
	start, end, step int
}

// Range creates a producer of start, start+step, ... up to end (exclusive).
// A zero step is treated as one; a negative step counts down.
func Range(start, end, step int) *RangeProducer {
	if step == 0 {
		step = 1
	}
	return &RangeProducer{start: start, end: end, step: step}
}

func (p *RangeProducer) All() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		i := 0
		for v := p.start; p.inRange(v); v += p.step {
			if !yield(i, v) {
				return
			}
			i++
		}
	}
}

func (p *RangeProducer) inRange(v int) bool {
	if p.step > 0 {
		return v < p.end
	}
	return v > p.end
}

func (p *RangeProducer) Len() (int, bool) {
	span, step := p.end-p.start, p.step
	if step < 0 {
		span, step = -span, -step
	}
	if span <= 0 {
		return 0, true
	}
	return (span + step - 1) / step, true
}

// Seq adapts a sequence of values to a producer keyed by position.
func Seq[V any](seq iter.Seq[V]) Func[int, V] {
	return func() iter.Seq2[int, V] {
		return func(yield func(int, V) bool) {
			i := 0
			for v := range seq {
				if !yield(i, v) {
					return
				}
				i++
			}
		}
	}
}

// Func adapts a sequence constructor to a producer. It is called once per
// run.
type Func[K, V any] func() iter.Seq2[K, V]

func (f Func[K, V]) All() iter.Seq2[K, V] { return f() }

// ChanProducer produces the values received from a channel, keyed by
// arrival order.
type ChanProducer[V any] struct {
	ch <-chan V
}

// Chan creates a producer draining ch until it is closed or the run's
// context is done.
func Chan[V any](ch <-chan V) *ChanProducer[V] {
	return &ChanProducer[V]{ch: ch}
}

func (p *ChanProducer[V]) All() iter.Seq2[int, V] {
	return p.AllContext(context.Background())
}

func (p *ChanProducer[V]) AllContext(ctx context.Context) iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-p.ch:
				if !ok || !yield(i, v) {
					return
				}
			}
		}
	}
}
