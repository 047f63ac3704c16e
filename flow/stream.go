package flow

import (
	"context"
	"iter"
	"maps"
	"slices"

	"github.com/lguimbarda/kvflow/flow/core"
	"github.com/lguimbarda/kvflow/flow/op"
	"github.com/lguimbarda/kvflow/flow/unique"
)

// Stream is a lazy pipeline: a source, a chain of operations and the run
// options. Nothing is read until a terminal is called, and a Stream runs
// exactly once.
//
// Builder methods record the first construction error (an invalid size, a
// nil callback) and every terminal returns it, so a chain can be written
// fluently and checked once.
type Stream[K, V any] struct {
	src     func(ctx context.Context) iter.Seq2[K, V]
	srcErr  func() error
	counted core.Counted

	pipe *core.Pipe[K, V]
	opts []core.Option

	err      error
	runErr   error
	consumed bool
	derived  bool
}

func newStream[K, V any](src func(context.Context) iter.Seq2[K, V]) *Stream[K, V] {
	return &Stream[K, V]{src: src, pipe: core.NewPipe[K, V]()}
}

func seqSource[K, V any](seq iter.Seq2[K, V]) func(context.Context) iter.Seq2[K, V] {
	return func(context.Context) iter.Seq2[K, V] { return seq }
}

// From creates a Stream reading from a producer. A ContextProducer is read
// with the context of the run. A producer with an Err() error method reports
// it after the run, combined with the run error.
func From[K, V any](p Producer[K, V]) *Stream[K, V] {
	if p == nil {
		return failed[K, V](core.InvalidArgument("nil producer"))
	}
	s := newStream(func(context.Context) iter.Seq2[K, V] { return p.All() })
	if cp, ok := p.(core.ContextProducer[K, V]); ok {
		s.src = cp.AllContext
	}
	if c, ok := p.(core.Counted); ok {
		s.counted = c
	}
	if e, ok := p.(interface{ Err() error }); ok {
		s.srcErr = e.Err
	}
	return s
}

// FromSeq2 creates a Stream over a sequence of pairs.
func FromSeq2[K, V any](seq iter.Seq2[K, V]) *Stream[K, V] {
	if seq == nil {
		return failed[K, V](core.InvalidArgument("nil sequence"))
	}
	return newStream(seqSource(seq))
}

// FromSeq creates a Stream over a sequence of values, keyed by position.
func FromSeq[V any](seq iter.Seq[V]) *Stream[int, V] {
	if seq == nil {
		return failed[int, V](core.InvalidArgument("nil sequence"))
	}
	return newStream(seqSource(func(yield func(int, V) bool) {
		i := 0
		for v := range seq {
			if !yield(i, v) {
				return
			}
			i++
		}
	}))
}

// FromSlice creates a Stream over the elements of a slice, keyed by index.
func FromSlice[V any](values []V) *Stream[int, V] {
	s := newStream(seqSource(slices.All(values)))
	s.counted = sliceLen(len(values))
	return s
}

// Of creates a Stream over its arguments, keyed by position.
func Of[V any](values ...V) *Stream[int, V] {
	return FromSlice(values)
}

// FromMap creates a Stream over the entries of a map, in map iteration order.
func FromMap[K comparable, V any](m map[K]V) *Stream[K, V] {
	s := newStream(seqSource(maps.All(m)))
	s.counted = sliceLen(len(m))
	return s
}

// New creates a Stream without a source. It is a prototype: feed it through
// Feeder, or use it as the per-class pipeline of Fork.
func New[K, V any]() *Stream[K, V] {
	return newStream[K, V](nil)
}

type sliceLen int

func (n sliceLen) Len() (int, bool) { return int(n), true }

func failed[K, V any](err error) *Stream[K, V] {
	s := newStream[K, V](nil)
	s.err = err
	return s
}

// Err returns the construction error, or the error of the last run started
// through Iter.
func (s *Stream[K, V]) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.runErr
}

// With adds run options.
func (s *Stream[K, V]) With(opts ...Option) *Stream[K, V] {
	s.opts = append(s.opts, opts...)
	return s
}

// Then appends an operation. Operations created linked to helper nodes
// (the read-ahead family) are appended together with them.
func (s *Stream[K, V]) Then(o Operation[K, V]) *Stream[K, V] {
	if o == nil {
		return s.then(nil, core.InvalidArgument("nil operation"))
	}
	return s.then(o, nil)
}

func (s *Stream[K, V]) then(o Operation[K, V], err error) *Stream[K, V] {
	if s.err != nil {
		return s
	}
	if err != nil {
		s.err = err
		return s
	}
	if o.Next() != nil {
		err = s.pipe.AppendDirect(o)
	} else {
		err = s.pipe.Append(o)
	}
	if err != nil {
		s.err = err
	}
	return s
}

// Clone copies the stream before it runs. The copy shares the source and
// gets fresh operation state.
func (s *Stream[K, V]) Clone() (*Stream[K, V], error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.consumed {
		return nil, core.ErrStreamConsumed
	}
	if s.derived {
		return nil, core.InvalidArgument("a derived stream shares its upstream run and cannot be cloned")
	}
	pipe, err := s.pipe.Clone()
	if err != nil {
		return nil, err
	}
	return &Stream[K, V]{
		src:     s.src,
		srcErr:  s.srcErr,
		counted: s.counted,
		pipe:    pipe,
		opts:    slices.Clone(s.opts),
	}, nil
}

// Filter keeps the items matching pred.
func (s *Stream[K, V]) Filter(pred Predicate[K, V]) *Stream[K, V] {
	o, err := op.NewFilter(pred)
	return s.then(o, err)
}

// Omit drops the items matching pred.
func (s *Stream[K, V]) Omit(pred Predicate[K, V]) *Stream[K, V] {
	o, err := op.NewOmit(pred)
	return s.then(o, err)
}

// Map replaces values. An error returned by fn is handled by the error chain.
func (s *Stream[K, V]) Map(fn Mapper[K, V]) *Stream[K, V] {
	o, err := op.NewMap(fn)
	return s.then(o, err)
}

// MapKey replaces keys.
func (s *Stream[K, V]) MapKey(fn KeyMapper[K, V]) *Stream[K, V] {
	o, err := op.NewMapKey(fn)
	return s.then(o, err)
}

// Tap calls fn for each item.
func (s *Stream[K, V]) Tap(fn Consumer[K, V]) *Stream[K, V] {
	o, err := op.NewTap(fn)
	return s.then(o, err)
}

// Skip drops the first n items.
func (s *Stream[K, V]) Skip(n int) *Stream[K, V] {
	o, err := op.NewSkip[K, V](n)
	return s.then(o, err)
}

// SkipWhile drops items while pred holds.
func (s *Stream[K, V]) SkipWhile(pred Predicate[K, V]) *Stream[K, V] {
	o, err := op.NewSkipWhile(pred)
	return s.then(o, err)
}

// Limit keeps at most n items and stops reading the source after them.
func (s *Stream[K, V]) Limit(n int) *Stream[K, V] {
	o, err := op.NewLimit[K, V](n)
	return s.then(o, err)
}

// Until stops at the first item matching pred, which is kept when inclusive.
func (s *Stream[K, V]) Until(pred Predicate[K, V], inclusive bool) *Stream[K, V] {
	o, err := op.NewUntil(pred, inclusive)
	return s.then(o, err)
}

// Sort orders items with a stable sort.
func (s *Stream[K, V]) Sort(cmp ItemComparator[K, V]) *Stream[K, V] {
	o, err := op.NewSort(cmp)
	return s.then(o, err)
}

// SortBy orders items by value.
func (s *Stream[K, V]) SortBy(cmp Comparator[V]) *Stream[K, V] {
	if cmp == nil {
		return s.then(nil, core.InvalidArgument("sort needs a comparator"))
	}
	return s.Sort(core.ByValue[K](cmp))
}

// SortLimited keeps the limit first items under cmp, in order.
func (s *Stream[K, V]) SortLimited(limit int, cmp ItemComparator[K, V]) *Stream[K, V] {
	o, err := op.NewSortLimited(limit, cmp)
	return s.then(o, err)
}

// Reverse releases items last first.
func (s *Stream[K, V]) Reverse() *Stream[K, V] {
	return s.then(op.NewReverse[K, V](), nil)
}

// Tail keeps the last n items.
func (s *Stream[K, V]) Tail(n int) *Stream[K, V] {
	o, err := op.NewTail[K, V](n)
	return s.then(o, err)
}

// Unique drops the items checker has already seen.
func (s *Stream[K, V]) Unique(checker unique.Checker[Item[K, V]]) *Stream[K, V] {
	o, err := op.NewUnique(checker)
	return s.then(o, err)
}

// UniqueValues drops items whose value was already seen.
func (s *Stream[K, V]) UniqueValues() *Stream[K, V] {
	return s.Unique(unique.ByValue[K, V](unique.NewHashed[V]()))
}

// UniqueKeys drops items whose key was already seen.
func (s *Stream[K, V]) UniqueKeys() *Stream[K, V] {
	return s.Unique(unique.ByKey[K, V](unique.NewHashed[K]()))
}

// Into stores each item into c and passes it on.
func (s *Stream[K, V]) Into(c Collector[K, V]) *Stream[K, V] {
	o, err := op.NewInto(c)
	return s.then(o, err)
}

// ReadMany passes each item reaching it and hands the following n-1 source
// items straight to the rest of the chain.
func (s *Stream[K, V]) ReadMany(n int) *Stream[K, V] {
	o, err := op.NewReadMany[K, V](n)
	return s.then(o, err)
}

// ReadNext passes each item reaching it and drops the following n source items.
func (s *Stream[K, V]) ReadNext(n int) *Stream[K, V] {
	o, err := op.NewReadNext[K, V](n)
	return s.then(o, err)
}

// ReadWhile passes each item reaching it and reads following source items
// directly while pred holds.
func (s *Stream[K, V]) ReadWhile(pred Predicate[K, V], consume bool) *Stream[K, V] {
	o, err := op.NewReadWhile(pred, consume)
	return s.then(o, err)
}

// ReadUntil passes each item reaching it and reads following source items
// directly until pred matches.
func (s *Stream[K, V]) ReadUntil(pred Predicate[K, V], consume bool) *Stream[K, V] {
	o, err := op.NewReadUntil(pred, consume)
	return s.then(o, err)
}

// Feed copies each item into the given feeders, which are closed when the
// run finishes.
func (s *Stream[K, V]) Feed(targets ...*Feeder[K, V]) *Stream[K, V] {
	o, err := op.NewFeed(targets...)
	return s.then(o, err)
}

// Dispatch routes each item to the feeder of its class and passes it on.
func Dispatch[K, V any, D comparable](s *Stream[K, V], disc Discriminator[K, V, D], routes map[D]*Feeder[K, V]) *Stream[K, V] {
	o, err := op.NewDispatch(disc, routes)
	return s.then(o, err)
}
