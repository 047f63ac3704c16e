package flow

import (
	"context"
	"iter"

	"go.uber.org/multierr"

	"github.com/lguimbarda/kvflow/flow/core"
)

// run executes the stream once, handing every item that leaves the chain to
// emit. Errors reported by the source after the run are appended to the run
// error.
func (s *Stream[K, V]) run(ctx context.Context, emit func(K, V) bool) error {
	if s.err != nil {
		return s.err
	}
	if s.consumed {
		return core.ErrStreamConsumed
	}
	s.consumed = true
	if s.src == nil {
		s.pipe.Destroy()
		return core.InvalidArgument("stream has no source")
	}

	cfg := core.NewRunConfig(ctx, s.opts...)
	err := core.Run(ctx, s.pipe, s.src(ctx), cfg, emit)
	if s.srcErr != nil {
		err = multierr.Append(err, s.srcErr())
	}
	return err
}

// Iter returns the stream as a sequence. Ranging over it runs the stream;
// the outcome is available from Err once the loop ends.
func (s *Stream[K, V]) Iter(ctx context.Context) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		s.runErr = s.run(ctx, yield)
	}
}

// Run executes the stream and discards its output. It is useful for chains
// whose effect is in Tap, Into or Feed.
func (s *Stream[K, V]) Run(ctx context.Context) error {
	return s.run(ctx, func(K, V) bool { return true })
}

// ForEach calls fn for every item leaving the stream.
func (s *Stream[K, V]) ForEach(ctx context.Context, fn Consumer[K, V]) error {
	if fn == nil {
		return core.InvalidArgument("nil consumer")
	}
	return s.run(ctx, func(k K, v V) bool {
		fn(v, k)
		return true
	})
}

// Items collects every item leaving the stream.
func (s *Stream[K, V]) Items(ctx context.Context) ([]Item[K, V], error) {
	var items []Item[K, V]
	err := s.run(ctx, func(k K, v V) bool {
		items = append(items, core.NewItem(k, v))
		return true
	})
	return items, err
}

// Values collects the values leaving the stream.
func (s *Stream[K, V]) Values(ctx context.Context) ([]V, error) {
	var values []V
	err := s.run(ctx, func(_ K, v V) bool {
		values = append(values, v)
		return true
	})
	return values, err
}

// Keys collects the keys leaving the stream.
func (s *Stream[K, V]) Keys(ctx context.Context) ([]K, error) {
	var keys []K
	err := s.run(ctx, func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys, err
}

// First returns the first item leaving the stream and stops the run there.
// It returns ErrEmptyStream when nothing comes out.
func (s *Stream[K, V]) First(ctx context.Context) (Item[K, V], error) {
	var first Item[K, V]
	found := false
	err := s.run(ctx, func(k K, v V) bool {
		first = core.NewItem(k, v)
		found = true
		return false
	})
	if err != nil {
		return first, err
	}
	if !found {
		return first, core.ErrEmptyStream
	}
	return first, nil
}

// Count returns the number of items leaving the stream. A stream without
// operations over a source of known size is answered without iterating.
func (s *Stream[K, V]) Count(ctx context.Context) (int, error) {
	if s.err == nil && !s.consumed && s.counted != nil && s.pipe.Empty() {
		if n, ok := s.counted.Len(); ok {
			s.consumed = true
			s.pipe.Destroy()
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return n, nil
		}
	}
	n := 0
	err := s.run(ctx, func(K, V) bool {
		n++
		return true
	})
	return n, err
}

// Reduce feeds every value leaving the stream to r and returns its result.
// It returns ErrNoResult when r has nothing to report.
func (s *Stream[K, V]) Reduce(ctx context.Context, r Reducer[V]) (V, error) {
	var zero V
	if r == nil {
		return zero, core.InvalidArgument("nil reducer")
	}
	err := s.run(ctx, func(_ K, v V) bool {
		r.Consume(v)
		return true
	})
	if err != nil {
		return zero, err
	}
	if !r.HasResult() {
		return zero, core.ErrNoResult
	}
	return r.Result(), nil
}

// CollectInto stores every item leaving the stream into c.
func (s *Stream[K, V]) CollectInto(ctx context.Context, c Collector[K, V]) error {
	if c == nil {
		return core.InvalidArgument("nil collector")
	}
	return s.run(ctx, func(k K, v V) bool {
		core.Collect(c, k, v)
		return true
	})
}

// Cursor starts the stream behind an explicit iterator. The cursor must be
// closed if it is abandoned before Next returns false.
func (s *Stream[K, V]) Cursor(ctx context.Context) (*Cursor[K, V], error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.consumed {
		return nil, core.ErrStreamConsumed
	}
	return core.NewCursor(s.Iter(ctx), s.Err), nil
}

// Feeder starts a stream created with New. Items are pushed with Feed and
// the ones leaving the chain are handed to emit, which may be nil; Close
// flushes buffered operations and reports the run error.
func (s *Stream[K, V]) Feeder(ctx context.Context, emit func(K, V) bool) (*Feeder[K, V], error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.consumed {
		return nil, core.ErrStreamConsumed
	}
	if s.src != nil {
		return nil, core.InvalidArgument("stream already has a source")
	}
	s.consumed = true
	return core.NewFeeder(ctx, s.pipe, core.NewRunConfig(ctx, s.opts...), emit)
}

// Collect gathers the stream into a map. Later keys overwrite earlier ones.
func Collect[K comparable, V any](ctx context.Context, s *Stream[K, V]) (map[K]V, error) {
	c := core.NewMapCollector[K, V]()
	if err := s.CollectInto(ctx, c); err != nil {
		return nil, err
	}
	return c.Map, nil
}

// GroupBy gathers the stream into groups keyed by the class disc assigns to
// each item. Items keep their arrival order within a group. A discriminator
// failure goes through the error chain configured on s.
func GroupBy[K, V any, D comparable](ctx context.Context, s *Stream[K, V], disc Discriminator[K, V, D]) (map[D][]Item[K, V], error) {
	if disc == nil {
		return nil, core.InvalidArgument("nil discriminator")
	}
	if s == nil {
		return nil, core.InvalidArgument("nil stream")
	}
	chain := core.NewRunConfig(ctx, s.opts...).Errors
	groups := make(map[D][]Item[K, V])
	var classErr error
	err := s.run(ctx, func(k K, v V) bool {
		class, err := disc.Classify(v, k)
		if err != nil {
			switch chain.HandleError(err, k, v) {
			case core.Continue:
				return true
			case core.Abort:
				return false
			}
			classErr = &core.ItemError{Err: err, Key: k, Value: v}
			return false
		}
		groups[class] = append(groups[class], core.NewItem(k, v))
		return true
	})
	if err = multierr.Append(err, classErr); err != nil {
		return nil, err
	}
	return groups, nil
}
