package flow

import (
	"context"
	"iter"
	"slices"

	"go.uber.org/multierr"

	"github.com/lguimbarda/kvflow/flow/core"
)

// A shape turns the sequence of an upstream stream into the source of a
// stream of another shape. The returned func reports the error of the
// stage itself once its sequence is exhausted; it may be nil.
type shape[K, V, K2, V2 any] func(ctx context.Context, in iter.Seq2[K, V]) (iter.Seq2[K2, V2], func() error)

// derive creates a stream whose source is s run through st. The upstream
// run happens when the derived stream runs, and its error is combined with
// the derived one. Runs nested this way do not invoke the hooks of the
// derived run's context.
func derive[K, V, K2, V2 any](s *Stream[K, V], st shape[K, V, K2, V2]) *Stream[K2, V2] {
	if s == nil {
		return failed[K2, V2](core.InvalidArgument("nil stream"))
	}
	if s.err != nil {
		return failed[K2, V2](s.err)
	}
	var stageErr func() error
	out := newStream(func(ctx context.Context) iter.Seq2[K2, V2] {
		inner := core.WithoutHooks(ctx)
		seq, errf := st(inner, s.Iter(inner))
		stageErr = errf
		return seq
	})
	out.srcErr = func() error {
		err := s.Err()
		if stageErr != nil {
			err = multierr.Append(err, stageErr())
		}
		return err
	}
	out.derived = true
	return out
}

// Chunk groups consecutive values into slices of size values, keyed by
// chunk number. The last chunk may be shorter.
func Chunk[K, V any](s *Stream[K, V], size int) *Stream[int, []V] {
	if size < 1 {
		return failed[int, []V](core.InvalidArgument("chunk size must be positive, got %d", size))
	}
	return derive(s, func(_ context.Context, in iter.Seq2[K, V]) (iter.Seq2[int, []V], func() error) {
		return func(yield func(int, []V) bool) {
			n := 0
			chunk := make([]V, 0, size)
			for _, v := range in {
				chunk = append(chunk, v)
				if len(chunk) < size {
					continue
				}
				if !yield(n, chunk) {
					return
				}
				n++
				chunk = make([]V, 0, size)
			}
			if len(chunk) > 0 {
				yield(n, chunk)
			}
		}, nil
	})
}

// Window yields every full window of size consecutive values, starting a
// new window each step values. A step larger than size skips values between
// windows. Windows are keyed by window number.
func Window[K, V any](s *Stream[K, V], size, step int) *Stream[int, []V] {
	if size < 1 || step < 1 {
		return failed[int, []V](core.InvalidArgument("window size and step must be positive, got %d and %d", size, step))
	}
	return derive(s, func(_ context.Context, in iter.Seq2[K, V]) (iter.Seq2[int, []V], func() error) {
		return func(yield func(int, []V) bool) {
			n, skip := 0, 0
			buf := make([]V, 0, size)
			for _, v := range in {
				if skip > 0 {
					skip--
					continue
				}
				buf = append(buf, v)
				if len(buf) < size {
					continue
				}
				if !yield(n, slices.Clone(buf)) {
					return
				}
				n++
				if step >= size {
					skip = step - size
					buf = buf[:0]
				} else {
					buf = append(buf[:0], buf[step:]...)
				}
			}
		}, nil
	})
}

// Zip pairs the values of s with the values at the same position in others.
// Keys come from s and the stream ends with the shortest input.
func Zip[K, V any](s *Stream[K, V], others ...*Stream[K, V]) *Stream[K, []V] {
	for _, o := range others {
		if o == nil {
			return failed[K, []V](core.InvalidArgument("nil stream"))
		}
		if o.err != nil {
			return failed[K, []V](o.err)
		}
	}
	return derive(s, func(ctx context.Context, in iter.Seq2[K, V]) (iter.Seq2[K, []V], func() error) {
		seq := func(yield func(K, []V) bool) {
			nexts := make([]func() (K, V, bool), len(others))
			for i, o := range others {
				next, stop := iter.Pull2(o.Iter(ctx))
				defer stop()
				nexts[i] = next
			}
			for k, v := range in {
				row := make([]V, 1, len(others)+1)
				row[0] = v
				for _, next := range nexts {
					_, ov, ok := next()
					if !ok {
						return
					}
					row = append(row, ov)
				}
				if !yield(k, row) {
					return
				}
			}
		}
		errf := func() error {
			var err error
			for _, o := range others {
				err = multierr.Append(err, o.Err())
			}
			return err
		}
		return seq, errf
	})
}

// Flat yields every element of every slice value, keeping the key of the
// slice it came from.
func Flat[K, V any](s *Stream[K, []V]) *Stream[K, V] {
	return derive(s, func(_ context.Context, in iter.Seq2[K, []V]) (iter.Seq2[K, V], func() error) {
		return func(yield func(K, V) bool) {
			for k, values := range in {
				for _, v := range values {
					if !yield(k, v) {
						return
					}
				}
			}
		}, nil
	})
}

// Reindex replaces keys with positions 0, 1, 2...
func Reindex[K, V any](s *Stream[K, V]) *Stream[int, V] {
	return derive(s, func(_ context.Context, in iter.Seq2[K, V]) (iter.Seq2[int, V], func() error) {
		return func(yield func(int, V) bool) {
			i := 0
			for _, v := range in {
				if !yield(i, v) {
					return
				}
				i++
			}
		}, nil
	})
}

// Transform maps every item to an item of other types. Errors returned by
// fn go through the error chain configured on s: Continue drops the item,
// Abort ends the stream quietly and an unhandled error ends it with an
// *ItemError.
func Transform[K, V, K2, V2 any](s *Stream[K, V], fn func(value V, key K) (K2, V2, error)) *Stream[K2, V2] {
	if fn == nil {
		return failed[K2, V2](core.InvalidArgument("nil transform"))
	}
	var opts []core.Option
	if s != nil {
		opts = s.opts
	}
	return derive(s, func(ctx context.Context, in iter.Seq2[K, V]) (iter.Seq2[K2, V2], func() error) {
		chain := core.NewRunConfig(ctx, opts...).Errors
		var failure error
		seq := func(yield func(K2, V2) bool) {
			for k, v := range in {
				var k2 K2
				var v2 V2
				var ferr error
				err := core.Catch(func() { k2, v2, ferr = fn(v, k) })
				if err == nil {
					err = ferr
				}
				if err != nil {
					switch chain.HandleError(err, k, v) {
					case core.Continue:
						continue
					case core.Abort:
						return
					default:
						failure = &core.ItemError{Err: err, Key: k, Value: v}
						return
					}
				}
				if !yield(k2, v2) {
					return
				}
			}
		}
		return seq, func() error { return failure }
	})
}

// MapTo maps values to another type, keeping keys.
func MapTo[K, V, V2 any](s *Stream[K, V], fn func(value V, key K) (V2, error)) *Stream[K, V2] {
	if fn == nil {
		return failed[K, V2](core.InvalidArgument("nil mapper"))
	}
	return Transform(s, func(v V, k K) (K, V2, error) {
		v2, err := fn(v, k)
		return k, v2, err
	})
}

// MapKeyTo maps keys to another type, keeping values.
func MapKeyTo[K, V, K2 any](s *Stream[K, V], fn func(value V, key K) (K2, error)) *Stream[K2, V] {
	if fn == nil {
		return failed[K2, V](core.InvalidArgument("nil key mapper"))
	}
	return Transform(s, func(v V, k K) (K2, V, error) {
		k2, err := fn(v, k)
		return k2, v, err
	})
}

// Fork splits s by the class disc assigns to each item. Every class gets its
// own copy of the prototype chain, created with New and never run itself;
// once s is exhausted the stream yields one (class, items) pair per class,
// in order of first appearance. A discriminator failure goes through the
// error chain configured on s.
func Fork[K, V any, D comparable](s *Stream[K, V], disc Discriminator[K, V, D], proto *Stream[K, V]) *Stream[D, []Item[K, V]] {
	switch {
	case disc == nil:
		return failed[D, []Item[K, V]](core.InvalidArgument("nil discriminator"))
	case proto == nil:
		return failed[D, []Item[K, V]](core.InvalidArgument("nil prototype"))
	case proto.err != nil:
		return failed[D, []Item[K, V]](proto.err)
	case proto.src != nil:
		return failed[D, []Item[K, V]](core.InvalidArgument("prototype must not have a source"))
	}

	type branch struct {
		feeder *core.Feeder[K, V]
		items  []Item[K, V]
	}
	var opts []core.Option
	if s != nil {
		opts = s.opts
	}
	return derive(s, func(ctx context.Context, in iter.Seq2[K, V]) (iter.Seq2[D, []Item[K, V]], func() error) {
		chain := core.NewRunConfig(ctx, opts...).Errors
		var errs error
		seq := func(yield func(D, []Item[K, V]) bool) {
			branches := make(map[D]*branch)
			var order []D
			open := func(class D) (*branch, error) {
				pipe, err := proto.pipe.Clone()
				if err != nil {
					return nil, err
				}
				b := &branch{}
				b.feeder, err = core.NewFeeder(ctx, pipe, core.NewRunConfig(ctx, proto.opts...), func(k K, v V) bool {
					b.items = append(b.items, core.NewItem(k, v))
					return true
				})
				if err != nil {
					return nil, err
				}
				branches[class] = b
				order = append(order, class)
				return b, nil
			}

		read:
			for k, v := range in {
				class, err := disc.Classify(v, k)
				if err != nil {
					switch chain.HandleError(err, k, v) {
					case core.Continue:
						continue
					case core.Abort:
						break read
					default:
						errs = &core.ItemError{Err: err, Key: k, Value: v}
						break read
					}
				}
				b, ok := branches[class]
				if !ok {
					if b, err = open(class); err != nil {
						errs = err
						break read
					}
				}
				b.feeder.Feed(k, v)
			}
			for _, class := range order {
				errs = multierr.Append(errs, branches[class].feeder.Close())
			}
			if errs != nil {
				return
			}
			for _, class := range order {
				if !yield(class, branches[class].items) {
					return
				}
			}
		}
		return seq, func() error { return errs }
	})
}
