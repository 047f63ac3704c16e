package aggregate

import (
	"context"
	"errors"

	"github.com/lguimbarda/kvflow/flow"
	"github.com/lguimbarda/kvflow/flow/core"
)

// The queries below stop the run at the first item that settles the answer.

// Any reports whether some item of s satisfies pred.
func Any[K, V any](ctx context.Context, s *flow.Stream[K, V], pred flow.Predicate[K, V]) (bool, error) {
	_, found, err := Find(ctx, s, pred)
	return found, err
}

// All reports whether every item of s satisfies pred. It is true for an
// empty stream.
func All[K, V any](ctx context.Context, s *flow.Stream[K, V], pred flow.Predicate[K, V]) (bool, error) {
	if pred == nil {
		return false, core.InvalidArgument("nil predicate")
	}
	_, found, err := Find(ctx, s, pred.Not())
	return !found && err == nil, err
}

// None reports whether no item of s satisfies pred.
func None[K, V any](ctx context.Context, s *flow.Stream[K, V], pred flow.Predicate[K, V]) (bool, error) {
	found, err := Any(ctx, s, pred)
	return !found && err == nil, err
}

// Find returns the first item of s satisfying pred.
func Find[K, V any](ctx context.Context, s *flow.Stream[K, V], pred flow.Predicate[K, V]) (flow.Item[K, V], bool, error) {
	it, err := s.Filter(pred).First(ctx)
	if errors.Is(err, flow.ErrEmptyStream) {
		return it, false, nil
	}
	return it, err == nil, err
}
