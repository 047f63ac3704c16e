package flowerrors

import (
	"context"

	"github.com/lguimbarda/kvflow/flow/core"
)

// The functions in this file observe errors through hooks. They see every
// per-item error together with the decision the handler chain made, but
// they never change that decision; use the handlers in handler.go for that.

// OnErrorDo attaches a hook calling fn for each per-item error of runs over
// Item[K, V].
func OnErrorDo[K, V any](ctx context.Context, fn func(err error, key K, value V, d core.Decision)) context.Context {
	return core.WithHooks(ctx, core.Hooks[K, V]{OnError: fn})
}

// WithErrorCounter attaches an error counting hook for runs over Item[K, V]
// and returns the counter. If predicate is nil, all errors are counted.
func WithErrorCounter[K, V any](ctx context.Context, predicate func(error) bool) (context.Context, *Counter) {
	counter := NewCounter(predicate)
	ctx = core.WithHooks(ctx, core.Hooks[K, V]{
		OnError: func(err error, _ K, _ V, _ core.Decision) {
			counter.HandleError(err, nil, nil)
		},
	})
	return ctx, counter
}

// WithErrorCollector attaches an error collecting hook for runs over
// Item[K, V] and returns the collector.
func WithErrorCollector[K, V any](ctx context.Context, opts ...CollectorOption) (context.Context, *Collector) {
	collector := NewCollector(opts...)
	ctx = core.WithHooks(ctx, core.Hooks[K, V]{
		OnError: func(err error, key K, value V, _ core.Decision) {
			collector.HandleError(err, key, value)
		},
	})
	return ctx, collector
}

// ResetOnItem clears the failure count of cb every time an item leaves a run
// over Item[K, V], so that the breaker only trips on consecutive failures.
func ResetOnItem[K, V any](ctx context.Context, cb *CircuitBreaker) context.Context {
	return core.WithHooks(ctx, core.Hooks[K, V]{
		OnItem: func(K, V) {
			if !cb.IsOpen() {
				cb.failureCount.Store(0)
			}
		},
	})
}
