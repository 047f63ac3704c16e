package core

import (
	"context"
)

// Hooks holds typed observation callbacks for runs over Item[K, V].
// All fields are optional - nil means no observation for that event.
// Hooks are invoked synchronously by the engine, so they should be fast.
type Hooks[K, V any] struct {
	OnStart    func(mode Mode)                             // Run begins, after the mode was resolved
	OnItem     func(key K, value V)                        // Item reached the end of the chain
	OnError    func(err error, key K, value V, d Decision) // Per-item error and the chain's decision
	OnComplete func(err error)                             // Run finished; err is the run's outcome
}

// hooksKey is unexported to prevent collisions with user context keys.
type hooksKey[K, V any] struct{}

// hooksContainer holds multiple hook sets for FIFO invocation. scope is the
// hook scope of the context the container was attached to.
type hooksContainer[K, V any] struct {
	hookSets []*Hooks[K, V]
	scope    int
}

// scopeKey marks contexts of runs nested inside another run.
type scopeKey struct{}

func hookScope(ctx context.Context) int {
	n, _ := ctx.Value(scopeKey{}).(int)
	return n
}

// WithoutHooks returns a context for a run nested inside another one, such
// as the upstream run of a derived stream. Hooks attached to ctx, of any
// type, are not invoked for runs using the returned context; hooks attached
// to the returned context are.
func WithoutHooks(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, hookScope(ctx)+1)
}

// WithHooks attaches typed hooks to the context.
// Multiple calls to WithHooks compose in FIFO order - hooks from earlier
// calls are invoked before hooks from later calls.
//
// Example:
//
//	ctx := core.WithHooks(ctx, core.Hooks[int, string]{
//	    OnItem: func(k int, v string) { log.Printf("%d => %s", k, v) },
//	})
func WithHooks[K, V any](ctx context.Context, hooks Hooks[K, V]) context.Context {
	if ctx == nil {
		panic("nil context")
	}

	existing := getHooksContainer[K, V](ctx)
	if existing == nil {
		return context.WithValue(ctx, hooksKey[K, V]{}, &hooksContainer[K, V]{
			hookSets: []*Hooks[K, V]{&hooks},
			scope:    hookScope(ctx),
		})
	}

	newContainer := &hooksContainer[K, V]{
		hookSets: make([]*Hooks[K, V], len(existing.hookSets)+1),
		scope:    existing.scope,
	}
	copy(newContainer.hookSets, existing.hookSets)
	newContainer.hookSets[len(existing.hookSets)] = &hooks

	return context.WithValue(ctx, hooksKey[K, V]{}, newContainer)
}

func getHooksContainer[K, V any](ctx context.Context) *hooksContainer[K, V] {
	if ctx == nil {
		return nil
	}
	if c, ok := ctx.Value(hooksKey[K, V]{}).(*hooksContainer[K, V]); ok && c.scope == hookScope(ctx) {
		return c
	}
	return nil
}

// hookInvoker caches which hook kinds exist to avoid repeated nil checks
// on the per-item path.
type hookInvoker[K, V any] struct {
	container   *hooksContainer[K, V]
	hasStart    bool
	hasItem     bool
	hasError    bool
	hasComplete bool
}

func newHookInvoker[K, V any](ctx context.Context) *hookInvoker[K, V] {
	container := getHooksContainer[K, V](ctx)
	if container == nil {
		return &hookInvoker[K, V]{}
	}

	invoker := &hookInvoker[K, V]{container: container}
	for _, h := range container.hookSets {
		if h.OnStart != nil {
			invoker.hasStart = true
		}
		if h.OnItem != nil {
			invoker.hasItem = true
		}
		if h.OnError != nil {
			invoker.hasError = true
		}
		if h.OnComplete != nil {
			invoker.hasComplete = true
		}
	}
	return invoker
}

func (h *hookInvoker[K, V]) invokeStart(mode Mode) {
	if !h.hasStart {
		return
	}
	for _, hooks := range h.container.hookSets {
		if hooks.OnStart != nil {
			hooks.OnStart(mode)
		}
	}
}

func (h *hookInvoker[K, V]) invokeItem(key K, value V) {
	if !h.hasItem {
		return
	}
	for _, hooks := range h.container.hookSets {
		if hooks.OnItem != nil {
			hooks.OnItem(key, value)
		}
	}
}

func (h *hookInvoker[K, V]) invokeError(err error, key K, value V, d Decision) {
	if !h.hasError {
		return
	}
	for _, hooks := range h.container.hookSets {
		if hooks.OnError != nil {
			hooks.OnError(err, key, value, d)
		}
	}
}

func (h *hookInvoker[K, V]) invokeComplete(err error) {
	if !h.hasComplete {
		return
	}
	for _, hooks := range h.container.hookSets {
		if hooks.OnComplete != nil {
			hooks.OnComplete(err)
		}
	}
}

// NewSafeHooks wraps every hook with panic recovery.
// If panicHandler is nil, panics are silently recovered.
func NewSafeHooks[K, V any](hooks Hooks[K, V], panicHandler func(any)) Hooks[K, V] {
	if panicHandler == nil {
		panicHandler = func(any) {}
	}
	guard := func() {
		if r := recover(); r != nil {
			panicHandler(r)
		}
	}

	var safe Hooks[K, V]
	if hooks.OnStart != nil {
		original := hooks.OnStart
		safe.OnStart = func(mode Mode) {
			defer guard()
			original(mode)
		}
	}
	if hooks.OnItem != nil {
		original := hooks.OnItem
		safe.OnItem = func(key K, value V) {
			defer guard()
			original(key, value)
		}
	}
	if hooks.OnError != nil {
		original := hooks.OnError
		safe.OnError = func(err error, key K, value V, d Decision) {
			defer guard()
			original(err, key, value, d)
		}
	}
	if hooks.OnComplete != nil {
		original := hooks.OnComplete
		safe.OnComplete = func(err error) {
			defer guard()
			original(err)
		}
	}
	return safe
}

// WithSafeHooks is a convenience function that wraps hooks with panic recovery
// before attaching them to the context.
func WithSafeHooks[K, V any](ctx context.Context, hooks Hooks[K, V], panicHandler func(any)) context.Context {
	return WithHooks(ctx, NewSafeHooks(hooks, panicHandler))
}
