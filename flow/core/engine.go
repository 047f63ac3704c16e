package core

import (
	"context"
	"iter"
)

// resolveMode picks the strategy of a run: pull composition when every node
// is Streamable, push dispatch otherwise.
func resolveMode[K, V any](pipe *Pipe[K, V], requested Mode) (Mode, error) {
	streamable := true
	for op := range pipe.All() {
		if _, ok := op.(Streamable[K, V]); !ok {
			streamable = false
			break
		}
	}
	switch requested {
	case ModePush:
		return ModePush, nil
	case ModePull:
		if !streamable {
			return ModePull, InvalidArgument("chain holds operations that require push mode")
		}
		return ModePull, nil
	default:
		if streamable {
			return ModePull, nil
		}
		return ModePush, nil
	}
}

// Run executes pipe over source. Every item that reaches the end of the chain
// is handed to emit; returning false from emit ends the run early. A chain
// runs once and is destroyed when Run returns.
//
// The returned error is nil on success (including an aborted run), ctx.Err()
// on cancellation, or an *ItemError when a per-item error escalated out of
// the error handler chain.
func Run[K, V any](ctx context.Context, pipe *Pipe[K, V], source iter.Seq2[K, V], cfg RunConfig, emit func(K, V) bool) (err error) {
	if err := pipe.start(); err != nil {
		return err
	}
	sig := newSignal(ctx, pipe, cfg, emit)
	defer sig.release()

	mode, err := resolveMode(pipe, cfg.Mode)
	if err != nil {
		return err
	}
	sig.mode = mode

	sig.hooks.invokeStart(mode)
	defer func() {
		sig.hooks.invokeComplete(err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	if mode == ModePull {
		runPull(sig, source)
	} else {
		sig.drain(source)
		if err := ctx.Err(); err != nil && sig.state == stateRunning {
			sig.terminate(err)
		}
		sig.flush()
	}
	return sig.err
}

// runPull composes the Build transformation of every node into one lazy
// sequence and consumes it.
func runPull[K, V any](sig *Signal[K, V], source iter.Seq2[K, V]) {
	defer func() {
		if r := recover(); r != nil {
			sig.terminate(sig.recovered(r))
		}
	}()
	seq := guarded(sig, source)
	for op := range sig.pipe.All() {
		seq = op.(Streamable[K, V]).Build(sig, seq)
	}
	for key, value := range seq {
		if !sig.emitPair(key, value) {
			sig.Stop()
			return
		}
	}
}

// guarded wraps the source so that cancellation and stop requests end the
// composed sequence.
func guarded[K, V any](sig *Signal[K, V], source iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if source == nil {
			return
		}
		for key, value := range source {
			if err := sig.ctx.Err(); err != nil {
				sig.terminate(err)
				return
			}
			if sig.state != stateRunning || !yield(key, value) {
				return
			}
		}
		// A source may end early because the run was cancelled.
		if err := sig.ctx.Err(); err != nil {
			sig.terminate(err)
		}
	}
}

// Feeder drives a chain that has no source of its own: items are pushed one
// at a time with Feed, and Close runs the finish phase. Feeders always use
// push dispatch and own their Signal.
type Feeder[K, V any] struct {
	sig     *Signal[K, V]
	started bool
	closed  bool
}

// NewFeeder starts a push-driven run over pipe. Items leaving the chain are
// handed to emit, which may be nil.
func NewFeeder[K, V any](ctx context.Context, pipe *Pipe[K, V], cfg RunConfig, emit func(K, V) bool) (*Feeder[K, V], error) {
	if err := pipe.start(); err != nil {
		return nil, err
	}
	sig := newSignal(ctx, pipe, cfg, emit)
	sig.mode = ModePush
	return &Feeder[K, V]{sig: sig}, nil
}

// start invokes OnStart once, when the first item is fed or at Close.
func (f *Feeder[K, V]) start() {
	if !f.started {
		f.started = true
		f.sig.hooks.invokeStart(ModePush)
	}
}

// Nest makes the feeder part of the run it is fed from: hooks attached to
// the feeder's context are not invoked anymore. It has no effect once an
// item was fed.
func (f *Feeder[K, V]) Nest() {
	if !f.started {
		f.started = true
		f.sig.hooks = &hookInvoker[K, V]{}
	}
}

// Feed pushes one pair through the chain. It returns false once the chain
// does not accept items anymore (stopped, limit reached, failed or closed).
func (f *Feeder[K, V]) Feed(key K, value V) bool {
	if f.closed || f.sig.state != stateRunning {
		return false
	}
	f.start()
	if err := f.sig.ctx.Err(); err != nil {
		f.sig.terminate(err)
		return false
	}
	f.sig.Item.Key, f.sig.Item.Value = key, value
	f.sig.dispatch()
	return f.sig.state == stateRunning
}

// Accepting reports whether Feed would still dispatch an item.
func (f *Feeder[K, V]) Accepting() bool {
	return !f.closed && f.sig.state == stateRunning
}

// Close flushes buffered items, destroys the chain and returns the run's
// error. Calling Close again returns the same error.
func (f *Feeder[K, V]) Close() error {
	if f.closed {
		return f.sig.err
	}
	f.closed = true
	f.start()
	f.sig.flush()
	f.sig.release()
	f.sig.hooks.invokeComplete(f.sig.err)
	return f.sig.err
}
