package core

import (
	"context"
	"iter"
)

type runState int

const (
	stateRunning runState = iota
	stateLimited          // source reading ended by an operation, buffers still flush
	stateStopped          // run ended, nothing flushes
)

// Signal is the execution context of one run. It owns the live Item and the
// control primitives every operation can use. Nested runs (sub-streams)
// always get their own Signal.
type Signal[K, V any] struct {
	Item Item[K, V]

	ctx   context.Context
	pipe  *Pipe[K, V]
	cfg   RunConfig
	mode  Mode
	hooks *hookInvoker[K, V]
	emit  func(K, V) bool

	head  Operation[K, V]
	heads []Operation[K, V]

	state     runState
	limiter   Operation[K, V]
	forgotten []Operation[K, V]

	restart   iter.Seq2[K, V]
	restartAt Operation[K, V]

	emitting bool
	err      error
}

func newSignal[K, V any](ctx context.Context, pipe *Pipe[K, V], cfg RunConfig, emit func(K, V) bool) *Signal[K, V] {
	return &Signal[K, V]{
		ctx:   ctx,
		pipe:  pipe,
		cfg:   cfg,
		hooks: newHookInvoker[K, V](ctx),
		emit:  emit,
		head:  pipe.Head(),
	}
}

// Context returns the context of the run.
func (s *Signal[K, V]) Context() context.Context { return s.ctx }

// Mode returns the strategy the run executes with.
func (s *Signal[K, V]) Mode() Mode { return s.mode }

// Running reports whether the run still accepts source items.
func (s *Signal[K, V]) Running() bool { return s.state == stateRunning }

// Err returns the error the run ended with, if any.
func (s *Signal[K, V]) Err() error { return s.err }

// Stop ends the run once the current push completes. No further item is
// dispatched and buffering operations are not flushed.
func (s *Signal[K, V]) Stop() {
	s.state = stateStopped
}

// LimitReached stops reading the source because op's bounding condition
// tripped. Operations behind op still get their Finish call, so buffered
// items downstream are released.
func (s *Signal[K, V]) LimitReached(op Operation[K, V]) {
	if s.state == stateStopped {
		return
	}
	s.state = stateLimited
	s.limiter = op
}

// Limiter returns the operation that called LimitReached, if any.
func (s *Signal[K, V]) Limiter() Operation[K, V] { return s.limiter }

// Forget removes op from the chain for the remainder of the run. It is used
// by operations whose effect is over, so later items go straight to op's
// successor. The caller may still forward the live item after forgetting.
func (s *Signal[K, V]) Forget(op Operation[K, V]) {
	if s.mode == ModePull {
		return
	}
	next := op.Next()
	s.pipe.Remove(op)
	s.forgotten = append(s.forgotten, op)
	if s.head == op {
		s.head = next
	}
	for i, h := range s.heads {
		if h == op {
			s.heads[i] = next
		}
	}
}

// SwapHead makes op the entry point for the following source items, until
// RestoreHead is called. Only one level of nesting is a supported contract.
func (s *Signal[K, V]) SwapHead(op Operation[K, V]) {
	s.heads = append(s.heads, s.head)
	s.head = op
}

// RestoreHead reverts the last SwapHead.
func (s *Signal[K, V]) RestoreHead() {
	if len(s.heads) == 0 {
		Fail("RestoreHead without SwapHead")
	}
	s.head = s.heads[len(s.heads)-1]
	s.heads = s.heads[:len(s.heads)-1]
}

// RestartWith is called from Finish by a buffering operation: the engine
// drains seq starting at from (usually the operation's successor) and
// continues the finish phase from there.
func (s *Signal[K, V]) RestartWith(seq iter.Seq2[K, V], from Operation[K, V]) {
	s.restart = seq
	s.restartAt = from
}

// Fail reports a per-item error raised while processing the pair (key,
// value). The error handler chain decides what happens next; Fail returns
// true when the error was recovered and the item should simply be dropped.
func (s *Signal[K, V]) Fail(err error, key K, value V) bool {
	d := s.cfg.Errors.HandleError(err, key, value)
	s.hooks.invokeError(err, key, value, d)
	switch d {
	case Continue:
		return true
	case Abort:
		s.state = stateStopped
	default:
		s.terminate(&ItemError{Err: err, Key: key, Value: value})
	}
	return false
}

// Terminate ends the run with err, bypassing the error handler chain. It is
// meant for errors that were already handled elsewhere, such as failures of
// sub-streams.
func (s *Signal[K, V]) Terminate(err error) {
	s.terminate(err)
}

func (s *Signal[K, V]) terminate(err error) {
	if s.err == nil {
		s.err = err
	}
	s.state = stateStopped
}

// emitLive hands the live item to the consumer of the run.
func (s *Signal[K, V]) emitLive() {
	if !s.emitPair(s.Item.Key, s.Item.Value) {
		s.Stop()
	}
}

func (s *Signal[K, V]) emitPair(key K, value V) bool {
	s.hooks.invokeItem(key, value)
	if s.emit == nil {
		return true
	}
	s.emitting = true
	ok := s.emit(key, value)
	s.emitting = false
	return ok
}

// recovered converts a recovered panic into an error. Panics raised by the
// consumer of the run (the body of a range loop) are not ours to handle and
// propagate unchanged.
func (s *Signal[K, V]) recovered(r any) error {
	if s.emitting {
		panic(r)
	}
	return asError(r)
}

// dispatch pushes the live item into the chain.
func (s *Signal[K, V]) dispatch() {
	defer func() {
		if r := recover(); r != nil {
			s.Fail(s.recovered(r), s.Item.Key, s.Item.Value)
		}
	}()
	s.head.Handle(s)
}

// drain pushes every pair of seq until it ends or the run leaves the running state.
func (s *Signal[K, V]) drain(seq iter.Seq2[K, V]) {
	if seq == nil {
		return
	}
	for key, value := range seq {
		if err := s.ctx.Err(); err != nil {
			s.terminate(err)
			return
		}
		s.Item.Key, s.Item.Value = key, value
		s.dispatch()
		if s.state != stateRunning {
			return
		}
	}
}

// flush runs the finish phase: Finish is called along the chain, and every
// restart requested by a buffering operation is drained before the phase
// resumes from the restarting point.
func (s *Signal[K, V]) flush() {
	for s.state != stateStopped {
		var start Operation[K, V]
		if s.state == stateLimited {
			start = s.limiter.Next()
		} else {
			if len(s.heads) > 0 {
				s.head = s.heads[0]
				s.heads = s.heads[:0]
			}
			start = s.head
		}
		if start == nil {
			return
		}

		s.restart, s.restartAt = nil, nil
		if !s.finishFrom(start) || s.restartAt == nil {
			return
		}

		s.state = stateRunning
		s.limiter = nil
		s.head = s.restartAt
		s.heads = s.heads[:0]
		s.drain(s.restart)
	}
}

func (s *Signal[K, V]) finishFrom(op Operation[K, V]) (restarted bool) {
	defer func() {
		if r := recover(); r != nil {
			s.terminate(s.recovered(r))
			restarted = false
		}
	}()
	return op.Finish(s)
}

// release destroys the chain together with the nodes forgotten during the run.
func (s *Signal[K, V]) release() {
	for _, op := range s.forgotten {
		op.Destroy()
	}
	s.forgotten = nil
	s.pipe.Destroy()
}
