package op

import (
	"github.com/lguimbarda/kvflow/flow/core"
)

// Read-ahead operations make the source items that follow a trigger item
// bypass the upstream part of the chain. Each of them is two physical nodes:
// the operation itself and a helper linked right behind it, which becomes
// the entry point of the run (Signal.SwapHead) while reading ahead. These
// operations need push mode.
//
// They are created already linked to their helper, so they go into a Pipe
// with AppendDirect.

// ahead is the helper node receiving source items while reading ahead.
type ahead[K, V any] struct {
	core.Base[K, V]
	owner   core.Operation[K, V]
	handle  func(a *ahead[K, V], sig *core.Signal[K, V])
	pending int
}

func (a *ahead[K, V]) Handle(sig *core.Signal[K, V]) { a.handle(a, sig) }

// AttachedTo returns the operation the helper belongs to.
func (a *ahead[K, V]) AttachedTo() any { return a.owner }

// Clone panics: the helper is recreated when its owner is cloned.
func (a *ahead[K, V]) Clone() core.Operation[K, V] {
	core.Fail("read-ahead helper cannot be cloned on its own")
	return nil
}

// ReadMany passes each item reaching it, then hands the following n-1
// source items straight to its successor.
type ReadMany[K, V any] struct {
	core.Base[K, V]
	n     int
	ahead *ahead[K, V]
}

// NewReadMany creates a ReadMany operation. n must be positive.
func NewReadMany[K, V any](n int) (*ReadMany[K, V], error) {
	if n < 1 {
		return nil, core.InvalidArgument("read many count must be positive, got %d", n)
	}
	r := &ReadMany[K, V]{n: n}
	r.ahead = &ahead[K, V]{owner: r, handle: passAhead[K, V]}
	core.Join[K, V](r, r.ahead)
	return r, nil
}

func (r *ReadMany[K, V]) Handle(sig *core.Signal[K, V]) {
	if r.n > 1 {
		r.ahead.pending = r.n - 1
		sig.SwapHead(r.ahead)
	}
	r.ahead.Forward(sig)
}

func (r *ReadMany[K, V]) Clone() core.Operation[K, V] {
	c, _ := NewReadMany[K, V](r.n)
	return c
}

func passAhead[K, V any](a *ahead[K, V], sig *core.Signal[K, V]) {
	a.pending--
	if a.pending == 0 {
		sig.RestoreHead()
	}
	a.Forward(sig)
}

// ReadNext passes each item reaching it, then reads the following n source
// items and drops them.
type ReadNext[K, V any] struct {
	core.Base[K, V]
	n     int
	ahead *ahead[K, V]
}

// NewReadNext creates a ReadNext operation.
func NewReadNext[K, V any](n int) (*ReadNext[K, V], error) {
	if n < 0 {
		return nil, core.InvalidArgument("read next count must not be negative, got %d", n)
	}
	r := &ReadNext[K, V]{n: n}
	r.ahead = &ahead[K, V]{owner: r, handle: dropAhead[K, V]}
	core.Join[K, V](r, r.ahead)
	return r, nil
}

func (r *ReadNext[K, V]) Handle(sig *core.Signal[K, V]) {
	if r.n > 0 {
		r.ahead.pending = r.n
		sig.SwapHead(r.ahead)
	}
	r.ahead.Forward(sig)
}

func (r *ReadNext[K, V]) Clone() core.Operation[K, V] {
	c, _ := NewReadNext[K, V](r.n)
	return c
}

func dropAhead[K, V any](a *ahead[K, V], sig *core.Signal[K, V]) {
	a.pending--
	if a.pending == 0 {
		sig.RestoreHead()
	}
}

// ReadWhile passes each item reaching it, then keeps reading source items
// directly while its predicate holds. The first item failing the predicate
// ends the read-ahead and is passed on, unless consume is set.
type ReadWhile[K, V any] struct {
	core.Base[K, V]
	pred    core.Predicate[K, V]
	consume bool
	ahead   *ahead[K, V]
}

// NewReadWhile creates a ReadWhile operation.
func NewReadWhile[K, V any](pred core.Predicate[K, V], consume bool) (*ReadWhile[K, V], error) {
	if pred == nil {
		return nil, core.InvalidArgument("read while needs a predicate")
	}
	r := &ReadWhile[K, V]{pred: pred, consume: consume}
	r.ahead = &ahead[K, V]{owner: r, handle: r.readAhead}
	core.Join[K, V](r, r.ahead)
	return r, nil
}

// NewReadUntil reads ahead until pred matches.
func NewReadUntil[K, V any](pred core.Predicate[K, V], consume bool) (*ReadWhile[K, V], error) {
	if pred == nil {
		return nil, core.InvalidArgument("read until needs a predicate")
	}
	return NewReadWhile(pred.Not(), consume)
}

func (r *ReadWhile[K, V]) Handle(sig *core.Signal[K, V]) {
	sig.SwapHead(r.ahead)
	r.ahead.Forward(sig)
}

func (r *ReadWhile[K, V]) readAhead(a *ahead[K, V], sig *core.Signal[K, V]) {
	ok, err := r.pred.Test(sig.Item.Value, sig.Item.Key)
	if err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	if ok {
		a.Forward(sig)
		return
	}
	sig.RestoreHead()
	if !r.consume {
		a.Forward(sig)
	}
}

func (r *ReadWhile[K, V]) Clone() core.Operation[K, V] {
	c, _ := NewReadWhile(r.pred, r.consume)
	return c
}
