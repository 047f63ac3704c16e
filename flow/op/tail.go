package op

import (
	"iter"

	"github.com/lguimbarda/kvflow/flow/core"
	"github.com/lguimbarda/kvflow/flow/state"
	"github.com/lguimbarda/kvflow/flow/unique"
)

// Tail keeps the last n items and releases them in their original order
// once the source is exhausted.
type Tail[K, V any] struct {
	core.Base[K, V]
	ring *state.Ring[core.Item[K, V]]
}

// NewTail creates a Tail operation.
func NewTail[K, V any](n int) (*Tail[K, V], error) {
	ring, err := state.NewRing[core.Item[K, V]](n)
	if err != nil {
		return nil, err
	}
	return &Tail[K, V]{ring: ring}, nil
}

// Length returns the size of the window.
func (t *Tail[K, V]) Length() int { return t.ring.Cap() }

// SetLength resizes the window, keeping the most recent items.
func (t *Tail[K, V]) SetLength(n int) error { return t.ring.SetLength(n) }

func (t *Tail[K, V]) Handle(sig *core.Signal[K, V]) {
	t.ring.Push(sig.Item.Copy())
}

func (t *Tail[K, V]) Finish(sig *core.Signal[K, V]) bool {
	items := t.ring.Items()
	t.ring.Clear()
	return release(sig, t, items)
}

func (t *Tail[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			t.ring.Push(core.NewItem(key, value))
		}
		if !sig.Running() {
			return
		}
		items := t.ring.Items()
		t.ring.Clear()
		for _, it := range items {
			if !yield(it.Key, it.Value) {
				return
			}
		}
	}
}

func (t *Tail[K, V]) Clone() core.Operation[K, V] {
	c, err := NewTail[K, V](t.ring.Cap())
	if err != nil {
		core.Fail("clone tail: %v", err)
	}
	return c
}

func (t *Tail[K, V]) Destroy() { t.ring.Destroy() }

// Unique passes the first item of every group of duplicates, as decided by
// its checker. A checker that panics fails the item.
type Unique[K, V any] struct {
	core.Base[K, V]
	checker unique.Checker[core.Item[K, V]]
}

// NewUnique creates a Unique operation.
func NewUnique[K, V any](checker unique.Checker[core.Item[K, V]]) (*Unique[K, V], error) {
	if checker == nil {
		return nil, core.InvalidArgument("unique needs a checker")
	}
	return &Unique[K, V]{checker: checker}, nil
}

// admit checks it and remembers it when it is new.
func (u *Unique[K, V]) admit(it core.Item[K, V]) (fresh bool, err error) {
	err = core.Catch(func() {
		if fresh = u.checker.Check(it); fresh {
			u.checker.Remember(it)
		}
	})
	return fresh, err
}

func (u *Unique[K, V]) Handle(sig *core.Signal[K, V]) {
	fresh, err := u.admit(sig.Item.Copy())
	if err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	if fresh {
		u.Forward(sig)
	}
}

func (u *Unique[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			fresh, err := u.admit(core.NewItem(key, value))
			if err != nil {
				if sig.Fail(err, key, value) {
					continue
				}
				return
			}
			if fresh && !yield(key, value) {
				return
			}
		}
	}
}

func (u *Unique[K, V]) Clone() core.Operation[K, V] {
	return &Unique[K, V]{checker: u.checker.Clone()}
}

func (u *Unique[K, V]) Destroy() { u.checker.Destroy() }
