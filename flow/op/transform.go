package op

import (
	"iter"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Map replaces the value of each item.
type Map[K, V any] struct {
	core.Base[K, V]
	fn core.Mapper[K, V]
}

// NewMap creates a Map operation. An error returned by fn is a per-item
// error handled by the error chain.
func NewMap[K, V any](fn core.Mapper[K, V]) (*Map[K, V], error) {
	if fn == nil {
		return nil, core.InvalidArgument("map needs a mapper")
	}
	return &Map[K, V]{fn: fn}, nil
}

func (m *Map[K, V]) Handle(sig *core.Signal[K, V]) {
	out, err := m.fn.Map(sig.Item.Value, sig.Item.Key)
	if err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	sig.Item.Value = out
	m.Forward(sig)
}

func (m *Map[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			out, err := m.fn.Map(value, key)
			if err != nil {
				if sig.Fail(err, key, value) {
					continue
				}
				return
			}
			if !yield(key, out) {
				return
			}
		}
	}
}

func (m *Map[K, V]) Clone() core.Operation[K, V] { return &Map[K, V]{fn: m.fn} }

// MapKey replaces the key of each item.
type MapKey[K, V any] struct {
	core.Base[K, V]
	fn core.KeyMapper[K, V]
}

// NewMapKey creates a MapKey operation.
func NewMapKey[K, V any](fn core.KeyMapper[K, V]) (*MapKey[K, V], error) {
	if fn == nil {
		return nil, core.InvalidArgument("map key needs a key mapper")
	}
	return &MapKey[K, V]{fn: fn}, nil
}

func (m *MapKey[K, V]) Handle(sig *core.Signal[K, V]) {
	out, err := m.fn.Map(sig.Item.Value, sig.Item.Key)
	if err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	sig.Item.Key = out
	m.Forward(sig)
}

func (m *MapKey[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			out, err := m.fn.Map(value, key)
			if err != nil {
				if sig.Fail(err, key, value) {
					continue
				}
				return
			}
			if !yield(out, value) {
				return
			}
		}
	}
}

func (m *MapKey[K, V]) Clone() core.Operation[K, V] { return &MapKey[K, V]{fn: m.fn} }

// Tap calls a consumer for each item and passes the item on unchanged.
// If the consumer panics the item is handled as failed.
type Tap[K, V any] struct {
	core.Base[K, V]
	fn core.Consumer[K, V]
}

// NewTap creates a Tap operation.
func NewTap[K, V any](fn core.Consumer[K, V]) (*Tap[K, V], error) {
	if fn == nil {
		return nil, core.InvalidArgument("tap needs a consumer")
	}
	return &Tap[K, V]{fn: fn}, nil
}

func (t *Tap[K, V]) Handle(sig *core.Signal[K, V]) {
	if err := t.fn.Call(sig.Item.Value, sig.Item.Key); err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	t.Forward(sig)
}

func (t *Tap[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			if err := t.fn.Call(value, key); err != nil {
				if sig.Fail(err, key, value) {
					continue
				}
				return
			}
			if !yield(key, value) {
				return
			}
		}
	}
}

func (t *Tap[K, V]) Clone() core.Operation[K, V] { return &Tap[K, V]{fn: t.fn} }

// Into stores each item into a collector and passes it on. Clones share the
// collector.
type Into[K, V any] struct {
	core.Base[K, V]
	c core.Collector[K, V]
}

// NewInto creates an Into operation.
func NewInto[K, V any](c core.Collector[K, V]) (*Into[K, V], error) {
	if c == nil {
		return nil, core.InvalidArgument("into needs a collector")
	}
	return &Into[K, V]{c: c}, nil
}

func (i *Into[K, V]) Handle(sig *core.Signal[K, V]) {
	core.Collect(i.c, sig.Item.Key, sig.Item.Value)
	i.Forward(sig)
}

func (i *Into[K, V]) Build(_ *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			core.Collect(i.c, key, value)
			if !yield(key, value) {
				return
			}
		}
	}
}

func (i *Into[K, V]) Clone() core.Operation[K, V] { return &Into[K, V]{c: i.c} }
