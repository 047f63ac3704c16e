package unique

import "github.com/lguimbarda/kvflow/flow/core"

// ByValue checks items by their value only.
func ByValue[K, V any](values Checker[V]) Checker[core.Item[K, V]] {
	return &projected[K, V, V]{inner: values, pick: func(it core.Item[K, V]) V { return it.Value }}
}

// ByKey checks items by their key only.
func ByKey[K, V any](keys Checker[K]) Checker[core.Item[K, V]] {
	return &projected[K, V, K]{inner: keys, pick: func(it core.Item[K, V]) K { return it.Key }}
}

type projected[K, V, T any] struct {
	inner Checker[T]
	pick  func(core.Item[K, V]) T
}

func (p *projected[K, V, T]) Check(it core.Item[K, V]) bool { return p.inner.Check(p.pick(it)) }
func (p *projected[K, V, T]) Remember(it core.Item[K, V])   { p.inner.Remember(p.pick(it)) }
func (p *projected[K, V, T]) Reset()                        { p.inner.Reset() }
func (p *projected[K, V, T]) Destroy()                      { p.inner.Destroy() }

func (p *projected[K, V, T]) Clone() Checker[core.Item[K, V]] {
	return &projected[K, V, T]{inner: p.inner.Clone(), pick: p.pick}
}

// ValueAndKey lets an item through only when neither its value nor its key
// was seen. The key strategy is a clone of keys, so the two halves keep
// separate state even when the same checker is passed twice.
func ValueAndKey[K, V any](values Checker[V], keys Checker[K]) Checker[core.Item[K, V]] {
	return &composite[K, V]{values: values, keys: keys.Clone(), both: true}
}

// ValueOrKey lets an item through when its value or its key was not seen.
// Like ValueAndKey, it clones the key strategy.
func ValueOrKey[K, V any](values Checker[V], keys Checker[K]) Checker[core.Item[K, V]] {
	return &composite[K, V]{values: values, keys: keys.Clone()}
}

type composite[K, V any] struct {
	values Checker[V]
	keys   Checker[K]
	both   bool
}

func (c *composite[K, V]) Check(it core.Item[K, V]) bool {
	if c.both {
		return c.values.Check(it.Value) && c.keys.Check(it.Key)
	}
	return c.values.Check(it.Value) || c.keys.Check(it.Key)
}

// Remember records both halves of the item.
func (c *composite[K, V]) Remember(it core.Item[K, V]) {
	c.values.Remember(it.Value)
	c.keys.Remember(it.Key)
}

func (c *composite[K, V]) Clone() Checker[core.Item[K, V]] {
	return &composite[K, V]{values: c.values.Clone(), keys: c.keys.Clone(), both: c.both}
}

func (c *composite[K, V]) Reset() {
	c.values.Reset()
	c.keys.Reset()
}

func (c *composite[K, V]) Destroy() {
	c.values.Destroy()
	c.keys.Destroy()
}
