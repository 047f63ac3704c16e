package core

import "iter"

// Cursor turns a run into an explicit pull-style iterator. The run is
// suspended inside a coroutine (iter.Pull2) each time an item is ready and
// resumed on the next call to Next, preserving the state of every in-flight
// operation, whether the chain runs in pull or push mode.
//
// A Cursor must be closed when abandoned before exhaustion.
type Cursor[K, V any] struct {
	next  func() (K, V, bool)
	stop  func()
	err   func() error
	key   K
	value V
	done  bool
}

// NewCursor creates a cursor over seq. errf reports the outcome of the run
// once seq is exhausted; it may be nil.
func NewCursor[K, V any](seq iter.Seq2[K, V], errf func() error) *Cursor[K, V] {
	next, stop := iter.Pull2(seq)
	return &Cursor[K, V]{next: next, stop: stop, err: errf}
}

// Next advances to the following item and reports whether there is one.
func (c *Cursor[K, V]) Next() bool {
	if c.done {
		return false
	}
	key, value, ok := c.next()
	if !ok {
		c.done = true
		var zeroK K
		var zeroV V
		c.key, c.value = zeroK, zeroV
		return false
	}
	c.key, c.value = key, value
	return true
}

// Key returns the key of the current item.
func (c *Cursor[K, V]) Key() K { return c.key }

// Value returns the value of the current item.
func (c *Cursor[K, V]) Value() V { return c.value }

// Item returns a copy of the current item.
func (c *Cursor[K, V]) Item() Item[K, V] { return NewItem(c.key, c.value) }

// Err returns the error the run ended with.
func (c *Cursor[K, V]) Err() error {
	if c.err == nil {
		return nil
	}
	return c.err()
}

// Close abandons the run. It is safe to call more than once.
func (c *Cursor[K, V]) Close() {
	c.done = true
	c.stop()
}
