package state

import "github.com/lguimbarda/kvflow/flow/core"

// Ring is a circular buffer keeping the last N elements pushed into it.
// While it fills up, elements are appended; once full, each push overwrites
// the oldest slot.
type Ring[T any] struct {
	buf       []T
	index     int
	length    int
	full      bool
	destroyed bool
}

// NewRing creates a ring holding at most length elements. A zero length ring
// keeps nothing.
func NewRing[T any](length int) (*Ring[T], error) {
	if length < 0 {
		return nil, core.InvalidArgument("ring length must not be negative, got %d", length)
	}
	return &Ring[T]{buf: make([]T, 0, length), length: length}, nil
}

// Cap returns the configured length.
func (r *Ring[T]) Cap() int { return r.length }

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int { return len(r.buf) }

// Push stores v, evicting the oldest element when the ring is full.
func (r *Ring[T]) Push(v T) {
	r.check()
	if r.length == 0 {
		return
	}
	if !r.full {
		r.buf = append(r.buf, v)
		r.index++
		if r.index == r.length {
			r.full = true
			r.index = 0
		}
		return
	}
	r.buf[r.index] = v
	r.index++
	if r.index == r.length {
		r.index = 0
	}
}

// Items returns the stored elements, oldest first.
func (r *Ring[T]) Items() []T {
	r.check()
	out := make([]T, 0, len(r.buf))
	if !r.full {
		return append(out, r.buf...)
	}
	out = append(out, r.buf[r.index:]...)
	return append(out, r.buf[:r.index]...)
}

// SetLength resizes the ring, keeping the most recent elements.
func (r *Ring[T]) SetLength(length int) error {
	r.check()
	if length < 0 {
		return core.InvalidArgument("ring length must not be negative, got %d", length)
	}
	items := r.Items()
	if len(items) > length {
		items = items[len(items)-length:]
	}
	r.buf = make([]T, len(items), length)
	copy(r.buf, items)
	r.length = length
	r.full = length > 0 && len(items) == length
	if r.full {
		r.index = 0
	} else {
		r.index = len(items)
	}
	return nil
}

// Clear empties the ring.
func (r *Ring[T]) Clear() {
	r.check()
	clear(r.buf)
	r.buf = r.buf[:0]
	r.index = 0
	r.full = false
}

// Destroy releases the buffer. Using a destroyed ring is a logic error.
func (r *Ring[T]) Destroy() {
	r.destroyed = true
	r.buf = nil
}

func (r *Ring[T]) check() {
	if r.destroyed {
		core.Fail("ring buffer used after Destroy")
	}
}
