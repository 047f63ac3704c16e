// Package state holds the bounded buffers used by stateful operations:
// a comparator-driven priority queue, bounded top-K maintenance and a
// circular tail window. Each buffer is a small state machine whose
// transitions are one-directional unless the caller resizes it.
package state

import (
	"container/heap"

	"github.com/lguimbarda/kvflow/flow/core"
)

// PriorityQueue is a max-priority queue: Top returns the element that sorts
// last under the comparator.
type PriorityQueue[T any] struct {
	h maxHeap[T]
}

// NewPriorityQueue creates an empty queue ordered by cmp.
func NewPriorityQueue[T any](cmp core.Comparator[T]) *PriorityQueue[T] {
	return &PriorityQueue[T]{h: maxHeap[T]{cmp: cmp}}
}

// Len returns the number of queued elements.
func (q *PriorityQueue[T]) Len() int { return len(q.h.items) }

// Push adds v.
func (q *PriorityQueue[T]) Push(v T) { heap.Push(&q.h, v) }

// Top returns the greatest element without removing it.
func (q *PriorityQueue[T]) Top() (T, bool) {
	if len(q.h.items) == 0 {
		var zero T
		return zero, false
	}
	return q.h.items[0], true
}

// Pop removes and returns the greatest element.
func (q *PriorityQueue[T]) Pop() (T, bool) {
	if len(q.h.items) == 0 {
		var zero T
		return zero, false
	}
	return heap.Pop(&q.h).(T), true
}

// ReplaceTop swaps the greatest element for v in O(log n).
func (q *PriorityQueue[T]) ReplaceTop(v T) {
	if len(q.h.items) == 0 {
		q.Push(v)
		return
	}
	q.h.items[0] = v
	heap.Fix(&q.h, 0)
}

// Items returns the queued elements in heap order.
func (q *PriorityQueue[T]) Items() []T {
	out := make([]T, len(q.h.items))
	copy(out, q.h.items)
	return out
}

// Clear empties the queue.
func (q *PriorityQueue[T]) Clear() {
	clear(q.h.items)
	q.h.items = q.h.items[:0]
}

type maxHeap[T any] struct {
	items []T
	cmp   core.Comparator[T]
}

func (h *maxHeap[T]) Len() int           { return len(h.items) }
func (h *maxHeap[T]) Less(i, j int) bool { return h.cmp(h.items[i], h.items[j]) > 0 }
func (h *maxHeap[T]) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *maxHeap[T]) Push(x any)         { h.items = append(h.items, x.(T)) }

func (h *maxHeap[T]) Pop() any {
	n := len(h.items) - 1
	v := h.items[n]
	var zero T
	h.items[n] = zero
	h.items = h.items[:n]
	return v
}
