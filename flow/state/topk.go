package state

import (
	"slices"

	"github.com/lguimbarda/kvflow/flow/core"
)

// TopK keeps the K elements that sort first under a comparator, using
// bounded memory. Elements that compare equal keep their arrival order, so
// the result matches a stable full sort cut at K.
//
// TopK moves through three states: singleItem when K is 1 (a plain "best so
// far" slot), notFull while the queue grows towards K, and full once it holds
// K elements, where a new element only enters by replacing the current worst.
type TopK[T any] struct {
	limit int
	cmp   core.Comparator[ranked[T]]
	state topkState[T]

	best    ranked[T]
	hasBest bool
	queue   *PriorityQueue[ranked[T]]

	seq       uint64
	destroyed bool
}

type ranked[T any] struct {
	value T
	seq   uint64
}

type topkState[T any] interface {
	add(t *TopK[T], r ranked[T])
}

type singleItem[T any] struct{}
type notFull[T any] struct{}
type full[T any] struct{}

func (singleItem[T]) add(t *TopK[T], r ranked[T]) {
	if !t.hasBest || t.cmp(r, t.best) < 0 {
		t.best, t.hasBest = r, true
	}
}

func (notFull[T]) add(t *TopK[T], r ranked[T]) {
	t.queue.Push(r)
	if t.queue.Len() == t.limit {
		t.state = full[T]{}
	}
}

func (full[T]) add(t *TopK[T], r ranked[T]) {
	if worst, _ := t.queue.Top(); t.cmp(r, worst) < 0 {
		t.queue.ReplaceTop(r)
	}
}

// NewTopK creates a TopK keeping the limit smallest elements under cmp.
func NewTopK[T any](limit int, cmp core.Comparator[T]) (*TopK[T], error) {
	if limit < 1 {
		return nil, core.InvalidArgument("top-k limit must be positive, got %d", limit)
	}
	if cmp == nil {
		return nil, core.InvalidArgument("top-k needs a comparator")
	}
	t := &TopK[T]{
		cmp: func(a, b ranked[T]) int {
			if n := cmp(a.value, b.value); n != 0 {
				return n
			}
			switch {
			case a.seq < b.seq:
				return -1
			case a.seq > b.seq:
				return 1
			}
			return 0
		},
	}
	t.queue = NewPriorityQueue(t.cmp)
	t.resize(limit, nil)
	return t, nil
}

// Limit returns K.
func (t *TopK[T]) Limit() int { return t.limit }

// Add offers v.
func (t *TopK[T]) Add(v T) {
	t.check()
	r := ranked[T]{value: v, seq: t.seq}
	t.seq++
	t.state.add(t, r)
}

// Len returns the number of retained elements.
func (t *TopK[T]) Len() int {
	if _, ok := t.state.(singleItem[T]); ok {
		if t.hasBest {
			return 1
		}
		return 0
	}
	return t.queue.Len()
}

// SetLimit resizes the buffer. Shrinking discards the worst elements.
func (t *TopK[T]) SetLimit(limit int) error {
	t.check()
	if limit < 1 {
		return core.InvalidArgument("top-k limit must be positive, got %d", limit)
	}
	t.resize(limit, t.retained())
	return nil
}

// Result returns the retained elements in ascending comparator order.
func (t *TopK[T]) Result() []T {
	t.check()
	rs := t.retained()
	out := make([]T, len(rs))
	for i, r := range rs {
		out[i] = r.value
	}
	return out
}

// Reset empties the buffer but keeps the limit.
func (t *TopK[T]) Reset() {
	t.check()
	t.resize(t.limit, nil)
	t.seq = 0
}

// Destroy releases the buffer. Using a destroyed TopK is a logic error.
func (t *TopK[T]) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	t.queue = nil
	t.state = nil
	var zero ranked[T]
	t.best, t.hasBest = zero, false
}

// retained returns the kept elements sorted.
func (t *TopK[T]) retained() []ranked[T] {
	var rs []ranked[T]
	if _, ok := t.state.(singleItem[T]); ok {
		if t.hasBest {
			rs = []ranked[T]{t.best}
		}
	} else {
		rs = t.queue.Items()
	}
	slices.SortFunc(rs, t.cmp)
	return rs
}

// resize installs limit and reloads the buffer with sorted elements.
func (t *TopK[T]) resize(limit int, sorted []ranked[T]) {
	t.limit = limit
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	var zero ranked[T]
	t.best, t.hasBest = zero, false
	t.queue.Clear()

	if limit == 1 {
		t.state = singleItem[T]{}
		if len(sorted) > 0 {
			t.best, t.hasBest = sorted[0], true
		}
		return
	}
	for _, r := range sorted {
		t.queue.Push(r)
	}
	if t.queue.Len() == limit {
		t.state = full[T]{}
	} else {
		t.state = notFull[T]{}
	}
}

func (t *TopK[T]) check() {
	if t.destroyed {
		core.Fail("top-k buffer used after Destroy")
	}
}
