package op

import (
	"iter"
	"slices"

	"github.com/lguimbarda/kvflow/flow/core"
	"github.com/lguimbarda/kvflow/flow/state"
)

// replay yields buffered items in order.
func replay[K, V any](items []core.Item[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, it := range items {
			if !yield(it.Key, it.Value) {
				return
			}
		}
	}
}

// release restarts the run with items from the successor of op, or passes
// the finish call on when nothing was buffered.
func release[K, V any](sig *core.Signal[K, V], op core.Operation[K, V], items []core.Item[K, V]) bool {
	if len(items) == 0 {
		return op.Next().Finish(sig)
	}
	sig.RestartWith(replay(items), op.Next())
	return true
}

// Sort buffers every item and releases them in stable comparator order once
// the source is exhausted.
type Sort[K, V any] struct {
	core.Base[K, V]
	cmp core.ItemComparator[K, V]
	buf []core.Item[K, V]
}

// NewSort creates a Sort operation.
func NewSort[K, V any](cmp core.ItemComparator[K, V]) (*Sort[K, V], error) {
	if cmp == nil {
		return nil, core.InvalidArgument("sort needs a comparator")
	}
	return &Sort[K, V]{cmp: cmp}, nil
}

func (s *Sort[K, V]) Handle(sig *core.Signal[K, V]) {
	s.buf = append(s.buf, sig.Item.Copy())
}

func (s *Sort[K, V]) Finish(sig *core.Signal[K, V]) bool {
	items := s.buf
	s.buf = nil
	slices.SortStableFunc(items, s.cmp)
	return release(sig, s, items)
}

func (s *Sort[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		var items []core.Item[K, V]
		for key, value := range seq {
			items = append(items, core.NewItem(key, value))
		}
		if !sig.Running() {
			return
		}
		slices.SortStableFunc(items, s.cmp)
		for _, it := range items {
			if !yield(it.Key, it.Value) {
				return
			}
		}
	}
}

func (s *Sort[K, V]) Clone() core.Operation[K, V] { return &Sort[K, V]{cmp: s.cmp} }

func (s *Sort[K, V]) Destroy() { s.buf = nil }

// SortLimited keeps the limit items that sort first under its comparator,
// in bounded memory, and releases them in order once the source is
// exhausted. The result equals a stable full sort cut at limit.
type SortLimited[K, V any] struct {
	core.Base[K, V]
	cmp  core.ItemComparator[K, V]
	topk *state.TopK[core.Item[K, V]]
}

// NewSortLimited creates a SortLimited operation. limit must be positive.
func NewSortLimited[K, V any](limit int, cmp core.ItemComparator[K, V]) (*SortLimited[K, V], error) {
	if cmp == nil {
		return nil, core.InvalidArgument("sort limited needs a comparator")
	}
	topk, err := state.NewTopK(limit, core.Comparator[core.Item[K, V]](cmp))
	if err != nil {
		return nil, err
	}
	return &SortLimited[K, V]{cmp: cmp, topk: topk}, nil
}

// Limit returns the number of items kept.
func (s *SortLimited[K, V]) Limit() int { return s.topk.Limit() }

// SetLimit changes the number of items kept.
func (s *SortLimited[K, V]) SetLimit(limit int) error { return s.topk.SetLimit(limit) }

func (s *SortLimited[K, V]) Handle(sig *core.Signal[K, V]) {
	s.topk.Add(sig.Item.Copy())
}

func (s *SortLimited[K, V]) Finish(sig *core.Signal[K, V]) bool {
	items := s.topk.Result()
	s.topk.Reset()
	return release(sig, s, items)
}

func (s *SortLimited[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			s.topk.Add(core.NewItem(key, value))
		}
		if !sig.Running() {
			return
		}
		items := s.topk.Result()
		s.topk.Reset()
		for _, it := range items {
			if !yield(it.Key, it.Value) {
				return
			}
		}
	}
}

func (s *SortLimited[K, V]) Clone() core.Operation[K, V] {
	c, err := NewSortLimited(s.topk.Limit(), s.cmp)
	if err != nil {
		core.Fail("clone sort limited: %v", err)
	}
	return c
}

func (s *SortLimited[K, V]) Destroy() { s.topk.Destroy() }

// Reverse buffers every item and releases them last first.
type Reverse[K, V any] struct {
	core.Base[K, V]
	buf []core.Item[K, V]
}

// NewReverse creates a Reverse operation.
func NewReverse[K, V any]() *Reverse[K, V] { return &Reverse[K, V]{} }

func (r *Reverse[K, V]) Handle(sig *core.Signal[K, V]) {
	r.buf = append(r.buf, sig.Item.Copy())
}

func (r *Reverse[K, V]) Finish(sig *core.Signal[K, V]) bool {
	items := r.buf
	r.buf = nil
	slices.Reverse(items)
	return release(sig, r, items)
}

func (r *Reverse[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		var items []core.Item[K, V]
		for key, value := range seq {
			items = append(items, core.NewItem(key, value))
		}
		if !sig.Running() {
			return
		}
		for i := len(items) - 1; i >= 0; i-- {
			if !yield(items[i].Key, items[i].Value) {
				return
			}
		}
	}
}

func (r *Reverse[K, V]) Clone() core.Operation[K, V] { return &Reverse[K, V]{} }

func (r *Reverse[K, V]) Destroy() { r.buf = nil }
