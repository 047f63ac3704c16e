package op

import (
	"iter"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Skip drops the first n items. In push mode it removes itself from the
// chain once they are gone.
type Skip[K, V any] struct {
	core.Base[K, V]
	n    int
	seen int
}

// NewSkip creates a Skip operation.
func NewSkip[K, V any](n int) (*Skip[K, V], error) {
	if n < 0 {
		return nil, core.InvalidArgument("skip count must not be negative, got %d", n)
	}
	return &Skip[K, V]{n: n}, nil
}

func (s *Skip[K, V]) Handle(sig *core.Signal[K, V]) {
	if s.seen < s.n {
		s.seen++
		if s.seen == s.n {
			sig.Forget(s)
		}
		return
	}
	sig.Forget(s)
	s.Forward(sig)
}

func (s *Skip[K, V]) Build(_ *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		skipped := 0
		for key, value := range seq {
			if skipped < s.n {
				skipped++
				continue
			}
			if !yield(key, value) {
				return
			}
		}
	}
}

func (s *Skip[K, V]) Clone() core.Operation[K, V] { return &Skip[K, V]{n: s.n} }

// SkipWhile drops items while its predicate holds. The first item failing
// the predicate, and everything after it, is passed.
type SkipWhile[K, V any] struct {
	core.Base[K, V]
	pred core.Predicate[K, V]
}

// NewSkipWhile creates a SkipWhile operation.
func NewSkipWhile[K, V any](pred core.Predicate[K, V]) (*SkipWhile[K, V], error) {
	if pred == nil {
		return nil, core.InvalidArgument("skip while needs a predicate")
	}
	return &SkipWhile[K, V]{pred: pred}, nil
}

func (s *SkipWhile[K, V]) Handle(sig *core.Signal[K, V]) {
	ok, err := s.pred.Test(sig.Item.Value, sig.Item.Key)
	if err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	if ok {
		return
	}
	sig.Forget(s)
	s.Forward(sig)
}

func (s *SkipWhile[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		skipping := true
		for key, value := range seq {
			if skipping {
				ok, err := s.pred.Test(value, key)
				if err != nil {
					if sig.Fail(err, key, value) {
						continue
					}
					return
				}
				if ok {
					continue
				}
				skipping = false
			}
			if !yield(key, value) {
				return
			}
		}
	}
}

func (s *SkipWhile[K, V]) Clone() core.Operation[K, V] { return &SkipWhile[K, V]{pred: s.pred} }

// Limit passes at most n items, then ends the reading of the source.
// Buffering operations behind it still release their items.
type Limit[K, V any] struct {
	core.Base[K, V]
	n     int
	count int
}

// NewLimit creates a Limit operation.
func NewLimit[K, V any](n int) (*Limit[K, V], error) {
	if n < 0 {
		return nil, core.InvalidArgument("limit must not be negative, got %d", n)
	}
	return &Limit[K, V]{n: n}, nil
}

func (l *Limit[K, V]) Handle(sig *core.Signal[K, V]) {
	if l.count >= l.n {
		sig.LimitReached(l)
		return
	}
	l.count++
	l.Forward(sig)
	if l.count >= l.n {
		sig.LimitReached(l)
	}
}

func (l *Limit[K, V]) Build(_ *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		if l.n == 0 {
			return
		}
		count := 0
		for key, value := range seq {
			count++
			if !yield(key, value) || count >= l.n {
				return
			}
		}
	}
}

func (l *Limit[K, V]) Clone() core.Operation[K, V] { return &Limit[K, V]{n: l.n} }
