// Package op provides the concrete operations a chain is built from.
//
// Every operation runs in push mode through Handle. Operations that are a
// plain transformation of a sequence also implement core.Streamable, so a
// chain made only of them composes lazily in pull mode.
package op

import (
	"iter"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Filter passes the items matching its predicate (or, for Omit, the items
// not matching it).
type Filter[K, V any] struct {
	core.Base[K, V]
	pred core.Predicate[K, V]
	keep bool
}

// NewFilter keeps the items for which pred returns true.
func NewFilter[K, V any](pred core.Predicate[K, V]) (*Filter[K, V], error) {
	if pred == nil {
		return nil, core.InvalidArgument("filter needs a predicate")
	}
	return &Filter[K, V]{pred: pred, keep: true}, nil
}

// NewOmit drops the items for which pred returns true.
func NewOmit[K, V any](pred core.Predicate[K, V]) (*Filter[K, V], error) {
	if pred == nil {
		return nil, core.InvalidArgument("omit needs a predicate")
	}
	return &Filter[K, V]{pred: pred, keep: false}, nil
}

func (f *Filter[K, V]) Handle(sig *core.Signal[K, V]) {
	ok, err := f.pred.Test(sig.Item.Value, sig.Item.Key)
	if err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	if ok == f.keep {
		f.Forward(sig)
	}
}

func (f *Filter[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			ok, err := f.pred.Test(value, key)
			if err != nil {
				if sig.Fail(err, key, value) {
					continue
				}
				return
			}
			if ok == f.keep && !yield(key, value) {
				return
			}
		}
	}
}

func (f *Filter[K, V]) Clone() core.Operation[K, V] {
	return &Filter[K, V]{pred: f.pred, keep: f.keep}
}

// Until passes items until its predicate matches, then ends the reading of
// the source. When inclusive, the matching item is passed too.
type Until[K, V any] struct {
	core.Base[K, V]
	pred      core.Predicate[K, V]
	inclusive bool
}

// NewUntil creates an Until operation.
func NewUntil[K, V any](pred core.Predicate[K, V], inclusive bool) (*Until[K, V], error) {
	if pred == nil {
		return nil, core.InvalidArgument("until needs a predicate")
	}
	return &Until[K, V]{pred: pred, inclusive: inclusive}, nil
}

func (u *Until[K, V]) Handle(sig *core.Signal[K, V]) {
	ok, err := u.pred.Test(sig.Item.Value, sig.Item.Key)
	if err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	if !ok {
		u.Forward(sig)
		return
	}
	if u.inclusive {
		u.Forward(sig)
	}
	sig.LimitReached(u)
}

func (u *Until[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			ok, err := u.pred.Test(value, key)
			if err != nil {
				if sig.Fail(err, key, value) {
					continue
				}
				return
			}
			if ok {
				if u.inclusive {
					yield(key, value)
				}
				return
			}
			if !yield(key, value) {
				return
			}
		}
	}
}

func (u *Until[K, V]) Clone() core.Operation[K, V] {
	return &Until[K, V]{pred: u.pred, inclusive: u.inclusive}
}
