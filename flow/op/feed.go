package op

import (
	"errors"
	"fmt"
	"iter"

	"go.uber.org/multierr"

	"github.com/lguimbarda/kvflow/flow/core"
)

// ErrNoRoute is the per-item error raised by Dispatch for an item whose
// class has no handler.
var ErrNoRoute = errors.New("no handler for class")

// feeders closes a set of sub-stream feeders once.
type feeders[K, V any] []*core.Feeder[K, V]

func (fs feeders[K, V]) close() error {
	var err error
	for _, f := range fs {
		err = multierr.Append(err, f.Close())
	}
	return err
}

// Feed copies each item into every sub-stream and passes it on. The
// sub-streams are closed when the run finishes, and their errors end the
// run. Sub-streams belong to the run they are fed from, so hooks attached
// to their own contexts are not invoked. A chain holding Feed cannot be
// cloned: its sub-streams are already running.
type Feed[K, V any] struct {
	core.Base[K, V]
	targets feeders[K, V]
}

// NewFeed creates a Feed operation.
func NewFeed[K, V any](targets ...*core.Feeder[K, V]) (*Feed[K, V], error) {
	for _, f := range targets {
		if f == nil {
			return nil, core.InvalidArgument("feed target is nil")
		}
	}
	for _, f := range targets {
		f.Nest()
	}
	return &Feed[K, V]{targets: targets}, nil
}

// Started reports true: sub-streams start when they are created.
func (f *Feed[K, V]) Started() bool { return true }

func (f *Feed[K, V]) Handle(sig *core.Signal[K, V]) {
	for _, t := range f.targets {
		t.Feed(sig.Item.Key, sig.Item.Value)
	}
	f.Forward(sig)
}

func (f *Feed[K, V]) Finish(sig *core.Signal[K, V]) bool {
	if err := f.targets.close(); err != nil {
		sig.Terminate(err)
		return false
	}
	return f.Next().Finish(sig)
}

func (f *Feed[K, V]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			for _, t := range f.targets {
				t.Feed(key, value)
			}
			if !yield(key, value) {
				return
			}
		}
		if !sig.Running() {
			return
		}
		if err := f.targets.close(); err != nil {
			sig.Terminate(err)
		}
	}
}

func (f *Feed[K, V]) Clone() core.Operation[K, V] {
	core.Fail("feed cannot be cloned")
	return nil
}

// Destroy closes sub-streams left open by an interrupted run. The outer run
// is already over, so their errors are not reported there; Close on each
// feeder still returns its own.
func (f *Feed[K, V]) Destroy() { _ = f.targets.close() }

// Dispatch routes each item to the sub-stream selected by its class and
// passes it on. An item whose class has no sub-stream fails with ErrNoRoute.
// Like Feed, it nests its sub-streams into the run.
type Dispatch[K, V any, D comparable] struct {
	core.Base[K, V]
	disc    core.Discriminator[K, V, D]
	routes  map[D]*core.Feeder[K, V]
	targets feeders[K, V]
}

// NewDispatch creates a Dispatch operation.
func NewDispatch[K, V any, D comparable](disc core.Discriminator[K, V, D], routes map[D]*core.Feeder[K, V]) (*Dispatch[K, V, D], error) {
	if disc == nil {
		return nil, core.InvalidArgument("dispatch needs a discriminator")
	}
	d := &Dispatch[K, V, D]{disc: disc, routes: routes}
	for class, f := range routes {
		if f == nil {
			return nil, core.InvalidArgument("dispatch route %v is nil", class)
		}
		f.Nest()
		d.targets = append(d.targets, f)
	}
	return d, nil
}

// Started reports true: sub-streams start when they are created.
func (d *Dispatch[K, V, D]) Started() bool { return true }

func (d *Dispatch[K, V, D]) route(key K, value V) error {
	class, err := d.disc.Classify(value, key)
	if err != nil {
		return err
	}
	f, ok := d.routes[class]
	if !ok {
		return fmt.Errorf("%w %v", ErrNoRoute, class)
	}
	f.Feed(key, value)
	return nil
}

func (d *Dispatch[K, V, D]) Handle(sig *core.Signal[K, V]) {
	if err := d.route(sig.Item.Key, sig.Item.Value); err != nil {
		sig.Fail(err, sig.Item.Key, sig.Item.Value)
		return
	}
	d.Forward(sig)
}

func (d *Dispatch[K, V, D]) Finish(sig *core.Signal[K, V]) bool {
	if err := d.targets.close(); err != nil {
		sig.Terminate(err)
		return false
	}
	return d.Next().Finish(sig)
}

func (d *Dispatch[K, V, D]) Build(sig *core.Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, value := range seq {
			if err := d.route(key, value); err != nil {
				if sig.Fail(err, key, value) {
					continue
				}
				return
			}
			if !yield(key, value) {
				return
			}
		}
		if !sig.Running() {
			return
		}
		if err := d.targets.close(); err != nil {
			sig.Terminate(err)
		}
	}
}

func (d *Dispatch[K, V, D]) Clone() core.Operation[K, V] {
	core.Fail("dispatch cannot be cloned")
	return nil
}

// Destroy closes sub-streams left open by an interrupted run. Their errors
// stay available from each feeder's Close.
func (d *Dispatch[K, V, D]) Destroy() { _ = d.targets.close() }
