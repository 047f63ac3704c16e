package core

import "iter"

// Initial is the sentinel in front of a chain. Its successor is the head.
type Initial[K, V any] struct {
	Link[K, V]
}

func (i *Initial[K, V]) Handle(sig *Signal[K, V])      { i.Forward(sig) }
func (i *Initial[K, V]) Finish(sig *Signal[K, V]) bool { return i.next.Finish(sig) }
func (i *Initial[K, V]) Destroy()                      {}

// Clone panics: sentinels are never copied on their own, use Pipe.Clone.
func (i *Initial[K, V]) Clone() Operation[K, V] {
	Fail("Initial sentinel cannot be cloned directly")
	return nil
}

// Ending is the sentinel behind a chain. Items that reach it leave the run.
type Ending[K, V any] struct {
	Link[K, V]
}

func (e *Ending[K, V]) Handle(sig *Signal[K, V])  { sig.emitLive() }
func (e *Ending[K, V]) Finish(*Signal[K, V]) bool { return false }
func (e *Ending[K, V]) Destroy()                  {}

// Clone panics: sentinels are never copied on their own, use Pipe.Clone.
func (e *Ending[K, V]) Clone() Operation[K, V] {
	Fail("Ending sentinel cannot be cloned directly")
	return nil
}

// stateful is implemented by operations whose state outlives a single run
// (for example sub-stream feeders); chains holding them cannot be cloned.
type stateful interface {
	Started() bool
}

// Attached is implemented by helper nodes an operation links behind itself
// with Join. Pipe.Clone skips them: cloning the owner recreates its run.
type Attached interface {
	AttachedTo() any
}

// Pipe is the chain of operations between the Initial and Ending sentinels.
// The sentinels are always present, so an empty pipe is Initial -> Ending.
type Pipe[K, V any] struct {
	initial   *Initial[K, V]
	ending    *Ending[K, V]
	started   bool
	destroyed bool
}

// NewPipe creates an empty chain.
func NewPipe[K, V any]() *Pipe[K, V] {
	p := &Pipe[K, V]{
		initial: &Initial[K, V]{},
		ending:  &Ending[K, V]{},
	}
	p.initial.next = p.ending
	p.ending.prev = p.initial
	return p
}

// Initial returns the front sentinel.
func (p *Pipe[K, V]) Initial() *Initial[K, V] { return p.initial }

// Ending returns the back sentinel.
func (p *Pipe[K, V]) Ending() *Ending[K, V] { return p.ending }

// Head returns the entry point of the chain (Ending when it is empty).
func (p *Pipe[K, V]) Head() Operation[K, V] { return p.initial.next }

// Last returns the final concrete node, or nil when the chain is empty.
func (p *Pipe[K, V]) Last() Operation[K, V] {
	if p.ending.prev == Operation[K, V](p.initial) {
		return nil
	}
	return p.ending.prev
}

// Started reports whether the chain was handed to a run.
func (p *Pipe[K, V]) Started() bool { return p.started }

// Empty reports whether the chain holds no concrete node.
func (p *Pipe[K, V]) Empty() bool { return p.Last() == nil }

// Len counts the concrete nodes.
func (p *Pipe[K, V]) Len() int {
	n := 0
	for range p.All() {
		n++
	}
	return n
}

// All walks the concrete nodes from head to tail.
func (p *Pipe[K, V]) All() iter.Seq[Operation[K, V]] {
	return func(yield func(Operation[K, V]) bool) {
		for op := p.initial.next; op != Operation[K, V](p.ending); op = op.Next() {
			if !yield(op) {
				return
			}
		}
	}
}

// Backward walks the concrete nodes from tail to head.
func (p *Pipe[K, V]) Backward() iter.Seq[Operation[K, V]] {
	return func(yield func(Operation[K, V]) bool) {
		for op := p.ending.prev; op != Operation[K, V](p.initial); op = op.Prev() {
			if !yield(op) {
				return
			}
		}
	}
}

// Append links ops one after another in front of Ending.
func (p *Pipe[K, V]) Append(ops ...Operation[K, V]) error {
	if p.started {
		return ErrChainStarted
	}
	for _, op := range ops {
		checkLinkable(op)
		l := op.link()
		if l.next != nil || l.prev != nil {
			Fail("operation %T is already linked", op)
		}
		p.insertRange(p.ending.prev, op, op)
	}
	return nil
}

// AppendDirect appends a run of nodes that are already linked to each other
// (see Join), keeping their internal links as they are. It is used when one
// logical operation expands into several physical nodes.
func (p *Pipe[K, V]) AppendDirect(first Operation[K, V]) error {
	if p.started {
		return ErrChainStarted
	}
	checkLinkable(first)
	if first.Prev() != nil {
		Fail("operation %T is not the first node of its run", first)
	}
	last := first
	for last.Next() != nil {
		last = last.Next()
		checkLinkable(last)
	}
	p.insertRange(p.ending.prev, first, last)
	return nil
}

// Prepend inserts op in front of the head.
func (p *Pipe[K, V]) Prepend(op Operation[K, V]) error {
	if p.started {
		return ErrChainStarted
	}
	checkLinkable(op)
	p.insertRange(p.initial, op, op)
	return nil
}

// InsertAfter links op right behind at, which must belong to this chain.
// Inserting behind the Ending sentinel is a logic error.
func (p *Pipe[K, V]) InsertAfter(at, op Operation[K, V]) error {
	if p.started {
		return ErrChainStarted
	}
	checkLinkable(op)
	p.insertRange(at, op, op)
	return nil
}

// Remove detaches op and relinks its neighbors. The removed node keeps its
// own pointers, so an operation that forgets itself mid-run can still
// forward the live item. Remove returns the head of the chain after removal.
func (p *Pipe[K, V]) Remove(op Operation[K, V]) Operation[K, V] {
	switch op.(type) {
	case *Initial[K, V], *Ending[K, V]:
		Fail("sentinel %T cannot be removed from the chain", op)
	}
	l := op.link()
	if l.prev == nil || l.next == nil {
		Fail("operation %T is not linked", op)
	}
	if l.prev.Next() != op {
		// Already detached, e.g. forgotten twice.
		return p.Head()
	}
	l.prev.link().next = l.next
	l.next.link().prev = l.prev
	return p.Head()
}

// Clone deep-copies the chain. Every node is cloned without run state, so
// the copy can be executed independently. Started chains, and chains that
// hold operations with started state, cannot be cloned.
func (p *Pipe[K, V]) Clone() (*Pipe[K, V], error) {
	if p.started {
		return nil, ErrChainStarted
	}
	clone := NewPipe[K, V]()
	for op := range p.All() {
		if s, ok := op.(stateful); ok && s.Started() {
			return nil, ErrChainStarted
		}
		if _, ok := op.(Attached); ok {
			continue
		}
		first := op.Clone()
		last := first
		for last.Next() != nil {
			last = last.Next()
		}
		clone.insertRange(clone.ending.prev, first, last)
	}
	return clone, nil
}

// Destroy releases every node and unlinks the chain. It is idempotent and
// safe on chains that never ran.
func (p *Pipe[K, V]) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.started = true

	var nodes []Operation[K, V]
	for op := range p.All() {
		nodes = append(nodes, op)
	}
	for _, op := range nodes {
		op.Destroy()
		l := op.link()
		l.next, l.prev = nil, nil
	}
	p.initial.next = p.ending
	p.ending.prev = p.initial
}

func (p *Pipe[K, V]) start() error {
	if p.started {
		return ErrChainStarted
	}
	p.started = true
	return nil
}

func (p *Pipe[K, V]) insertRange(after, first, last Operation[K, V]) {
	if _, ok := after.(*Ending[K, V]); ok {
		Fail("cannot link a node behind the Ending sentinel")
	}
	before := after.Next()
	after.link().next = first
	first.link().prev = after
	last.link().next = before
	before.link().prev = last
}

func checkLinkable[K, V any](op Operation[K, V]) {
	switch op.(type) {
	case nil:
		Fail("nil operation")
	case *Initial[K, V], *Ending[K, V]:
		Fail("sentinel %T cannot be linked into a chain", op)
	}
}

// Join links ops into a run of nodes ready for Pipe.AppendDirect and
// returns the first of them.
func Join[K, V any](ops ...Operation[K, V]) Operation[K, V] {
	if len(ops) == 0 {
		Fail("nothing to join")
	}
	for i, op := range ops {
		checkLinkable(op)
		if i > 0 {
			ops[i-1].link().next = op
			op.link().prev = ops[i-1]
		}
	}
	return ops[0]
}
