package core

import "iter"

// Operation is a node of a chain. Every node embeds a Link (usually through
// Base), which keeps the neighbor pointers managed by Pipe.
//
// In push mode the engine calls Handle on the head of the chain for every
// source item; an operation either forwards the item with Forward, keeps a
// copy of it, or controls the run through the Signal. When the source is
// exhausted the engine calls Finish along the chain so that buffering
// operations can release what they hold.
type Operation[K, V any] interface {
	Handle(sig *Signal[K, V])

	// Finish reports whether the operation restarted the signal with
	// buffered items (see Signal.RestartWith). Operations that do not buffer
	// pass the call on to their successor.
	Finish(sig *Signal[K, V]) bool

	// Clone returns an unlinked copy of the operation without run state.
	Clone() Operation[K, V]

	// Destroy releases buffers. It is idempotent and tolerates operations
	// that never ran.
	Destroy()

	Next() Operation[K, V]
	Prev() Operation[K, V]

	link() *Link[K, V]
}

// Streamable is implemented by operations that can run as a pure
// transformation of a lazy sequence (pull mode).
type Streamable[K, V any] interface {
	Build(sig *Signal[K, V], seq iter.Seq2[K, V]) iter.Seq2[K, V]
}

// Link holds the neighbor pointers of a node.
type Link[K, V any] struct {
	next Operation[K, V]
	prev Operation[K, V]
}

// Next returns the successor, nil for the Ending sentinel or unlinked nodes.
func (l *Link[K, V]) Next() Operation[K, V] { return l.next }

// Prev returns the predecessor, nil for the Initial sentinel or unlinked nodes.
func (l *Link[K, V]) Prev() Operation[K, V] { return l.prev }

func (l *Link[K, V]) link() *Link[K, V] { return l }

// Forward passes the live item to the successor.
func (l *Link[K, V]) Forward(sig *Signal[K, V]) {
	l.next.Handle(sig)
}

// Base provides the pass-through behavior shared by most operations.
type Base[K, V any] struct {
	Link[K, V]
}

// Finish passes the call on to the successor.
func (b *Base[K, V]) Finish(sig *Signal[K, V]) bool {
	return b.next.Finish(sig)
}

// Destroy does nothing.
func (b *Base[K, V]) Destroy() {}
