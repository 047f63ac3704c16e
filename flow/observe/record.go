package observe

import (
	"context"
	"sync"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Notification is a materialized run event.
type Notification[K, V any] struct {
	Kind     NotificationKind
	Mode     core.Mode     // NotificationStart
	Key      K             // NotificationItem, NotificationError
	Value    V             // NotificationItem, NotificationError
	Error    error         // NotificationError, NotificationComplete
	Decision core.Decision // NotificationError
}

// NotificationKind indicates the type of notification.
type NotificationKind int

const (
	NotificationStart NotificationKind = iota
	NotificationItem
	NotificationError
	NotificationComplete
)

func (k NotificationKind) String() string {
	switch k {
	case NotificationStart:
		return "start"
	case NotificationItem:
		return "item"
	case NotificationError:
		return "error"
	case NotificationComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Recorder keeps the notifications of runs in the order they happened.
// This is useful for testing, or when all run events need to be treated
// uniformly after the fact.
type Recorder[K, V any] struct {
	mu     sync.Mutex
	events []Notification[K, V]
}

// WithRecorder attaches hooks recording every event of runs over Item[K, V].
func WithRecorder[K, V any](ctx context.Context) (context.Context, *Recorder[K, V]) {
	r := &Recorder[K, V]{}
	ctx = core.WithHooks(ctx, core.Hooks[K, V]{
		OnStart: func(mode core.Mode) {
			r.add(Notification[K, V]{Kind: NotificationStart, Mode: mode})
		},
		OnItem: func(key K, value V) {
			r.add(Notification[K, V]{Kind: NotificationItem, Key: key, Value: value})
		},
		OnError: func(err error, key K, value V, d core.Decision) {
			r.add(Notification[K, V]{Kind: NotificationError, Key: key, Value: value, Error: err, Decision: d})
		},
		OnComplete: func(err error) {
			r.add(Notification[K, V]{Kind: NotificationComplete, Error: err})
		},
	})
	return ctx, r
}

func (r *Recorder[K, V]) add(n Notification[K, V]) {
	r.mu.Lock()
	r.events = append(r.events, n)
	r.mu.Unlock()
}

// Events returns a copy of the recorded notifications.
func (r *Recorder[K, V]) Events() []Notification[K, V] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification[K, V], len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kind of each recorded notification.
func (r *Recorder[K, V]) Kinds() []NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationKind, len(r.events))
	for i, n := range r.events {
		out[i] = n.Kind
	}
	return out
}

// Reset drops the recorded notifications.
func (r *Recorder[K, V]) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
