// Package unique provides the deduplication strategies used by the Unique
// operation. A Checker answers whether a value was seen before and remembers
// the values it lets through.
//
// Two families are available: Hashed partitions values into typed buckets
// and relies on native equality, Ordered keeps a sorted buffer and honors a
// custom comparator. Item checkers combine a value strategy with a key
// strategy.
package unique

import (
	"reflect"
	"slices"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Checker tracks the values seen during one run.
type Checker[T any] interface {
	// Check reports whether v was not seen yet.
	Check(v T) bool
	// Remember records v as seen.
	Remember(v T)
	// Clone returns an empty checker with the same configuration.
	Clone() Checker[T]
	// Reset forgets every remembered value.
	Reset()
	// Destroy releases the buffers. Using a destroyed checker is a logic error.
	Destroy()
}

// Hashed is the hash-partitioned strategy. Values are routed to a bucket by
// their type: when T is a concrete integer or string type, values get a
// dedicated set; other comparable values share a set keyed by interface
// equality, so values of different dynamic types never match; values that
// cannot be hashed (slices, maps, funcs) fall back to a linear scan with
// reflect.DeepEqual.
type Hashed[T any] struct {
	typed     bool
	ints      map[int64]struct{}
	uints     map[uint64]struct{}
	strings   map[string]struct{}
	values    map[any]struct{}
	others    []any
	destroyed bool
}

// NewHashed creates an empty hash-partitioned checker.
func NewHashed[T any]() *Hashed[T] {
	return &Hashed[T]{typed: reflect.TypeFor[T]().Kind() != reflect.Interface}
}

func (h *Hashed[T]) Check(v T) bool {
	h.check()
	if h.typed {
		if seen, ok := h.checkTyped(v); ok {
			return !seen
		}
	}
	if hashable(v) {
		return !has(h.values, any(v))
	}
	for _, o := range h.others {
		if reflect.DeepEqual(o, any(v)) {
			return false
		}
	}
	return true
}

// checkTyped looks v up in the typed buckets. ok is false when v has no
// typed bucket.
func (h *Hashed[T]) checkTyped(v T) (seen, ok bool) {
	switch x := any(v).(type) {
	case int:
		return has(h.ints, int64(x)), true
	case int8:
		return has(h.ints, int64(x)), true
	case int16:
		return has(h.ints, int64(x)), true
	case int32:
		return has(h.ints, int64(x)), true
	case int64:
		return has(h.ints, x), true
	case uint:
		return has(h.uints, uint64(x)), true
	case uint8:
		return has(h.uints, uint64(x)), true
	case uint16:
		return has(h.uints, uint64(x)), true
	case uint32:
		return has(h.uints, uint64(x)), true
	case uint64:
		return has(h.uints, x), true
	case string:
		return has(h.strings, x), true
	}
	return false, false
}

func (h *Hashed[T]) Remember(v T) {
	h.check()
	if h.typed && h.rememberTyped(v) {
		return
	}
	if hashable(v) {
		h.values = put(h.values, any(v))
	} else if h.Check(v) {
		h.others = append(h.others, any(v))
	}
}

func (h *Hashed[T]) rememberTyped(v T) bool {
	switch x := any(v).(type) {
	case int:
		h.ints = put(h.ints, int64(x))
	case int8:
		h.ints = put(h.ints, int64(x))
	case int16:
		h.ints = put(h.ints, int64(x))
	case int32:
		h.ints = put(h.ints, int64(x))
	case int64:
		h.ints = put(h.ints, x)
	case uint:
		h.uints = put(h.uints, uint64(x))
	case uint8:
		h.uints = put(h.uints, uint64(x))
	case uint16:
		h.uints = put(h.uints, uint64(x))
	case uint32:
		h.uints = put(h.uints, uint64(x))
	case uint64:
		h.uints = put(h.uints, x)
	case string:
		h.strings = put(h.strings, x)
	default:
		return false
	}
	return true
}

func (h *Hashed[T]) Clone() Checker[T] { return NewHashed[T]() }

func (h *Hashed[T]) Reset() {
	h.check()
	*h = Hashed[T]{typed: h.typed}
}

func (h *Hashed[T]) Destroy() {
	*h = Hashed[T]{destroyed: true}
}

func (h *Hashed[T]) check() {
	if h.destroyed {
		core.Fail("unique checker used after Destroy")
	}
}

func has[E comparable](set map[E]struct{}, v E) bool {
	_, ok := set[v]
	return ok
}

func put[E comparable](set map[E]struct{}, v E) map[E]struct{} {
	if set == nil {
		set = make(map[E]struct{})
	}
	set[v] = struct{}{}
	return set
}

func hashable(v any) bool {
	if v == nil {
		return true
	}
	t := reflect.TypeOf(v)
	if !t.Comparable() {
		return false
	}
	// Structs and arrays may hide interface fields holding unhashable values.
	switch t.Kind() {
	case reflect.Struct, reflect.Array:
		return reflect.ValueOf(v).Comparable()
	}
	return true
}

// Ordered is the binary-search strategy: seen values are kept sorted under a
// comparator, giving O(log n) lookups and O(n) insertion. Two values are the
// same when the comparator returns 0.
type Ordered[T any] struct {
	cmp       core.Comparator[T]
	buf       []T
	destroyed bool
}

// NewOrdered creates an empty checker ordered by cmp.
func NewOrdered[T any](cmp core.Comparator[T]) (*Ordered[T], error) {
	if cmp == nil {
		return nil, core.InvalidArgument("ordered unique checker needs a comparator")
	}
	return &Ordered[T]{cmp: cmp}, nil
}

func (o *Ordered[T]) Check(v T) bool {
	o.check()
	_, found := slices.BinarySearchFunc(o.buf, v, o.cmp)
	return !found
}

func (o *Ordered[T]) Remember(v T) {
	o.check()
	i, found := slices.BinarySearchFunc(o.buf, v, o.cmp)
	if !found {
		o.buf = slices.Insert(o.buf, i, v)
	}
}

// Len returns the number of remembered values.
func (o *Ordered[T]) Len() int { return len(o.buf) }

func (o *Ordered[T]) Clone() Checker[T] { return &Ordered[T]{cmp: o.cmp} }

func (o *Ordered[T]) Reset() {
	o.check()
	clear(o.buf)
	o.buf = o.buf[:0]
}

func (o *Ordered[T]) Destroy() {
	o.destroyed = true
	o.buf = nil
}

func (o *Ordered[T]) check() {
	if o.destroyed {
		core.Fail("unique checker used after Destroy")
	}
}
