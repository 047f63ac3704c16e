package core

import (
	"cmp"
	"context"
	"iter"
)

// Producer is the source role: anything that can produce a lazy, ordered,
// possibly infinite sequence of (key, value) pairs.
type Producer[K, V any] interface {
	All() iter.Seq2[K, V]
}

// ContextProducer is implemented by producers whose sequence depends on the
// context of the run reading it, such as database queries or channels.
type ContextProducer[K, V any] interface {
	Producer[K, V]
	AllContext(ctx context.Context) iter.Seq2[K, V]
}

// Counted is implemented by producers that know their size up front.
// The boolean is false when the producer is not known to be finite.
type Counted interface {
	Len() (int, bool)
}

// ProducerFunc adapts a sequence constructor to a Producer.
type ProducerFunc[K, V any] func() iter.Seq2[K, V]

func (f ProducerFunc[K, V]) All() iter.Seq2[K, V] { return f() }

// SeqProducer wraps a ready-made sequence.
type SeqProducer[K, V any] struct {
	Seq iter.Seq2[K, V]
}

func (p SeqProducer[K, V]) All() iter.Seq2[K, V] { return p.Seq }

// Collector is the sink role. Collectors that cannot keep keys only
// receive Add calls.
type Collector[K, V any] interface {
	Set(key K, value V)
	Add(value V)
	CanPreserveKeys() bool
}

// Collect stores a pair into c, honoring its key capability.
func Collect[K, V any](c Collector[K, V], key K, value V) {
	if c.CanPreserveKeys() {
		c.Set(key, value)
	} else {
		c.Add(value)
	}
}

// SliceCollector appends values and drops keys.
type SliceCollector[K, V any] struct {
	Values []V
}

func (c *SliceCollector[K, V]) Set(_ K, value V)      { c.Values = append(c.Values, value) }
func (c *SliceCollector[K, V]) Add(value V)           { c.Values = append(c.Values, value) }
func (c *SliceCollector[K, V]) CanPreserveKeys() bool { return false }

// MapCollector stores pairs by key; later keys overwrite earlier ones.
type MapCollector[K comparable, V any] struct {
	Map map[K]V
}

// NewMapCollector creates an empty MapCollector.
func NewMapCollector[K comparable, V any]() *MapCollector[K, V] {
	return &MapCollector[K, V]{Map: make(map[K]V)}
}

func (c *MapCollector[K, V]) Set(key K, value V) { c.Map[key] = value }

// Add is a no-op: a map cannot hold a value without a key.
func (c *MapCollector[K, V]) Add(V)                 {}
func (c *MapCollector[K, V]) CanPreserveKeys() bool { return true }

// Reducer aggregates values into a single result.
type Reducer[V any] interface {
	Consume(value V)
	Result() V
	HasResult() bool
	Reset()
}

// Predicate tests an item.
type Predicate[K, V any] func(value V, key K) bool

// Test evaluates p, converting a panic into an ErrPanic.
func (p Predicate[K, V]) Test(value V, key K) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asError(r)
		}
	}()
	return p(value, key), nil
}

// Not returns the negation of p.
func (p Predicate[K, V]) Not() Predicate[K, V] {
	return func(value V, key K) bool { return !p(value, key) }
}

// Mapper transforms the value of an item.
type Mapper[K, V any] func(value V, key K) (V, error)

// Map evaluates m, converting a panic into an ErrPanic.
func (m Mapper[K, V]) Map(value V, key K) (out V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asError(r)
		}
	}()
	return m(value, key)
}

// KeyMapper computes a new key for an item.
type KeyMapper[K, V any] func(value V, key K) (K, error)

// Map evaluates m, converting a panic into an ErrPanic.
func (m KeyMapper[K, V]) Map(value V, key K) (out K, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asError(r)
		}
	}()
	return m(value, key)
}

// Consumer observes an item.
type Consumer[K, V any] func(value V, key K)

// Call evaluates c, converting a panic into an ErrPanic.
func (c Consumer[K, V]) Call(value V, key K) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asError(r)
		}
	}()
	c(value, key)
	return nil
}

// Discriminator classifies an item.
type Discriminator[K, V any, D comparable] func(value V, key K) D

// Classify evaluates d, converting a panic into an ErrPanic.
func (d Discriminator[K, V, D]) Classify(value V, key K) (class D, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = asError(r)
		}
	}()
	return d(value, key), nil
}

// Comparator is a three-way comparison: negative when a sorts before b.
type Comparator[T any] func(a, b T) int

// Ascending orders values naturally.
func Ascending[T cmp.Ordered]() Comparator[T] {
	return cmp.Compare[T]
}

// Descending orders values in reverse natural order.
func Descending[T cmp.Ordered]() Comparator[T] {
	return Ascending[T]().Reversed()
}

// Reversed flips the order of c.
func (c Comparator[T]) Reversed() Comparator[T] {
	return func(a, b T) int { return c(b, a) }
}

// ItemComparator orders whole items.
type ItemComparator[K, V any] func(a, b Item[K, V]) int

// ByValue orders items by value.
func ByValue[K, V any](c Comparator[V]) ItemComparator[K, V] {
	return func(a, b Item[K, V]) int { return c(a.Value, b.Value) }
}

// ByKey orders items by key.
func ByKey[K, V any](c Comparator[K]) ItemComparator[K, V] {
	return func(a, b Item[K, V]) int { return c(a.Key, b.Key) }
}

// ByBoth orders items by value, breaking ties by key.
func ByBoth[K, V any](values Comparator[V], keys Comparator[K]) ItemComparator[K, V] {
	return func(a, b Item[K, V]) int {
		if n := values(a.Value, b.Value); n != 0 {
			return n
		}
		return keys(a.Key, b.Key)
	}
}

// Reversed flips the order of c.
func (c ItemComparator[K, V]) Reversed() ItemComparator[K, V] {
	return func(a, b Item[K, V]) int { return c(b, a) }
}
