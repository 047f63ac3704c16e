package core

// Item is the mutable (key, value) slot that travels through a chain.
// A single Item is reused for every source element of a run, so operations
// that keep items beyond one push cycle must store a Copy.
type Item[K, V any] struct {
	Key   K
	Value V
}

// NewItem creates an Item holding the given pair.
func NewItem[K, V any](key K, value V) Item[K, V] {
	return Item[K, V]{Key: key, Value: value}
}

// Set overwrites both fields in place.
func (i *Item[K, V]) Set(key K, value V) {
	i.Key = key
	i.Value = value
}

// Copy returns a detached copy of the item.
func (i *Item[K, V]) Copy() Item[K, V] {
	return Item[K, V]{Key: i.Key, Value: i.Value}
}

// Pair returns the key and value.
func (i Item[K, V]) Pair() (K, V) {
	return i.Key, i.Value
}
