package flow

// Stage is a reusable run of builder calls on a Stream.
type Stage[K, V any] func(*Stream[K, V]) *Stream[K, V]

// Chain composes stages into a single stage. Stages are applied in order
// from left to right; with no stages it returns the stream unchanged.
func Chain[K, V any](stages ...Stage[K, V]) Stage[K, V] {
	return func(s *Stream[K, V]) *Stream[K, V] {
		for _, st := range stages {
			if st != nil {
				s = st(s)
			}
		}
		return s
	}
}

// Apply applies stages to s in order. It reads left to right inside a
// fluent chain: s.Filter(p).Apply(normalize, dedupe).Limit(10).
func (s *Stream[K, V]) Apply(stages ...Stage[K, V]) *Stream[K, V] {
	return Chain(stages...)(s)
}
