package benchmarks

import (
	"slices"
	"testing"

	"github.com/ahmetb/go-linq/v3"
	"github.com/lguimbarda/kvflow/flow"
	"github.com/samber/lo"
)

// =============================================================================
// SortLimited Benchmarks (top 10 of N)
// =============================================================================

const topK = 10

func BenchmarkSortLimited_KVFlow_Small(b *testing.B) {
	benchmarkSortLimitedKVFlow(b, SmallSize)
}

func BenchmarkSortLimited_KVFlow_Medium(b *testing.B) {
	benchmarkSortLimitedKVFlow(b, MediumSize)
}

func BenchmarkSortLimited_KVFlow_Large(b *testing.B) {
	benchmarkSortLimitedKVFlow(b, LargeSize)
}

func benchmarkSortLimitedKVFlow(b *testing.B, size int) {
	data := generateShuffled(size)
	cmp := flow.ByValue[int](flow.Descending[int]())
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = flow.FromSlice(data).SortLimited(topK, cmp).Values(ctx)
	}
}

// Full sort followed by Limit, for comparison with the bounded heap
func BenchmarkSortLimited_KVFlowSortLimit_Large(b *testing.B) {
	data := generateShuffled(LargeSize)
	cmp := flow.ByValue[int](flow.Descending[int]())
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = flow.FromSlice(data).Sort(cmp).Limit(topK).Values(ctx)
	}
}

func BenchmarkSortLimited_Lo_Small(b *testing.B) {
	benchmarkSortLimitedLo(b, SmallSize)
}

func BenchmarkSortLimited_Lo_Medium(b *testing.B) {
	benchmarkSortLimitedLo(b, MediumSize)
}

func BenchmarkSortLimited_Lo_Large(b *testing.B) {
	benchmarkSortLimitedLo(b, LargeSize)
}

func benchmarkSortLimitedLo(b *testing.B, size int) {
	data := generateShuffled(size)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sorted := slices.Clone(data)
		slices.SortFunc(sorted, func(x, y int) int { return y - x })
		_ = lo.Subset(sorted, 0, topK)
	}
}

func BenchmarkSortLimited_Linq_Small(b *testing.B) {
	benchmarkSortLimitedLinq(b, SmallSize)
}

func BenchmarkSortLimited_Linq_Medium(b *testing.B) {
	benchmarkSortLimitedLinq(b, MediumSize)
}

func BenchmarkSortLimited_Linq_Large(b *testing.B) {
	benchmarkSortLimitedLinq(b, LargeSize)
}

func benchmarkSortLimitedLinq(b *testing.B, size int) {
	data := generateShuffled(size)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var result []int
		linq.From(data).
			OrderByDescendingT(func(x int) int { return x }).
			Take(topK).
			ToSlice(&result)
	}
}

func BenchmarkSortLimited_RawLoop_Small(b *testing.B) {
	benchmarkSortLimitedRawLoop(b, SmallSize)
}

func BenchmarkSortLimited_RawLoop_Medium(b *testing.B) {
	benchmarkSortLimitedRawLoop(b, MediumSize)
}

func BenchmarkSortLimited_RawLoop_Large(b *testing.B) {
	benchmarkSortLimitedRawLoop(b, LargeSize)
}

// Insertion into a sorted buffer of topK slots
func benchmarkSortLimitedRawLoop(b *testing.B, size int) {
	data := generateShuffled(size)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		top := make([]int, 0, topK)
		for _, v := range data {
			if len(top) == topK && v <= top[topK-1] {
				continue
			}
			pos, _ := slices.BinarySearchFunc(top, v, func(e, t int) int { return t - e })
			if len(top) == topK {
				top = top[:topK-1]
			}
			top = slices.Insert(top, pos, v)
		}
	}
}

// =============================================================================
// Tail Benchmarks (last 10 of N)
// =============================================================================

func BenchmarkTail_KVFlow_Large(b *testing.B) {
	data := generateInts(LargeSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = flow.FromSlice(data).Tail(topK).Values(ctx)
	}
}

// Tail behind a filter, where the length is unknown and the ring is used
func BenchmarkTail_KVFlowFiltered_Large(b *testing.B) {
	data := generateInts(LargeSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = flow.FromSlice(data).Filter(evenValue).Tail(topK).Values(ctx)
	}
}

func BenchmarkTail_Lo_Large(b *testing.B) {
	data := generateInts(LargeSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = lo.Subset(lo.Filter(data, func(x int, _ int) bool { return isEven(x) }), -topK, topK)
	}
}

// =============================================================================
// Unique Benchmarks (every value repeats 4 times)
// =============================================================================

func BenchmarkUnique_KVFlow_Large(b *testing.B) {
	data := generateStrings(LargeSize, 4)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = flow.FromSlice(data).UniqueValues().Values(ctx)
	}
}

func BenchmarkUnique_Lo_Large(b *testing.B) {
	data := generateStrings(LargeSize, 4)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = lo.Uniq(data)
	}
}

func BenchmarkUnique_Linq_Large(b *testing.B) {
	data := generateStrings(LargeSize, 4)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		var result []string
		linq.From(data).Distinct().ToSlice(&result)
	}
}
