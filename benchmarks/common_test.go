// Package benchmarks provides comparative benchmarks of kvflow against
// popular Go stream processing libraries.
package benchmarks

import (
	"context"
	"strconv"
)

// Test data sizes
const (
	SmallSize  = 100
	MediumSize = 1_000
	LargeSize  = 10_000
)

// generateInts creates a slice of integers for benchmarking.
func generateInts(n int) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = i
	}
	return data
}

// generateStrings creates a slice of strings for benchmarking. Every value
// repeats dup times.
func generateStrings(n, dup int) []string {
	data := make([]string, n)
	for i := range data {
		data[i] = strconv.Itoa(i / dup)
	}
	return data
}

// generateShuffled creates a pseudo-random permutation-like slice.
func generateShuffled(n int) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = (i * 7919) % n
	}
	return data
}

// Common transformation functions used across benchmarks
// Note: kvflow callbacks receive the value first, then the key

// squareValue returns the square of a value (kvflow compatible).
func squareValue(x, _ int) (int, error) {
	return x * x, nil
}

// evenValue returns true if the value is even (kvflow compatible).
func evenValue(x, _ int) bool {
	return x%2 == 0
}

// square returns the square of an integer (for other libraries).
func square(x int) int {
	return x * x
}

// isEven returns true if the number is even.
func isEven(x int) bool {
	return x%2 == 0
}

// add returns the sum of two integers.
func add(a, b int) int {
	return a + b
}

// Background context for benchmarks
var ctx = context.Background()
