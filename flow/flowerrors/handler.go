// Package flowerrors provides error handlers for the per-item error chain of
// a run, and hooks that observe errors for logging, counting and collection.
//
// Handlers are consulted in order when an operation fails on an item. Each
// one either decides (Continue drops the item, Abort ends the run quietly)
// or defers to the next. An error every handler deferred ends the run with
// a *core.ItemError.
package flowerrors

import (
	"sync"
	"sync/atomic"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Func adapts a function to core.ErrorHandler.
func Func(fn func(err error, key, value any) core.Decision) core.ErrorHandler {
	return core.ErrorHandlerFunc(fn)
}

// Skip recovers from every error: the failing item is dropped.
func Skip() core.ErrorHandler {
	return decide(core.Continue)
}

// Abort ends the run at the first error, without reporting it.
func Abort() core.ErrorHandler {
	return decide(core.Abort)
}

// Escalate always defers, so the error ends the run unless an earlier
// handler decided. It marks the end of a chain explicitly.
func Escalate() core.ErrorHandler {
	return decide(core.Defer)
}

func decide(d core.Decision) core.ErrorHandler {
	return core.ErrorHandlerFunc(func(error, any, any) core.Decision { return d })
}

// SkipIf drops the failing item when match reports true, and defers otherwise.
func SkipIf(match func(error) bool) core.ErrorHandler {
	return when(match, core.Continue)
}

// AbortIf ends the run when match reports true, and defers otherwise.
func AbortIf(match func(error) bool) core.ErrorHandler {
	return when(match, core.Abort)
}

func when(match func(error) bool, d core.Decision) core.ErrorHandler {
	if match == nil {
		return Escalate()
	}
	return core.ErrorHandlerFunc(func(err error, _, _ any) core.Decision {
		if match(err) {
			return d
		}
		return core.Defer
	})
}

// Counter counts the errors matching its predicate and always defers.
type Counter struct {
	predicate func(error) bool
	count     atomic.Int64
}

// NewCounter creates a Counter. A nil predicate counts every error.
func NewCounter(predicate func(error) bool) *Counter {
	if predicate == nil {
		predicate = func(error) bool { return true }
	}
	return &Counter{predicate: predicate}
}

func (c *Counter) HandleError(err error, _, _ any) core.Decision {
	if c.predicate(err) {
		c.count.Add(1)
	}
	return core.Defer
}

// Count returns the number of errors counted.
func (c *Counter) Count() int64 {
	return c.count.Load()
}

// Collector keeps the errors it sees for later inspection and always defers.
type Collector struct {
	mu        sync.Mutex
	errors    []error
	predicate func(error) bool
	maxErrors int // 0 = unlimited
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithPredicate filters which errors to collect.
func WithPredicate(predicate func(error) bool) CollectorOption {
	return func(c *Collector) {
		c.predicate = predicate
	}
}

// WithMaxErrors limits the number of errors to collect.
func WithMaxErrors(max int) CollectorOption {
	return func(c *Collector) {
		c.maxErrors = max
	}
}

// NewCollector creates a Collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{predicate: func(error) bool { return true }}
	for _, opt := range opts {
		opt(c)
	}
	if c.predicate == nil {
		c.predicate = func(error) bool { return true }
	}
	return c
}

func (c *Collector) HandleError(err error, key, value any) core.Decision {
	if !c.predicate(err) {
		return core.Defer
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxErrors > 0 && len(c.errors) >= c.maxErrors {
		return core.Defer
	}
	c.errors = append(c.errors, &core.ItemError{Err: err, Key: key, Value: value})
	return core.Defer
}

// Errors returns a copy of the collected errors, each wrapped in a
// *core.ItemError naming the failing item.
func (c *Collector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]error, len(c.errors))
	copy(result, c.errors)
	return result
}

// Count returns the number of collected errors.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// Clear drops the collected errors.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = nil
}

// CircuitBreaker defers the first threshold-1 errors and aborts the run at
// the threshold-th one. Once open it aborts at every error until Reset.
// Pair it with a recovering handler after it to tolerate a bounded number
// of failures:
//
//	flow.WithErrorHandlers(flowerrors.NewCircuitBreaker(3, nil), flowerrors.Skip())
type CircuitBreaker struct {
	threshold    int
	failureCount atomic.Int64
	isOpen       atomic.Bool
	onTrip       func()
}

// NewCircuitBreaker creates a CircuitBreaker. A threshold below one is
// treated as one. onTrip, if not nil, is called once when the breaker opens.
func NewCircuitBreaker(threshold int, onTrip func()) *CircuitBreaker {
	return &CircuitBreaker{threshold: max(threshold, 1), onTrip: onTrip}
}

func (cb *CircuitBreaker) HandleError(error, any, any) core.Decision {
	if cb.isOpen.Load() {
		return core.Abort
	}
	if int(cb.failureCount.Add(1)) < cb.threshold {
		return core.Defer
	}
	if cb.isOpen.CompareAndSwap(false, true) && cb.onTrip != nil {
		cb.onTrip()
	}
	return core.Abort
}

// IsOpen returns true if the circuit breaker has tripped.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.isOpen.Load()
}

// FailureCount returns the current failure count.
func (cb *CircuitBreaker) FailureCount() int64 {
	return cb.failureCount.Load()
}

// Reset closes the breaker and clears its failure count.
func (cb *CircuitBreaker) Reset() {
	cb.failureCount.Store(0)
	cb.isOpen.Store(false)
}
