// Package flow provides lazy, composable data pipelines over (key, value)
// items.
//
// This package is the primary user-facing API. Most users should only
// need to import this package. The flow/core subpackage contains
// low-level abstractions that are rarely needed directly, and flow/op
// holds the operations a Stream is built from.
package flow

import (
	"cmp"
	"context"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Type aliases for core abstractions.
// These allow users to work with the framework without importing core directly.
type (
	// Item is a (key, value) pair.
	Item[K, V any] = core.Item[K, V]

	// Operation is a node of a chain; see flow/op for the built-in ones.
	Operation[K, V any] = core.Operation[K, V]

	// Producer is anything that can produce a sequence of pairs.
	Producer[K, V any] = core.Producer[K, V]

	// ContextProducer is a Producer read with the context of the run.
	ContextProducer[K, V any] = core.ContextProducer[K, V]

	// Collector receives items from CollectInto and Into.
	Collector[K, V any] = core.Collector[K, V]

	// Reducer aggregates values for Reduce.
	Reducer[V any] = core.Reducer[V]

	// Predicate tests an item.
	Predicate[K, V any] = core.Predicate[K, V]

	// Mapper transforms the value of an item.
	Mapper[K, V any] = core.Mapper[K, V]

	// KeyMapper computes a new key for an item.
	KeyMapper[K, V any] = core.KeyMapper[K, V]

	// Consumer observes an item.
	Consumer[K, V any] = core.Consumer[K, V]

	// Discriminator classifies an item.
	Discriminator[K, V any, D comparable] = core.Discriminator[K, V, D]

	// Comparator is a three-way comparison.
	Comparator[T any] = core.Comparator[T]

	// ItemComparator orders whole items.
	ItemComparator[K, V any] = core.ItemComparator[K, V]

	// Cursor is an explicit pull-style iterator over a run.
	Cursor[K, V any] = core.Cursor[K, V]

	// Feeder drives a stream one item at a time.
	Feeder[K, V any] = core.Feeder[K, V]

	// Hooks observe runs over Item[K, V].
	Hooks[K, V any] = core.Hooks[K, V]

	// Mode selects the execution strategy of a run.
	Mode = core.Mode

	// Option configures a run.
	Option = core.Option

	// ErrorHandler decides what happens after a per-item error.
	ErrorHandler = core.ErrorHandler

	// ErrorHandlerFunc adapts a function to an ErrorHandler.
	ErrorHandlerFunc = core.ErrorHandlerFunc

	// ItemError reports a per-item error no handler took care of.
	ItemError = core.ItemError

	// Decision is the outcome of an ErrorHandler.
	Decision = core.Decision
)

// Execution modes.
const (
	ModeAuto = core.ModeAuto
	ModePull = core.ModePull
	ModePush = core.ModePush
)

// Error handler decisions.
const (
	Defer    = core.Defer
	Continue = core.Continue
	Abort    = core.Abort
)

// Errors reported by terminals.
var (
	ErrInvalidArgument = core.ErrInvalidArgument
	ErrChainStarted    = core.ErrChainStarted
	ErrStreamConsumed  = core.ErrStreamConsumed
	ErrEmptyStream     = core.ErrEmptyStream
	ErrNoResult        = core.ErrNoResult
)

// WithMode forces an execution strategy.
func WithMode(m Mode) Option { return core.WithMode(m) }

// WithErrorHandlers appends handlers to the error chain of the run.
func WithErrorHandlers(handlers ...ErrorHandler) Option {
	return core.WithErrorHandlers(handlers...)
}

// WithHooks attaches typed hooks to the context.
func WithHooks[K, V any](ctx context.Context, hooks Hooks[K, V]) context.Context {
	return core.WithHooks(ctx, hooks)
}

// Ascending orders values naturally.
func Ascending[T cmp.Ordered]() Comparator[T] { return core.Ascending[T]() }

// Descending orders values in reverse natural order.
func Descending[T cmp.Ordered]() Comparator[T] { return core.Descending[T]() }

// ByValue orders items by value.
func ByValue[K, V any](c Comparator[V]) ItemComparator[K, V] { return core.ByValue[K](c) }

// ByKey orders items by key.
func ByKey[K, V any](c Comparator[K]) ItemComparator[K, V] { return core.ByKey[K, V](c) }
