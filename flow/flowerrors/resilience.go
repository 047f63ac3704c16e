package flowerrors

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/lguimbarda/kvflow/flow/core"
)

// ErrMaxRetries is wrapped around the last error once every attempt of a
// retried mapper failed.
var ErrMaxRetries = errors.New("max retries exceeded")

// The decorators in this file wrap a mapper so that failures are dealt with
// before they reach the handler chain.

// Retry wraps fn so that a failing item is attempted up to maxRetries more
// times. When every attempt fails the mapper returns the last error joined
// with ErrMaxRetries.
func Retry[K, V any](maxRetries int, fn core.Mapper[K, V]) core.Mapper[K, V] {
	return RetryWithBackoff(context.Background(), maxRetries, nil, fn)
}

// BackoffStrategy defines how to calculate delay between retries.
type BackoffStrategy func(attempt int) time.Duration

// ConstantBackoff returns a BackoffStrategy that always waits the same duration.
func ConstantBackoff(delay time.Duration) BackoffStrategy {
	return func(int) time.Duration {
		return delay
	}
}

// LinearBackoff returns a BackoffStrategy that increases delay linearly.
func LinearBackoff(initialDelay time.Duration) BackoffStrategy {
	return func(attempt int) time.Duration {
		return time.Duration(attempt+1) * initialDelay
	}
}

// ExponentialBackoff returns a BackoffStrategy that doubles delay each attempt.
// The delay is capped at maxDelay if provided (use 0 for no cap).
func ExponentialBackoff(initialDelay, maxDelay time.Duration) BackoffStrategy {
	return func(attempt int) time.Duration {
		delay := initialDelay * time.Duration(math.Pow(2, float64(attempt)))
		if maxDelay > 0 && delay > maxDelay {
			return maxDelay
		}
		return delay
	}
}

// RetryWithBackoff is Retry with a delay between attempts. A nil backoff
// retries at once. Waiting stops when ctx is done, and the mapper then
// returns ctx.Err().
func RetryWithBackoff[K, V any](ctx context.Context, maxRetries int, backoff BackoffStrategy, fn core.Mapper[K, V]) core.Mapper[K, V] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return func(value V, key K) (V, error) {
		var lastErr error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 && backoff != nil {
				if err := sleep(ctx, backoff(attempt-1)); err != nil {
					return value, err
				}
			}
			out, err := fn.Map(value, key)
			if err == nil {
				return out, nil
			}
			lastErr = err
		}
		if maxRetries == 0 {
			return value, lastErr
		}
		return value, errors.Join(ErrMaxRetries, lastErr)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Fallback wraps fn so that a failure is replaced by the value fallbackFn
// computes from the original value and the error.
func Fallback[K, V any](fn core.Mapper[K, V], fallbackFn func(value V, key K, err error) V) core.Mapper[K, V] {
	return func(value V, key K) (V, error) {
		out, err := fn.Map(value, key)
		if err != nil {
			return fallbackFn(value, key, err), nil
		}
		return out, nil
	}
}

// FallbackValue wraps fn so that a failure is replaced by defaultValue.
func FallbackValue[K, V any](fn core.Mapper[K, V], defaultValue V) core.Mapper[K, V] {
	return Fallback(fn, func(V, K, error) V { return defaultValue })
}

// Recover wraps fn so that recoverFn gets a chance to turn a failure into a
// value. An error returned by recoverFn replaces the original one.
func Recover[K, V any](fn core.Mapper[K, V], recoverFn func(err error) (V, error)) core.Mapper[K, V] {
	return func(value V, key K) (V, error) {
		out, err := fn.Map(value, key)
		if err == nil {
			return out, nil
		}
		return recoverFn(err)
	}
}
