// Package observe collects statistics about runs through typed hooks. Every
// function here attaches hooks to a context; runs started with that context
// over the matching item type report to them, and nothing else changes.
package observe

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lguimbarda/kvflow/flow/core"
)

// RunStats holds statistics about one run.
type RunStats struct {
	Mode core.Mode

	// Counts
	Items     int64
	Errors    int64
	Skipped   int64
	Aborted   int64
	Escalated int64

	// Timing
	StartTime     time.Time
	EndTime       time.Time
	FirstItemTime time.Time
	LastItemTime  time.Time

	// Throughput
	ItemsPerSecond float64

	// Latency (time between items)
	MinLatency time.Duration
	MaxLatency time.Duration
	AvgLatency time.Duration

	// Err is the error the run ended with.
	Err error
}

// Duration returns how long the run took.
func (s RunStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// WithStats attaches hooks gathering RunStats for runs over Item[K, V].
// onComplete receives the statistics when a run completes.
func WithStats[K, V any](ctx context.Context, onComplete func(RunStats)) context.Context {
	var (
		stats        RunStats
		lastItemTime time.Time
		totalLatency time.Duration
		latencyCount int64
	)
	return core.WithHooks(ctx, core.Hooks[K, V]{
		OnStart: func(mode core.Mode) {
			stats = RunStats{Mode: mode, StartTime: time.Now()}
			lastItemTime = time.Time{}
			totalLatency, latencyCount = 0, 0
		},
		OnItem: func(K, V) {
			now := time.Now()
			stats.Items++
			if stats.Items == 1 {
				stats.FirstItemTime = now
			}
			stats.LastItemTime = now

			if !lastItemTime.IsZero() {
				latency := now.Sub(lastItemTime)
				if latencyCount == 0 || latency < stats.MinLatency {
					stats.MinLatency = latency
				}
				if latency > stats.MaxLatency {
					stats.MaxLatency = latency
				}
				totalLatency += latency
				latencyCount++
			}
			lastItemTime = now
		},
		OnError: func(_ error, _ K, _ V, d core.Decision) {
			stats.Errors++
			switch d {
			case core.Continue:
				stats.Skipped++
			case core.Abort:
				stats.Aborted++
			default:
				stats.Escalated++
			}
		},
		OnComplete: func(err error) {
			stats.EndTime = time.Now()
			stats.Err = err
			if stats.Items > 0 {
				if seconds := stats.Duration().Seconds(); seconds > 0 {
					stats.ItemsPerSecond = float64(stats.Items) / seconds
				}
				if latencyCount > 0 {
					stats.AvgLatency = totalLatency / time.Duration(latencyCount)
				}
			}
			if onComplete != nil {
				onComplete(stats)
			}
		},
	})
}

// LiveMetrics holds counters that can be read concurrently while runs are
// in progress, for instance by a progress reporter on another goroutine.
type LiveMetrics struct {
	runs         atomic.Int64
	active       atomic.Int64
	items        atomic.Int64
	errors       atomic.Int64
	startTime    atomic.Int64 // Unix nano
	lastItemTime atomic.Int64 // Unix nano
}

// Runs returns the number of runs started.
func (m *LiveMetrics) Runs() int64 { return m.runs.Load() }

// Active returns the number of runs in progress.
func (m *LiveMetrics) Active() int64 { return m.active.Load() }

// Items returns the number of items emitted.
func (m *LiveMetrics) Items() int64 { return m.items.Load() }

// Errors returns the number of per-item errors.
func (m *LiveMetrics) Errors() int64 { return m.errors.Load() }

// StartTime returns when the first run started.
func (m *LiveMetrics) StartTime() time.Time {
	return time.Unix(0, m.startTime.Load())
}

// LastItemTime returns when the last item was emitted.
func (m *LiveMetrics) LastItemTime() time.Time {
	return time.Unix(0, m.lastItemTime.Load())
}

// Duration returns the time elapsed since the first run started.
func (m *LiveMetrics) Duration() time.Duration {
	start := m.startTime.Load()
	if start == 0 {
		return 0
	}
	return time.Since(time.Unix(0, start))
}

// ItemsPerSecond returns the current throughput.
func (m *LiveMetrics) ItemsPerSecond() float64 {
	duration := m.Duration().Seconds()
	if duration <= 0 {
		return 0
	}
	return float64(m.Items()) / duration
}

// WithLiveMetrics attaches hooks updating live counters for runs over
// Item[K, V] and returns them.
func WithLiveMetrics[K, V any](ctx context.Context) (context.Context, *LiveMetrics) {
	m := &LiveMetrics{}
	ctx = core.WithHooks(ctx, core.Hooks[K, V]{
		OnStart: func(core.Mode) {
			m.runs.Add(1)
			m.active.Add(1)
			m.startTime.CompareAndSwap(0, time.Now().UnixNano())
		},
		OnItem: func(K, V) {
			m.items.Add(1)
			m.lastItemTime.Store(time.Now().UnixNano())
		},
		OnError:    func(error, K, V, core.Decision) { m.errors.Add(1) },
		OnComplete: func(error) { m.active.Add(-1) },
	})
	return ctx, m
}

// ProgressReport holds information for progress reporting.
type ProgressReport struct {
	Processed int64
	Total     int64 // -1 if unknown
	Percent   float64
	Elapsed   time.Duration
	Remaining time.Duration // Estimated, -1 if unknown
	Done      bool
}

// WithProgress attaches hooks reporting the progress of runs over Item[K, V].
// If total is known, pass it; otherwise pass -1. onProgress is called at
// most once per interval while items are emitted (on every item when
// interval is zero) and once more when the run completes.
func WithProgress[K, V any](ctx context.Context, total int64, interval time.Duration, onProgress func(ProgressReport)) context.Context {
	var (
		processed  int64
		startTime  time.Time
		lastReport time.Time
	)
	report := func(done bool) {
		elapsed := time.Since(startTime)
		r := ProgressReport{
			Processed: processed,
			Total:     total,
			Elapsed:   elapsed,
			Remaining: -1,
			Done:      done,
		}
		if total > 0 {
			r.Percent = float64(processed) / float64(total) * 100
			if processed > 0 && elapsed > 0 {
				rate := float64(processed) / elapsed.Seconds()
				remaining := float64(total-processed) / rate
				r.Remaining = time.Duration(remaining * float64(time.Second))
			}
		}
		if onProgress != nil {
			onProgress(r)
		}
	}
	return core.WithHooks(ctx, core.Hooks[K, V]{
		OnStart: func(core.Mode) {
			processed = 0
			startTime = time.Now()
			lastReport = startTime
		},
		OnItem: func(K, V) {
			processed++
			if time.Since(lastReport) >= interval {
				report(false)
				lastReport = time.Now()
			}
		},
		OnComplete: func(error) { report(true) },
	})
}
