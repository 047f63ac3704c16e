package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/lguimbarda/kvflow/flow/core"
)

// Instrument names reported by WithMetrics.
const (
	MetricItems       = "kvflow.items"
	MetricErrors      = "kvflow.errors"
	MetricRuns        = "kvflow.runs"
	MetricRunDuration = "kvflow.run.duration"
)

// Attribute keys reported by WithMetrics.
const (
	AttrDecision = attribute.Key("kvflow.decision")
	AttrMode     = attribute.Key("kvflow.mode")
	AttrStatus   = attribute.Key("kvflow.status")
)

// WithMetrics attaches hooks recording runs over Item[K, V] on OpenTelemetry
// instruments created from meter: emitted items, per-item errors by
// decision, completed runs by mode and status, and run duration in seconds.
// attrs are added to every measurement.
//
// Runs using the returned context should not overlap; the mode and start
// time of the latest run are shared.
func WithMetrics[K, V any](ctx context.Context, meter metric.Meter, attrs ...attribute.KeyValue) (context.Context, error) {
	items, err := meter.Int64Counter(MetricItems,
		metric.WithDescription("Items emitted by runs"),
		metric.WithUnit("{item}"))
	if err != nil {
		return ctx, err
	}
	errs, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Per-item errors by handler decision"),
		metric.WithUnit("{error}"))
	if err != nil {
		return ctx, err
	}
	runs, err := meter.Int64Counter(MetricRuns,
		metric.WithDescription("Completed runs"),
		metric.WithUnit("{run}"))
	if err != nil {
		return ctx, err
	}
	duration, err := meter.Float64Histogram(MetricRunDuration,
		metric.WithDescription("Run duration"),
		metric.WithUnit("s"))
	if err != nil {
		return ctx, err
	}

	base := metric.WithAttributes(attrs...)
	var (
		mode    core.Mode
		started time.Time
	)
	return core.WithHooks(ctx, core.Hooks[K, V]{
		OnStart: func(m core.Mode) {
			mode = m
			started = time.Now()
		},
		OnItem: func(K, V) {
			items.Add(ctx, 1, base)
		},
		OnError: func(_ error, _ K, _ V, d core.Decision) {
			errs.Add(ctx, 1, base, metric.WithAttributes(AttrDecision.String(d.String())))
		},
		OnComplete: func(err error) {
			status := "ok"
			if err != nil {
				status = "error"
			}
			runAttrs := metric.WithAttributes(AttrMode.String(mode.String()), AttrStatus.String(status))
			runs.Add(ctx, 1, base, runAttrs)
			duration.Record(ctx, time.Since(started).Seconds(), base, runAttrs)
		},
	}), nil
}
