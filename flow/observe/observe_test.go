package observe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lguimbarda/kvflow/flow"
	"github.com/lguimbarda/kvflow/flow/flowerrors"
	"github.com/lguimbarda/kvflow/flow/observe"
)

var errOdd = errors.New("odd")

func failOdd(v, _ int) (int, error) {
	if v%2 != 0 {
		return v, errOdd
	}
	return v * 10, nil
}

func TestWithStats(t *testing.T) {
	tests := []struct {
		name     string
		mode     flow.Mode
		handlers []flow.ErrorHandler
		wantErr  bool
		want     observe.RunStats
	}{
		{
			name:     "skip in pull mode",
			mode:     flow.ModePull,
			handlers: []flow.ErrorHandler{flowerrors.Skip()},
			want:     observe.RunStats{Mode: flow.ModePull, Items: 3, Errors: 3, Skipped: 3},
		},
		{
			name:     "skip in push mode",
			mode:     flow.ModePush,
			handlers: []flow.ErrorHandler{flowerrors.Skip()},
			want:     observe.RunStats{Mode: flow.ModePush, Items: 3, Errors: 3, Skipped: 3},
		},
		{
			name:     "abort",
			mode:     flow.ModePull,
			handlers: []flow.ErrorHandler{flowerrors.Abort()},
			want:     observe.RunStats{Mode: flow.ModePull, Items: 0, Errors: 1, Aborted: 1},
		},
		{
			name:    "escalate",
			mode:    flow.ModePull,
			wantErr: true,
			want:    observe.RunStats{Mode: flow.ModePull, Items: 0, Errors: 1, Escalated: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got observe.RunStats
			calls := 0
			ctx := observe.WithStats[int, int](context.Background(), func(s observe.RunStats) {
				calls++
				got = s
			})
			_, err := flow.Of(1, 2, 3, 4, 5, 6).
				With(flow.WithMode(tt.mode), flow.WithErrorHandlers(tt.handlers...)).
				Map(failOdd).
				Values(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != 1 {
				t.Fatalf("onComplete called %d times, want 1", calls)
			}
			if (got.Err != nil) != tt.wantErr {
				t.Errorf("stats.Err = %v, wantErr %v", got.Err, tt.wantErr)
			}
			if got.EndTime.Before(got.StartTime) {
				t.Errorf("EndTime %v before StartTime %v", got.EndTime, got.StartTime)
			}
			counts := observe.RunStats{
				Mode: got.Mode, Items: got.Items, Errors: got.Errors,
				Skipped: got.Skipped, Aborted: got.Aborted, Escalated: got.Escalated,
			}
			if diff := cmp.Diff(tt.want, counts); diff != "" {
				t.Errorf("stats mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithStatsLatency(t *testing.T) {
	var got observe.RunStats
	ctx := observe.WithStats[int, int](context.Background(), func(s observe.RunStats) { got = s })
	err := flow.Of(1, 2, 3).
		Tap(func(int, int) { time.Sleep(time.Millisecond) }).
		Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Items != 3 {
		t.Fatalf("Items = %d, want 3", got.Items)
	}
	if got.MinLatency <= 0 || got.MaxLatency < got.MinLatency {
		t.Errorf("latency min %v max %v", got.MinLatency, got.MaxLatency)
	}
	if got.AvgLatency < got.MinLatency || got.AvgLatency > got.MaxLatency {
		t.Errorf("AvgLatency %v outside [%v, %v]", got.AvgLatency, got.MinLatency, got.MaxLatency)
	}
	if got.ItemsPerSecond <= 0 {
		t.Errorf("ItemsPerSecond = %v, want > 0", got.ItemsPerSecond)
	}
	if got.FirstItemTime.After(got.LastItemTime) {
		t.Error("FirstItemTime after LastItemTime")
	}
}

func TestWithLiveMetrics(t *testing.T) {
	ctx, m := observe.WithLiveMetrics[int, int](context.Background())
	if m.Duration() != 0 || m.ItemsPerSecond() != 0 {
		t.Fatal("metrics should be idle before any run")
	}
	for range 2 {
		_, err := flow.Of(1, 2, 3, 4).
			With(flow.WithErrorHandlers(flowerrors.Skip())).
			Map(failOdd).
			Values(ctx)
		if err != nil {
			t.Fatal(err)
		}
	}
	if m.Runs() != 2 || m.Active() != 0 {
		t.Errorf("Runs() = %d Active() = %d, want 2 and 0", m.Runs(), m.Active())
	}
	if m.Items() != 4 || m.Errors() != 4 {
		t.Errorf("Items() = %d Errors() = %d, want 4 and 4", m.Items(), m.Errors())
	}
	if m.StartTime().After(m.LastItemTime()) {
		t.Error("StartTime after LastItemTime")
	}
}

func TestWithProgress(t *testing.T) {
	var reports []observe.ProgressReport
	ctx := observe.WithProgress[int, int](context.Background(), 4, 0, func(r observe.ProgressReport) {
		reports = append(reports, r)
	})
	if err := flow.Of(1, 2, 3, 4).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(reports) != 5 {
		t.Fatalf("got %d reports, want 5", len(reports))
	}
	for i, r := range reports[:4] {
		if r.Processed != int64(i+1) || r.Done {
			t.Errorf("report %d = %+v", i, r)
		}
	}
	last := reports[4]
	if !last.Done || last.Processed != 4 || last.Percent != 100 {
		t.Errorf("final report = %+v", last)
	}
}

func TestWithProgressUnknownTotal(t *testing.T) {
	var last observe.ProgressReport
	ctx := observe.WithProgress[int, int](context.Background(), -1, time.Hour, func(r observe.ProgressReport) {
		last = r
	})
	if err := flow.Of(1, 2, 3).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !last.Done || last.Processed != 3 || last.Remaining != -1 || last.Percent != 0 {
		t.Errorf("final report = %+v", last)
	}
}

func TestWithRecorder(t *testing.T) {
	ctx, rec := observe.WithRecorder[int, int](context.Background())
	_, err := flow.Of(2, 3, 4).
		With(flow.WithErrorHandlers(flowerrors.Skip())).
		Map(failOdd).
		Values(ctx)
	if err != nil {
		t.Fatal(err)
	}

	wantKinds := []observe.NotificationKind{
		observe.NotificationStart,
		observe.NotificationItem,
		observe.NotificationError,
		observe.NotificationItem,
		observe.NotificationComplete,
	}
	if diff := cmp.Diff(wantKinds, rec.Kinds()); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	events := rec.Events()
	if events[1].Key != 0 || events[1].Value != 20 {
		t.Errorf("first item = %d => %d, want 0 => 20", events[1].Key, events[1].Value)
	}
	if e := events[2]; e.Key != 1 || e.Value != 3 || !errors.Is(e.Error, errOdd) || e.Decision != flow.Continue {
		t.Errorf("error event = %+v", e)
	}
	if events[4].Error != nil {
		t.Errorf("complete error = %v", events[4].Error)
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Error("Reset did not drop the events")
	}
}

func TestNotificationKindString(t *testing.T) {
	tests := map[observe.NotificationKind]string{
		observe.NotificationStart:    "start",
		observe.NotificationItem:     "item",
		observe.NotificationError:    "error",
		observe.NotificationComplete: "complete",
		observe.NotificationKind(42): "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
