package producer_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lguimbarda/kvflow/flow"
	"github.com/lguimbarda/kvflow/flow/producer"
)

func items[K, V any](t *testing.T, p flow.Producer[K, V]) []flow.Item[K, V] {
	t.Helper()
	got, err := flow.From(p).Items(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

func TestSlice(t *testing.T) {
	p := producer.Slice("a", "b", "c")
	if n, ok := p.Len(); n != 3 || !ok {
		t.Fatalf("Len() = %d, %v", n, ok)
	}
	n, err := flow.From(p).Count(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v", n, err)
	}
	want := []flow.Item[int, string]{{Key: 0, Value: "a"}, {Key: 1, Value: "b"}, {Key: 2, Value: "c"}}
	if diff := cmp.Diff(want, items(t, p)); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestMap(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}

	got := items(t, producer.Map(m))
	slices.SortFunc(got, flow.ByKey[string, int](flow.Ascending[string]()))
	want := []flow.Item[string, int]{{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Map mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(want, items(t, producer.SortedMap(m))); diff != "" {
		t.Errorf("SortedMap mismatch (-want +got):\n%s", diff)
	}
	if n, _ := producer.SortedMap(m).Len(); n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}
}

func TestRange(t *testing.T) {
	tests := []struct {
		name             string
		start, end, step int
		want             []int
	}{
		{"ascending", 0, 5, 1, []int{0, 1, 2, 3, 4}},
		{"stepped", 0, 10, 3, []int{0, 3, 6, 9}},
		{"descending", 5, 0, -2, []int{5, 3, 1}},
		{"empty", 3, 3, 1, nil},
		{"wrong direction", 5, 0, 1, nil},
		{"zero step", 1, 4, 0, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := producer.Range(tt.start, tt.end, tt.step)
			got, err := flow.From(p).Values(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
			if n, ok := p.Len(); n != len(tt.want) || !ok {
				t.Errorf("Len() = %d, %v, want %d", n, ok, len(tt.want))
			}
		})
	}
}

func TestSeq(t *testing.T) {
	got := items(t, producer.Seq(slices.Values([]string{"x", "y"})))
	want := []flow.Item[int, string]{{Key: 0, Value: "x"}, {Key: 1, Value: "y"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestChan(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 7
	ch <- 8
	ch <- 9
	close(ch)

	want := []flow.Item[int, int]{{Key: 0, Value: 7}, {Key: 1, Value: 8}, {Key: 2, Value: 9}}
	if diff := cmp.Diff(want, items(t, producer.Chan(ch))); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestChanStopsWithContext(t *testing.T) {
	for _, mode := range []flow.Mode{flow.ModePull, flow.ModePush} {
		t.Run(mode.String(), func(t *testing.T) {
			ch := make(chan int, 1) // never closed
			ch <- 1
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var got []int
			err := flow.From(producer.Chan(ch)).
				With(flow.WithMode(mode)).
				ForEach(ctx, func(v, _ int) {
					got = append(got, v)
					cancel()
				})
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("err = %v, want context.Canceled", err)
			}
			if len(got) != 1 || got[0] != 1 {
				t.Errorf("got %v, want [1]", got)
			}
		})
	}
}

func TestInterval(t *testing.T) {
	keys, err := flow.From(producer.Interval(time.Millisecond, 3)).Keys(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	var prev time.Time
	err = flow.From(producer.Interval(time.Millisecond, 0)).
		Limit(4).
		ForEach(context.Background(), func(tick time.Time, _ int) {
			if !tick.After(prev) {
				t.Errorf("tick %v not after %v", tick, prev)
			}
			prev = tick
		})
	if err != nil {
		t.Fatal(err)
	}
}

func TestIntervalStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := flow.From(producer.Interval(time.Hour, 0)).Count(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
}
