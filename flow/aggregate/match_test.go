package aggregate_test

import (
	"context"
	"testing"

	"github.com/lguimbarda/kvflow/flow"
	"github.com/lguimbarda/kvflow/flow/aggregate"
)

func TestMatch(t *testing.T) {
	positive := func(v, _ int) bool { return v > 0 }
	tests := []struct {
		name      string
		input     []int
		any, all  bool
		none      bool
		firstHit  int
		firstSeen bool
	}{
		{"all positive", []int{1, 2, 3}, true, true, false, 0, true},
		{"mixed", []int{-1, 2, -3}, true, false, false, 1, true},
		{"none positive", []int{-1, -2}, false, false, true, 0, false},
		{"empty", nil, false, true, true, 0, false},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := aggregate.Any(ctx, flow.FromSlice(tt.input), positive); err != nil || got != tt.any {
				t.Errorf("Any = %v, %v, want %v", got, err, tt.any)
			}
			if got, err := aggregate.All(ctx, flow.FromSlice(tt.input), positive); err != nil || got != tt.all {
				t.Errorf("All = %v, %v, want %v", got, err, tt.all)
			}
			if got, err := aggregate.None(ctx, flow.FromSlice(tt.input), positive); err != nil || got != tt.none {
				t.Errorf("None = %v, %v, want %v", got, err, tt.none)
			}
			it, found, err := aggregate.Find(ctx, flow.FromSlice(tt.input), positive)
			if err != nil || found != tt.firstSeen || (found && it.Key != tt.firstHit) {
				t.Errorf("Find = %v, %v, %v", it, found, err)
			}
		})
	}
}

func TestAnyStopsEarly(t *testing.T) {
	seen := 0
	found, err := aggregate.Any(context.Background(),
		flow.Of(1, 2, 3, 4).Tap(func(int, int) { seen++ }),
		func(v, _ int) bool { return v == 2 })
	if err != nil || !found {
		t.Fatalf("Any = %v, %v", found, err)
	}
	if seen != 2 {
		t.Errorf("inspected %d items, want 2", seen)
	}
}

func TestAllNilPredicate(t *testing.T) {
	if _, err := aggregate.All[int, int](context.Background(), flow.Of(1), nil); err == nil {
		t.Error("expected an error for a nil predicate")
	}
}
