package flow_test

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lguimbarda/kvflow/flow"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		size int
		want [][]int
	}{
		{"even split", []int{1, 2, 3, 4}, 2, [][]int{{1, 2}, {3, 4}}},
		{"short last chunk", []int{1, 2, 3, 4, 5}, 2, [][]int{{1, 2}, {3, 4}, {5}}},
		{"larger than input", []int{1, 2}, 5, [][]int{{1, 2}}},
		{"empty input", nil, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flow.Chunk(flow.FromSlice(tt.in), tt.size).Values(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("chunks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name       string
		in         []int
		size, step int
		want       [][]int
	}{
		{"sliding", []int{1, 2, 3, 4, 5}, 3, 1, [][]int{{1, 2, 3}, {2, 3, 4}, {3, 4, 5}}},
		{"step two", []int{1, 2, 3, 4, 5, 6}, 2, 2, [][]int{{1, 2}, {3, 4}, {5, 6}}},
		{"gaps", []int{1, 2, 3, 4, 5, 6, 7}, 2, 3, [][]int{{1, 2}, {4, 5}}},
		{"partial windows dropped", []int{1, 2, 3, 4}, 3, 2, [][]int{{1, 2, 3}}},
		{"too short", []int{1, 2}, 3, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := flow.Window(flow.FromSlice(tt.in), tt.size, tt.step).Values(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("windows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStageInvalidArguments(t *testing.T) {
	ctx := context.Background()
	checks := map[string]error{}
	_, checks["chunk"] = flow.Chunk(flow.Of(1), 0).Values(ctx)
	_, checks["window size"] = flow.Window(flow.Of(1), 0, 1).Values(ctx)
	_, checks["window step"] = flow.Window(flow.Of(1), 1, 0).Values(ctx)
	_, checks["zip nil"] = flow.Zip(flow.Of(1), nil).Values(ctx)
	_, checks["map to nil"] = flow.MapTo[int, int, string](flow.Of(1), nil).Values(ctx)
	_, checks["fork sourced prototype"] = flow.Fork(flow.Of(1), func(v, _ int) int { return v }, flow.Of(2)).Values(ctx)
	_, checks["upstream error"] = flow.Reindex(flow.Of(1).Limit(-1)).Values(ctx)
	for name, err := range checks {
		if !errors.Is(err, flow.ErrInvalidArgument) {
			t.Errorf("%s: error = %v, want ErrInvalidArgument", name, err)
		}
	}
}

func TestZip(t *testing.T) {
	got, err := flow.Zip(flow.Of(1, 2, 3), flow.Of(10, 20), flow.Of(100, 200, 300)).Items(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []flow.Item[int, []int]{
		{Key: 0, Value: []int{1, 10, 100}},
		{Key: 1, Value: []int{2, 20, 200}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("zip mismatch (-want +got):\n%s", diff)
	}
}

func TestZipReportsOtherErrors(t *testing.T) {
	other := flow.Of(1, 2).Map(func(v, _ int) (int, error) {
		if v == 2 {
			return 0, errBroken
		}
		return v, nil
	})
	got, err := flow.Zip(flow.Of(1, 2, 3), other).Values(context.Background())
	if !errors.Is(err, errBroken) {
		t.Fatalf("error = %v, want errBroken", err)
	}
	if diff := cmp.Diff([][]int{{1, 1}}, got); diff != "" {
		t.Errorf("zip mismatch (-want +got):\n%s", diff)
	}
}

func TestFlatAndReindex(t *testing.T) {
	chunks := flow.FromMap(map[string][]int{"a": {1, 2, 3}})
	got, err := flow.Reindex(flow.Flat(chunks)).Items(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []flow.Item[int, int]{{Key: 0, Value: 1}, {Key: 1, Value: 2}, {Key: 2, Value: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	keys, err := flow.Flat(flow.FromMap(map[string][]int{"k": {7, 8}})).Keys(context.Background())
	if err != nil || !slices.Equal(keys, []string{"k", "k"}) {
		t.Errorf("Flat keys = %v, %v, want [k k]", keys, err)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	in := []int{5, 4, 3, 2, 1, 0, -1}
	got, err := flow.Flat(flow.Chunk(flow.FromSlice(in), 3)).Values(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, in) {
		t.Errorf("Flat(Chunk(x)) = %v, want %v", got, in)
	}
}

func TestMapTo(t *testing.T) {
	ctx := context.Background()
	format := func(v, _ int) (string, error) {
		if v == 3 {
			return "", errBroken
		}
		return strconv.Itoa(v), nil
	}

	t.Run("unhandled error", func(t *testing.T) {
		got, err := flow.MapTo(flow.Of(1, 2, 3, 4), format).Values(ctx)
		var ie *flow.ItemError
		if !errors.As(err, &ie) || ie.Key != 2 || ie.Value != 3 {
			t.Fatalf("error = %v, want ItemError for (2, 3)", err)
		}
		if !slices.Equal(got, []string{"1", "2"}) {
			t.Errorf("got %v, want [1 2]", got)
		}
	})

	t.Run("skipped by upstream handlers", func(t *testing.T) {
		s := flow.Of(1, 2, 3, 4).With(flow.WithErrorHandlers(skipAll()))
		got, err := flow.MapTo(s, format).Values(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, []string{"1", "2", "4"}) {
			t.Errorf("got %v, want [1 2 4]", got)
		}
	})

	t.Run("chained operations on the new type", func(t *testing.T) {
		got, err := flow.MapKeyTo(flow.Of(10, 20, 30), func(_ int, k int) (string, error) {
			return "k" + strconv.Itoa(k), nil
		}).Reverse().Keys(ctx)
		if err != nil || !slices.Equal(got, []string{"k2", "k1", "k0"}) {
			t.Errorf("got %v, %v, want [k2 k1 k0]", got, err)
		}
	})
}

func TestFork(t *testing.T) {
	parity := func(v, _ int) string {
		if v%2 == 0 {
			return "even"
		}
		return "odd"
	}
	proto := flow.New[int, int]().SortBy(flow.Descending[int]()).Limit(2)
	got, err := flow.Fork(flow.Of(1, 2, 3, 4, 5, 6), parity, proto).Items(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []flow.Item[string, []flow.Item[int, int]]{
		{Key: "odd", Value: []flow.Item[int, int]{{Key: 4, Value: 5}, {Key: 2, Value: 3}}},
		{Key: "even", Value: []flow.Item[int, int]{{Key: 5, Value: 6}, {Key: 3, Value: 4}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fork mismatch (-want +got):\n%s", diff)
	}
}

func TestDerivedStreamCannotBeCloned(t *testing.T) {
	if _, err := flow.Reindex(flow.Of(1)).Clone(); !errors.Is(err, flow.ErrInvalidArgument) {
		t.Errorf("Clone() error = %v, want ErrInvalidArgument", err)
	}
}

func TestDiscriminatorErrors(t *testing.T) {
	ctx := context.Background()
	abort := flow.ErrorHandlerFunc(func(error, any, any) flow.Decision { return flow.Abort })
	parity := func(v, _ int) bool {
		if v == 3 {
			panic("three")
		}
		return v%2 == 0
	}

	tests := []struct {
		name     string
		handlers []flow.ErrorHandler
		want     map[bool][]int
		wantErr  bool
	}{
		{name: "skip", handlers: []flow.ErrorHandler{skipAll()}, want: map[bool][]int{false: {1, 5}, true: {2, 4}}},
		{name: "abort", handlers: []flow.ErrorHandler{abort}, want: map[bool][]int{false: {1}, true: {2}}},
		{name: "escalate", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("group by "+tt.name, func(t *testing.T) {
			s := flow.Of(1, 2, 3, 4, 5).With(flow.WithErrorHandlers(tt.handlers...))
			groups, err := flow.GroupBy(ctx, s, parity)
			if tt.wantErr {
				var itemErr *flow.ItemError
				if !errors.As(err, &itemErr) || itemErr.Value != 3 {
					t.Fatalf("err = %v, want an ItemError for 3", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := map[bool][]int{}
			for class, items := range groups {
				for _, it := range items {
					got[class] = append(got[class], it.Value)
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("groups mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run("fork "+tt.name, func(t *testing.T) {
			s := flow.Of(1, 2, 3, 4, 5).With(flow.WithErrorHandlers(tt.handlers...))
			forked, err := flow.Fork(s, parity, flow.New[int, int]()).Items(ctx)
			if tt.wantErr {
				var itemErr *flow.ItemError
				if !errors.As(err, &itemErr) || itemErr.Value != 3 {
					t.Fatalf("err = %v, want an ItemError for 3", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := map[bool][]int{}
			for _, branch := range forked {
				for _, it := range branch.Value {
					got[branch.Key] = append(got[branch.Key], it.Value)
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("branches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDerivedStreamRunsHooksOnce(t *testing.T) {
	starts, items, completes := 0, 0, 0
	ctx := flow.WithHooks(context.Background(), flow.Hooks[int, string]{
		OnStart:    func(flow.Mode) { starts++ },
		OnItem:     func(int, string) { items++ },
		OnComplete: func(error) { completes++ },
	})
	got, err := flow.Reindex(flow.Of("a", "b", "c")).Values(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
	if starts != 1 || items != 3 || completes != 1 {
		t.Errorf("hooks fired start=%d item=%d complete=%d, want 1, 3, 1", starts, items, completes)
	}
}
