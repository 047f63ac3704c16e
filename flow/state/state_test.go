package state_test

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lguimbarda/kvflow/flow/core"
	"github.com/lguimbarda/kvflow/flow/state"
)

func TestPriorityQueue(t *testing.T) {
	q := state.NewPriorityQueue(core.Ascending[int]())
	for _, v := range []int{5, 1, 9, 3, 7} {
		q.Push(v)
	}
	if top, ok := q.Top(); !ok || top != 9 {
		t.Fatalf("Top() = %d, %v, want 9, true", top, ok)
	}
	q.ReplaceTop(2)
	var got []int
	for q.Len() > 0 {
		v, _ := q.Pop()
		got = append(got, v)
	}
	if diff := cmp.Diff([]int{7, 5, 3, 2, 1}, got); diff != "" {
		t.Errorf("pop order mismatch (-want +got):\n%s", diff)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue reported an element")
	}
}

func TestTopK(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		input []int
		want  []int
	}{
		{name: "single", limit: 1, input: []int{4, 2, 8, 2}, want: []int{2}},
		{name: "not full", limit: 5, input: []int{4, 2, 8}, want: []int{2, 4, 8}},
		{name: "full", limit: 3, input: []int{9, 4, 7, 1, 8, 2, 6}, want: []int{1, 2, 4}},
		{name: "empty", limit: 2, input: nil, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := state.NewTopK(tt.limit, core.Ascending[int]())
			if err != nil {
				t.Fatalf("NewTopK: %v", err)
			}
			for _, v := range tt.input {
				k.Add(v)
			}
			if diff := cmp.Diff(tt.want, k.Result()); diff != "" {
				t.Errorf("Result() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTopKMatchesStableSort(t *testing.T) {
	type pair struct{ v, id int }
	byV := func(a, b pair) int { return a.v - b.v }

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		input := make([]pair, rng.Intn(40))
		for i := range input {
			input[i] = pair{v: rng.Intn(10), id: i}
		}
		limit := 1 + rng.Intn(8)

		k, err := state.NewTopK(limit, core.Comparator[pair](byV))
		if err != nil {
			t.Fatalf("NewTopK: %v", err)
		}
		for _, p := range input {
			k.Add(p)
		}

		want := slices.Clone(input)
		slices.SortStableFunc(want, byV)
		if len(want) > limit {
			want = want[:limit]
		}
		got := k.Result()
		if !slices.Equal(want, got) {
			t.Fatalf("round %d limit %d: got %v, want %v", round, limit, got, want)
		}
	}
}

func TestTopKSetLimit(t *testing.T) {
	k, _ := state.NewTopK(3, core.Ascending[int]())
	for _, v := range []int{5, 3, 9, 1} {
		k.Add(v)
	}
	if err := k.SetLimit(1); err != nil {
		t.Fatalf("SetLimit(1): %v", err)
	}
	if diff := cmp.Diff([]int{1}, k.Result()); diff != "" {
		t.Errorf("after shrink (-want +got):\n%s", diff)
	}

	if err := k.SetLimit(3); err != nil {
		t.Fatalf("SetLimit(3): %v", err)
	}
	k.Add(0)
	k.Add(7)
	k.Add(2)
	if diff := cmp.Diff([]int{0, 1, 2}, k.Result()); diff != "" {
		t.Errorf("after grow (-want +got):\n%s", diff)
	}

	if err := k.SetLimit(0); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("SetLimit(0) error = %v, want ErrInvalidArgument", err)
	}
}

func TestTopKInvalid(t *testing.T) {
	if _, err := state.NewTopK(0, core.Ascending[int]()); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("limit 0: error = %v, want ErrInvalidArgument", err)
	}
	if _, err := state.NewTopK[int](2, nil); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("nil comparator: error = %v, want ErrInvalidArgument", err)
	}
}

func TestTopKUseAfterDestroy(t *testing.T) {
	k, _ := state.NewTopK(2, core.Ascending[int]())
	k.Destroy()
	k.Destroy()

	defer func() {
		r := recover()
		if _, ok := r.(core.LogicError); !ok {
			t.Fatalf("recovered %v, want core.LogicError", r)
		}
	}()
	k.Add(1)
}

func TestRing(t *testing.T) {
	tests := []struct {
		name   string
		length int
		input  []int
		want   []int
	}{
		{name: "not full", length: 4, input: []int{1, 2}, want: []int{1, 2}},
		{name: "exactly full", length: 3, input: []int{1, 2, 3}, want: []int{1, 2, 3}},
		{name: "wrapped", length: 3, input: []int{1, 2, 3, 4, 5}, want: []int{3, 4, 5}},
		{name: "wrapped twice", length: 2, input: []int{1, 2, 3, 4, 5, 6, 7}, want: []int{6, 7}},
		{name: "zero length", length: 0, input: []int{1, 2}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := state.NewRing[int](tt.length)
			if err != nil {
				t.Fatalf("NewRing: %v", err)
			}
			for _, v := range tt.input {
				r.Push(v)
			}
			if diff := cmp.Diff(tt.want, r.Items()); diff != "" {
				t.Errorf("Items() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRingSetLength(t *testing.T) {
	r, _ := state.NewRing[int](4)
	for v := 1; v <= 6; v++ {
		r.Push(v)
	}
	if err := r.SetLength(2); err != nil {
		t.Fatalf("SetLength(2): %v", err)
	}
	if diff := cmp.Diff([]int{5, 6}, r.Items()); diff != "" {
		t.Errorf("after shrink (-want +got):\n%s", diff)
	}
	r.Push(7)
	if diff := cmp.Diff([]int{6, 7}, r.Items()); diff != "" {
		t.Errorf("after push (-want +got):\n%s", diff)
	}

	if err := r.SetLength(4); err != nil {
		t.Fatalf("SetLength(4): %v", err)
	}
	r.Push(8)
	r.Push(9)
	r.Push(10)
	if diff := cmp.Diff([]int{7, 8, 9, 10}, r.Items()); diff != "" {
		t.Errorf("after grow (-want +got):\n%s", diff)
	}

	if err := r.SetLength(-1); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("SetLength(-1) error = %v, want ErrInvalidArgument", err)
	}
}
