package allocator

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members(weights ...float64) []Participant {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	out := make([]Participant, len(weights))
	for i, w := range weights {
		out[i] = Participant{ID: names[i], Name: names[i], Weight: w}
	}
	return out
}

func allocations(set []Participant) []int64 {
	out := make([]int64, len(set))
	for i, p := range set {
		out[i] = p.Allocation
	}
	return out
}

func withAllocations(set []Participant, allocs ...int64) []Participant {
	out := clone(set)
	for i := range out {
		out[i].Allocation = allocs[i]
	}
	return out
}

func TestDistribute(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		budget  int64
		want    []int64
	}{
		{
			name:    "equal weights split evenly",
			weights: []float64{1, 1, 1, 1},
			budget:  100,
			want:    []int64{25, 25, 25, 25},
		},
		{
			name:    "proportional to weight",
			weights: []float64{0.8, 0.2},
			budget:  100,
			want:    []int64{80, 20},
		},
		{
			name:    "zero weights fall back to equal floor split",
			weights: []float64{0, 0, 0},
			budget:  10,
			want:    []int64{3, 3, 3},
		},
		{
			name:    "floor remainder is not redistributed",
			weights: []float64{1, 1, 1},
			budget:  100,
			want:    []int64{33, 33, 33},
		},
		{
			name:    "member with zero weight gets nothing",
			weights: []float64{0.5, 0, 0.5},
			budget:  9,
			want:    []int64{4, 0, 4},
		},
		{
			name:    "negative weight counts as zero",
			weights: []float64{-1, 1},
			budget:  50,
			want:    []int64{0, 50},
		},
		{
			name:    "NaN weight counts as zero",
			weights: []float64{math.NaN(), 1, 1},
			budget:  10,
			want:    []int64{0, 5, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distribute(members(tt.weights...), tt.budget)
			if diff := cmp.Diff(tt.want, allocations(got)); diff != "" {
				t.Errorf("Distribute() mismatch (-want +got):\n%s", diff)
			}
			assert.LessOrEqual(t, Total(got), tt.budget)
		})
	}
}

func TestDistributeNoop(t *testing.T) {
	prior := withAllocations(members(1, 1), 7, 9)

	t.Run("zero budget", func(t *testing.T) {
		got := Distribute(prior, 0)
		assert.Equal(t, []int64{7, 9}, allocations(got))
	})
	t.Run("negative budget", func(t *testing.T) {
		got := Distribute(prior, -10)
		assert.Equal(t, []int64{7, 9}, allocations(got))
	})
	t.Run("empty set", func(t *testing.T) {
		got := Distribute(nil, 100)
		assert.Empty(t, got)
	})
}

func TestDistributeDoesNotMutateInput(t *testing.T) {
	in := members(0.8, 0.2)
	_ = Distribute(in, 100)
	assert.Equal(t, []int64{0, 0}, allocations(in))
}

func TestDistributeLargeBudgets(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		budget  int64
		want    []int64
	}{
		{
			name:    "max budget to one member",
			weights: []float64{1},
			budget:  math.MaxInt64,
			want:    []int64{math.MaxInt64},
		},
		{
			name:    "float rounding above 2^53",
			weights: []float64{1},
			budget:  1<<54 - 1,
			want:    []int64{1<<54 - 1},
		},
		{
			name:    "halves of max budget",
			weights: []float64{1, 1},
			budget:  math.MaxInt64,
			want:    []int64{1 << 62, 1<<62 - 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distribute(members(tt.weights...), tt.budget)
			assert.Equal(t, tt.want, allocations(got))
			assert.LessOrEqual(t, Total(got), tt.budget)
		})
	}
}

func TestNudgeSaturates(t *testing.T) {
	set := withAllocations(members(1, 1), math.MaxInt64-10, 0)
	got := Nudge(set, math.MaxInt64, "a", Up)
	assert.Equal(t, []int64{math.MaxInt64, 0}, allocations(got))
	assert.Equal(t, int64(math.MaxInt64), Total(withAllocations(members(1, 1), math.MaxInt64, 5)))
}

func TestNudge(t *testing.T) {
	set := withAllocations(members(1, 1, 1, 1), 25, 25, 25, 25)

	up := Nudge(set, 100, "b", Up)
	assert.Equal(t, []int64{25, 50, 25, 25}, allocations(up))
	assert.True(t, OverBudget(up, 100), "nudging up is allowed to exceed the budget")

	down := Nudge(set, 100, "c", Down)
	assert.Equal(t, []int64{25, 25, 0, 25}, allocations(down))

	floor := Nudge(down, 100, "c", Down)
	assert.Equal(t, []int64{25, 25, 0, 25}, allocations(floor))
}

func TestNudgeIgnoresWeight(t *testing.T) {
	set := withAllocations(members(0.9, 0.1), 90, 10)
	got := Nudge(set, 100, "b", Up)
	assert.Equal(t, []int64{90, 60}, allocations(got))
}

func TestNudgeSymmetry(t *testing.T) {
	set := withAllocations(members(0.3, 0.7, 0.5), 11, 42, 3)
	for _, p := range set {
		got := Nudge(Nudge(set, 1000, p.ID, Up), 1000, p.ID, Down)
		assert.Equal(t, allocations(set), allocations(got), "member %s", p.ID)
	}
}

func TestNudgeWithoutBudgetIsNoop(t *testing.T) {
	set := withAllocations(members(1, 1), 5, 5)
	assert.Equal(t, []int64{5, 5}, allocations(Nudge(set, 0, "a", Up)))
}

func TestNudgeUnknownMember(t *testing.T) {
	set := withAllocations(members(1, 1), 5, 5)
	assert.Equal(t, []int64{5, 5}, allocations(Nudge(set, 100, "zz", Up)))
}

func TestOverride(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		allocs  []int64
		budget  int64
		target  string
		value   int64
		want    []int64
	}{
		{
			name:    "excess taken from the other member",
			weights: []float64{0.5, 0.5},
			allocs:  []int64{50, 50},
			budget:  100,
			target:  "a",
			value:   80,
			want:    []int64{80, 20},
		},
		{
			name:    "dominant override floors everyone else at zero",
			weights: []float64{1, 1, 1},
			allocs:  []int64{30, 30, 30},
			budget:  90,
			target:  "a",
			value:   1000,
			want:    []int64{1000, 0, 0},
		},
		{
			name:    "reduction follows weight",
			weights: []float64{0.5, 0.25, 0.25},
			allocs:  []int64{50, 25, 25},
			budget:  100,
			target:  "c",
			value:   55,
			want:    []int64{30, 15, 55},
		},
		{
			name:    "floor rounding under-reduces",
			weights: []float64{0.5, 0.25, 0.25},
			allocs:  []int64{50, 25, 25},
			budget:  100,
			target:  "b",
			value:   90,
			want:    []int64{7, 90, 4},
		},
		{
			name:    "others without weight give back equally",
			weights: []float64{1, 0, 0},
			allocs:  []int64{40, 30, 30},
			budget:  100,
			target:  "a",
			value:   70,
			want:    []int64{70, 15, 15},
		},
		{
			name:    "zero weight others reduced evenly",
			weights: []float64{0, 0, 0},
			allocs:  []int64{30, 30, 30},
			budget:  90,
			target:  "a",
			value:   50,
			want:    []int64{50, 20, 20},
		},
		{
			name:    "under budget leaves others alone",
			weights: []float64{0.5, 0.5},
			allocs:  []int64{50, 50},
			budget:  100,
			target:  "a",
			value:   10,
			want:    []int64{10, 50},
		},
		{
			name:    "no budget means no constraint",
			weights: []float64{0.5, 0.5},
			allocs:  []int64{50, 50},
			budget:  0,
			target:  "a",
			value:   500,
			want:    []int64{500, 50},
		},
		{
			name:    "negative value clamps to zero",
			weights: []float64{0.5, 0.5},
			allocs:  []int64{50, 50},
			budget:  100,
			target:  "a",
			value:   -20,
			want:    []int64{0, 50},
		},
		{
			name:    "single member keeps its value",
			weights: []float64{1},
			allocs:  []int64{10},
			budget:  10,
			target:  "a",
			value:   40,
			want:    []int64{40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := withAllocations(members(tt.weights...), tt.allocs...)
			got := Override(set, tt.budget, tt.target, tt.value)
			if diff := cmp.Diff(tt.want, allocations(got)); diff != "" {
				t.Errorf("Override() mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.allocs, allocations(set)); diff != "" {
				t.Errorf("Override() mutated its input (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduceAndTopUp(t *testing.T) {
	set := withAllocations(members(0.75, 0, 0.25), 30, 99, 10)

	reduced := reduceProportionally(clone(set), 1, 20)
	assert.Equal(t, []int64{15, 99, 5}, allocations(reduced))

	toppedUp := topUpProportionally(clone(set), 1, 20)
	assert.Equal(t, []int64{45, 99, 15}, allocations(toppedUp))

	clipped := reduceProportionally(withAllocations(members(0.5, 0.5, 0.5), 1, 50, 50), 2, 20)
	assert.Equal(t, []int64{0, 40, 50}, allocations(clipped))
}

func TestOthersSharesEqualFallback(t *testing.T) {
	set := members(0, 0, 0, 0)
	shares := othersShares(set, 0, 10)
	assert.Equal(t, []int64{0, 3, 3, 3}, shares)

	assert.Equal(t, []int64{0}, othersShares(members(1), 0, 10))
}

func TestReset(t *testing.T) {
	set := withAllocations(members(1, 2, 3), 4, 5, 6)
	once := Reset(set)
	twice := Reset(once)

	require.Equal(t, []int64{0, 0, 0}, allocations(once))
	assert.Equal(t, once, twice)
	assert.Equal(t, []int64{4, 5, 6}, allocations(set))
}

func TestSummaryHelpers(t *testing.T) {
	set := withAllocations(members(1, 1), 60, 50)

	assert.Equal(t, int64(110), Total(set))
	assert.Equal(t, int64(-10), Remaining(set, 100))
	assert.True(t, OverBudget(set, 100))
	assert.False(t, OverBudget(set, 110))
	assert.InDelta(t, 60.0, Percent(60, 100), 1e-9)
	assert.Zero(t, Percent(60, 0))
	assert.Equal(t, int64(33), UnitShare(100, 3))
	assert.Zero(t, UnitShare(100, 0))
}

func TestSortByWeight(t *testing.T) {
	set := members(0.2, 0.9, 0.2, 0.5)

	desc := SortByWeight(set, true)
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(desc))

	asc := SortByWeight(set, false)
	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(asc))

	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(set))
}

func ids(set []Participant) []string {
	out := make([]string, len(set))
	for i, p := range set {
		out[i] = p.ID
	}
	return out
}
