// Package allocator splits a diamond budget among guild members in proportion to their
// attendance rate.
//
// Every function takes the current set and returns a new one. Input slices are never
// modified, so callers can keep the previous set around (undo, diffing) for free.
package allocator

import (
	"math"
	"sort"
)

type Participant struct {
	ID         string
	Name       string
	Weight     float64
	Allocation int64
}

type Direction int

const (
	Down Direction = -1
	Up   Direction = 1
)

// Distribute replaces every allocation with floor(budget * weight / totalWeight).
// When every weight is zero each member gets floor(budget / n). The floor remainder is
// left undistributed, so the total can fall short of the budget by up to n-1 units.
// The total never exceeds the budget, even where float rounding would push it over.
func Distribute(set []Participant, budget int64) []Participant {
	out := clone(set)
	if budget <= 0 || len(out) == 0 {
		return out
	}

	totalWeight := sumWeights(out)
	if totalWeight == 0 {
		per := budget / int64(len(out))
		for i := range out {
			out[i].Allocation = per
		}
		return out
	}

	for i := range out {
		out[i].Allocation = floorShare(budget, weight(out[i]), totalWeight)
	}
	return capToBudget(out, budget)
}

// Nudge moves one member by a flat share of floor(budget / n), ignoring weights.
// The total is not re-checked against the budget afterwards.
func Nudge(set []Participant, budget int64, id string, dir Direction) []Participant {
	out := clone(set)
	idx := indexOf(out, id)
	if idx < 0 {
		return out
	}

	step := UnitShare(budget, len(out))
	switch {
	case dir > 0:
		out[idx].Allocation = addSaturating(nonNegative(out[idx].Allocation), step)
	case dir < 0:
		out[idx].Allocation = nonNegative(nonNegative(out[idx].Allocation) - step)
	}
	return out
}

// Override pins one member to value and, if that pushes the total over budget, takes the
// excess back from everyone else in proportion to their weight. A second pass then tops
// the others up from budget - value when the reduction undershot. The two passes are not
// repeated, so rounding can leave the total a few units off the budget.
func Override(set []Participant, budget int64, id string, value int64) []Participant {
	out := clone(set)
	idx := indexOf(out, id)
	if idx < 0 {
		return out
	}

	value = nonNegative(value)
	out[idx].Allocation = value

	total := Total(out)
	if budget <= 0 || total <= budget {
		return out
	}

	excess := total - budget
	out = reduceProportionally(out, idx, excess)
	if Total(out) < budget {
		out = topUpProportionally(out, idx, budget-value)
	}
	return out
}

// Reset zeroes every allocation.
func Reset(set []Participant) []Participant {
	out := clone(set)
	for i := range out {
		out[i].Allocation = 0
	}
	return out
}

// reduceProportionally takes amount away from every member except pinned. Members that
// would go negative stop at zero and the part of the reduction they could not absorb is lost.
func reduceProportionally(set []Participant, pinned int, amount int64) []Participant {
	shares := othersShares(set, pinned, amount)
	for i, s := range shares {
		if i == pinned {
			continue
		}
		set[i].Allocation = nonNegative(nonNegative(set[i].Allocation) - s)
	}
	return set
}

// topUpProportionally adds amount to every member except pinned using the same split rule
// as reduceProportionally.
func topUpProportionally(set []Participant, pinned int, amount int64) []Participant {
	shares := othersShares(set, pinned, amount)
	for i, s := range shares {
		if i == pinned {
			continue
		}
		set[i].Allocation = addSaturating(nonNegative(set[i].Allocation), s)
	}
	return set
}

// othersShares splits amount over every index but pinned: by weight when the others carry
// any weight, evenly otherwise. The entry at pinned is always zero.
func othersShares(set []Participant, pinned int, amount int64) []int64 {
	shares := make([]int64, len(set))
	others := len(set) - 1
	if others <= 0 || amount <= 0 {
		return shares
	}

	var otherWeight float64
	for i := range set {
		if i != pinned {
			otherWeight += weight(set[i])
		}
	}

	for i := range set {
		if i == pinned {
			continue
		}
		if otherWeight > 0 {
			shares[i] = floorShare(amount, weight(set[i]), otherWeight)
		} else {
			shares[i] = amount / int64(others)
		}
	}
	return shares
}

// UnitShare is the flat amount a single nudge moves: floor(budget / n), or 0 when either
// side is not positive.
func UnitShare(budget int64, n int) int64 {
	if budget <= 0 || n <= 0 {
		return 0
	}
	return budget / int64(n)
}

// Total is the sum of all allocations, saturating at math.MaxInt64.
func Total(set []Participant) int64 {
	var sum int64
	for _, p := range set {
		sum = addSaturating(sum, nonNegative(p.Allocation))
	}
	return sum
}

// Remaining is budget minus the distributed total. Negative when over budget.
func Remaining(set []Participant, budget int64) int64 {
	return budget - Total(set)
}

// OverBudget reports the advisory "distributed total exceeds budget" condition.
func OverBudget(set []Participant, budget int64) bool {
	return Total(set) > budget
}

// Percent is allocation as a percentage of budget, 0 for a non-positive budget.
func Percent(allocation, budget int64) float64 {
	if budget <= 0 {
		return 0
	}
	return float64(allocation) / float64(budget) * 100
}

// SortByWeight orders a copy of set by weight. Ties keep their original order.
func SortByWeight(set []Participant, desc bool) []Participant {
	out := clone(set)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return weight(out[i]) > weight(out[j])
		}
		return weight(out[i]) < weight(out[j])
	})
	return out
}

// floorShare is floor(amount * w / totalWeight) clamped to [0, amount]. Above 2^53 the
// float product can round past amount, and 2^63 itself does not fit in an int64.
func floorShare(amount int64, w, totalWeight float64) int64 {
	v := math.Floor(float64(amount) * w / totalWeight)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= float64(amount):
		return amount
	}
	return int64(v)
}

// capToBudget trims allocations in order so that they sum to at most budget.
func capToBudget(set []Participant, budget int64) []Participant {
	left := budget
	for i := range set {
		if set[i].Allocation > left {
			set[i].Allocation = left
		}
		left -= set[i].Allocation
	}
	return set
}

// addSaturating adds two non-negative amounts, stopping at math.MaxInt64.
func addSaturating(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// weight clamps negative and non-finite weights to zero.
func weight(p Participant) float64 {
	w := p.Weight
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}

func sumWeights(set []Participant) float64 {
	var sum float64
	for _, p := range set {
		sum += weight(p)
	}
	return sum
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func indexOf(set []Participant, id string) int {
	for i := range set {
		if set[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(set []Participant) []Participant {
	out := make([]Participant, len(set))
	copy(out, set)
	return out
}
