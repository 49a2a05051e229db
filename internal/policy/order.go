// Package policy turns robot state into policy observations and policy
// actions into joint commands. It owns the training configuration, the
// joint-order permutations between the policy's and the actuator's canonical
// orderings, and the command synthesis rules (action scaling, startup ramp,
// gains, deadlines, sequencing).
package policy

import "fmt"

// JointOrder lists the joint names in policy-native order: the order the
// training environment stacks joints in, grouped by joint type rather than
// by leg.
var JointOrder = []string{
	"fl_hx", "fr_hx", "hl_hx", "hr_hx",
	"fl_hy", "fr_hy", "hl_hy", "hr_hy",
	"fl_kn", "fr_kn", "hl_kn", "hr_kn",
}

// FindOrdering returns the permutation mapping from one joint ordering onto
// another: element n is the index in `from` of the name at to[n], so that
// Reorder(values, FindOrdering(from, to)) converts a from-ordered slice into
// a to-ordered one. The two slices must contain the same names.
func FindOrdering(from, to []string) ([]int, error) {
	if len(from) != len(to) {
		return nil, fmt.Errorf("orderings differ in length: %d vs %d", len(from), len(to))
	}
	index := make(map[string]int, len(from))
	for i, name := range from {
		index[name] = i
	}
	perm := make([]int, len(to))
	for n, name := range to {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("joint %q not present in source ordering", name)
		}
		perm[n] = i
	}
	return perm, nil
}

// Reorder rearranges values by the given permutation: out[n] = values[perm[n]].
func Reorder(values []float64, perm []int) []float64 {
	out := make([]float64, len(perm))
	for n, i := range perm {
		out[n] = values[i]
	}
	return out
}

// OrderedValues flattens a by-name map into a slice following order,
// failing on any name the map does not cover.
func OrderedValues(byName map[string]float64, order []string) ([]float64, error) {
	out := make([]float64, len(order))
	for i, name := range order {
		v, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("no value for joint %q", name)
		}
		out[i] = v
	}
	return out, nil
}
