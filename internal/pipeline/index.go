package pipeline

import "sort"

// AssignIndexes gives every variable a 1-based position within its
// assigned handler. Positions are ordered by register address, with the
// original input position as tie-break, and reset at each handler
// boundary, so the positions inside one handler are exactly 1..n.
//
// Only the Idx field is written; the collection keeps its input order.
func AssignIndexes(vars []Variable) []Variable {
	out := make([]Variable, len(vars))
	copy(out, vars)

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := out[order[a]], out[order[b]]
		if va.Handler != vb.Handler {
			return va.Handler < vb.Handler
		}
		if va.Register != vb.Register {
			return va.Register < vb.Register
		}
		return va.BaseIndex < vb.BaseIndex
	})

	counter := 0
	lastHandler := -1
	for _, idx := range order {
		if out[idx].Handler != lastHandler {
			lastHandler = out[idx].Handler
			counter = 0
		}
		counter++
		out[idx].Idx = counter
	}
	return out
}
