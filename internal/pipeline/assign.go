package pipeline

import (
	"sort"
	"strconv"
)

// assign.go partitions expanded rows into handlers.
//
// A handler is one atomic communication transaction: a run of variables
// that share a function code, occupy at most HandlerCapacity 16-bit
// registers in total, and sit back-to-back in the address space. The
// contiguity check is against the single most recently placed row, not
// against the handler's aggregate span: any address gap breaks the run
// even when capacity remains.

// SortForAssignment orders expanded rows by function code, then register,
// preserving input order on ties. This ordering is the precondition for
// AssignHandlers; violating it silently produces different groupings.
func SortForAssignment(rows []ExpandedVariable) []ExpandedVariable {
	out := make([]ExpandedVariable, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if c := compareFunctionCodes(out[i].FunctionCode, out[j].FunctionCode); c != 0 {
			return c < 0
		}
		return out[i].Register < out[j].Register
	})
	return out
}

// compareFunctionCodes orders function codes numerically when both parse
// as integers (so "10" sorts after "3"), falling back to a lexical
// comparison for non-numeric codes.
func compareFunctionCodes(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// AssignHandlers walks the sorted rows once, left to right, and assigns a
// 1-based handler id to every row. A row continues the current handler
// only if the function code matches, the handler's occupied width plus
// this row stays within HandlerCapacity, and the row's register equals
// the previous row's register plus the previous row's width in units.
//
// The returned slice is a copy; the input is not mutated.
func AssignHandlers(rows []ExpandedVariable) []ExpandedVariable {
	out := make([]ExpandedVariable, len(rows))
	copy(out, rows)

	currentHandler := 0
	currentFunction := ""
	currentUnits := 0
	lastRegister := 0
	lastUnits := 0

	for i := range out {
		row := &out[i]
		units := row.WidthUnits()

		continues := currentHandler > 0 &&
			row.FunctionCode == currentFunction &&
			currentUnits+units <= HandlerCapacity &&
			row.Register == lastRegister+lastUnits

		if !continues {
			currentHandler++
			currentFunction = row.FunctionCode
			currentUnits = 0
		}

		row.Handler = currentHandler
		currentUnits += units
		lastRegister = row.Register
		lastUnits = units
	}
	return out
}
