package pipeline

// Project maps handler assignments from the expanded rows back onto the
// base variables. Each variable takes the handler id of its iteration-0
// expansion. When an iteration-1 expansion exists, HandlerOffset is the
// handler-id delta between iterations 1 and 0; downstream repeat logic
// uses it to step through repeated handlers. Variables without a second
// iteration get a zero offset.
//
// The returned slice is a copy; the inputs are not mutated.
func Project(vars []Variable, expanded []ExpandedVariable) []Variable {
	iter0 := make(map[int]int, len(vars))
	iter1 := make(map[int]int)
	for _, e := range expanded {
		switch e.Iteration {
		case 0:
			iter0[e.BaseIndex] = e.Handler
		case 1:
			iter1[e.BaseIndex] = e.Handler
		}
	}

	out := make([]Variable, len(vars))
	copy(out, vars)
	for i := range out {
		h := iter0[out[i].BaseIndex]
		out[i].Handler = h
		if h1, ok := iter1[out[i].BaseIndex]; ok {
			out[i].HandlerOffset = h1 - h
		} else {
			out[i].HandlerOffset = 0
		}
	}
	return out
}
