package pipeline

// Expand duplicates each variable multiplier times for internal handler
// calculations. Iteration i of a variable lives at
// register + i*addressOffset. A multiplier below 2 yields exactly one
// expansion at iteration 0 with the register unchanged.
//
// Expand is pure: source order is preserved and the input is not mutated.
func Expand(vars []Variable) []ExpandedVariable {
	out := make([]ExpandedVariable, 0, len(vars))
	for _, v := range vars {
		n := v.Multiplier
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, ExpandedVariable{
				BaseIndex:    v.BaseIndex,
				Iteration:    i,
				Register:     v.Register + i*v.AddressOffset,
				FunctionCode: v.FunctionCode,
				TypeSize:     v.TypeSize,
			})
		}
	}
	return out
}
