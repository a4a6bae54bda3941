package pipeline

import "sort"

// Summarize computes the address footprint of every handler over the
// expanded rows: start is the minimum register, length spans to the end
// of the widest-reaching member. The summary describes the true expanded
// footprint, which can cover more handlers than the base-row view shows.
func Summarize(expanded []ExpandedVariable) []HandlerSpan {
	type extent struct {
		start, end int
	}
	extents := make(map[int]*extent)

	for _, e := range expanded {
		end := e.Register + e.WidthUnits() - 1
		ext, ok := extents[e.Handler]
		if !ok {
			extents[e.Handler] = &extent{start: e.Register, end: end}
			continue
		}
		if e.Register < ext.start {
			ext.start = e.Register
		}
		if end > ext.end {
			ext.end = end
		}
	}

	spans := make([]HandlerSpan, 0, len(extents))
	for id, ext := range extents {
		spans = append(spans, HandlerSpan{
			ID:     id,
			Start:  ext.start,
			Length: ext.end - ext.start + 1,
		})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].ID < spans[j].ID })
	return spans
}
