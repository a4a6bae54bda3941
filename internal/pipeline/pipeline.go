package pipeline

import (
	"fmt"
	"strconv"
)

// Process runs the full pipeline over a normalized row set.
//
// Stages, in order: drop unused rows, build variables (coercing numeric
// fields defensively), expand by multiplier, sort by function code and
// register, assign handlers, project iteration-0/1 assignments back onto
// base rows, index variables within handlers, then enrich the base rows
// and build typed records plus the handler summary.
//
// Each stage consumes one immutable collection and produces a new one.
// The run either completes for every row or fails as a whole; the only
// error condition is a non-numeric register address.
func Process(header []string, rows []Row) (*Result, error) {
	used := FilterUsed(rows)

	vars, err := NewVariables(used)
	if err != nil {
		return nil, fmt.Errorf("normalize rows: %w", err)
	}

	expanded := AssignHandlers(SortForAssignment(Expand(vars)))

	vars = AssignIndexes(Project(vars, expanded))

	columns := outputColumns(header)
	enriched := make([]Row, len(vars))
	records := make([]map[string]any, len(vars))
	for i, v := range vars {
		row := v.Source.Clone()
		delete(row, ColMQTTPayload)
		row[ColTypeSize] = strconv.Itoa(v.TypeSize)
		row[ColHandler] = strconv.Itoa(v.Handler)
		row[ColHandlerOffset] = strconv.Itoa(v.HandlerOffset)
		row[ColIdx] = strconv.Itoa(v.Idx)
		enriched[i] = row
		records[i] = BuildRecord(row, columns)
	}

	spans := Summarize(expanded)

	return &Result{
		Columns:      columns,
		Rows:         enriched,
		Records:      records,
		Spans:        spans,
		HandlerCount: len(spans),
	}, nil
}

// outputColumns derives the output column order: the input header without
// mqttPayload, followed by the added columns not already present.
func outputColumns(header []string) []string {
	out := make([]string, 0, len(header)+4)
	seen := make(map[string]bool, len(header)+4)
	for _, h := range header {
		if h == ColMQTTPayload || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	for _, added := range []string{ColTypeSize, ColHandler, ColHandlerOffset, ColIdx} {
		if !seen[added] {
			seen[added] = true
			out = append(out, added)
		}
	}
	return out
}
