package pipeline

// normalize.go builds Variables from raw rows.
//
// Numeric fields in vendor exports are messy: blanks, float-formatted
// integers ("2.0"), stray whitespace. Multiplier and addressOffset degrade
// to safe defaults (1 and 0) on any parse failure. The register address is
// the one field downstream math cannot live without, so a non-numeric
// value there aborts the run.

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterUsed drops rows whose mbUsed column is explicitly falsy.
// A missing or blank mbUsed counts as used.
func FilterUsed(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if isUsed(r[ColUsed]) {
			out = append(out, r)
		}
	}
	return out
}

// isUsed interprets an mbUsed cell. "false" and any numeric zero
// spelling ("0", "0.0", "0.00", "0e0") mark a row unused; blank or
// non-numeric text counts as used.
func isUsed(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return true
	}
	if s == "false" {
		return false
	}
	if n, ok := parseIntish(s); ok {
		return n != 0
	}
	return true
}

// NewVariables converts filtered rows into Variables, coercing numeric
// fields with defensive defaults. It fails only when a register address
// is present but not numeric.
func NewVariables(rows []Row) ([]Variable, error) {
	vars := make([]Variable, 0, len(rows))
	for i, r := range rows {
		reg, err := parseRegister(r[ColRegister])
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, r[ColName], err)
		}
		vars = append(vars, Variable{
			Name:          strings.TrimSpace(r[ColName]),
			Register:      reg,
			FunctionCode:  strings.TrimSpace(r[ColFunctionCode]),
			Type:          strings.TrimSpace(r[ColType]),
			Multiplier:    parseIntDefault(r[ColMultiplier], 1),
			AddressOffset: parseIntDefault(r[ColAddressOffset], 0),
			Used:          isUsed(r[ColUsed]),
			BaseIndex:     i,
			Source:        r,
			TypeSize:      TypeWidth(r[ColType]),
		})
	}
	return vars, nil
}

// parseRegister coerces a register cell to a non-negative integer.
// A blank cell falls back to 0; non-numeric text is a structural error.
func parseRegister(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	n, ok := parseIntish(s)
	if !ok {
		return 0, fmt.Errorf("register address %q is not numeric", raw)
	}
	return n, nil
}

// parseIntDefault coerces a cell to an integer, returning def on any
// failure or blank input.
func parseIntDefault(raw string, def int) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def
	}
	n, ok := parseIntish(s)
	if !ok {
		return def
	}
	return n
}

// parseIntish accepts plain integers and float-formatted integers
// ("2", "2.0"), truncating any fractional part.
func parseIntish(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}
