// Package units converts between the electrical units that appear in
// abstraction dictionaries and device exports.
package units

import "strings"

// factors holds known (from, to) conversion factors. Units are compared
// case-insensitively.
var factors = map[[2]string]float64{
	{"w", "kw"}:     0.001,
	{"kw", "w"}:     1000.0,
	{"va", "kva"}:   0.001,
	{"kva", "va"}:   1000.0,
	{"var", "kvar"}: 0.001,
	{"kvar", "var"}: 1000.0,
	{"wh", "kwh"}:   0.001,
	{"kwh", "wh"}:   1000.0,
	{"kwh", "mwh"}:  0.001,
	{"mwh", "kwh"}:  1000.0,
	{"wh", "mwh"}:   0.000001,
	{"mwh", "wh"}:   1000000.0,
}

// Factor returns the multiplicative conversion factor from one unit to
// another. Identical, unknown, or missing units yield 1.0.
func Factor(from, to string) float64 {
	f := strings.ToLower(strings.TrimSpace(from))
	t := strings.ToLower(strings.TrimSpace(to))
	if f == "" || t == "" || f == t {
		return 1.0
	}
	if factor, ok := factors[[2]string{f, t}]; ok {
		return factor
	}
	return 1.0
}
