package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// canonicalWidths maps known mbType labels to their bit width.
var canonicalWidths = map[string]int{
	"UINT16": 16,
	"INT16":  16,
	"UINT":   16,
	"UINT32": 32,
	"INT32":  32,
	"FLOAT":  32,
}

// trailingDigits matches a run of digits at the end of a type label.
var trailingDigits = regexp.MustCompile(`(\d+)$`)

// TypeWidth infers the bit width of an mbType label.
//
// Known labels resolve through the canonical table. An absent label
// defaults to 32. An unrecognized label ending in digits uses that numeric
// suffix as the width (e.g. "WORD48" -> 48); anything else defaults to 32.
// TypeWidth never fails and always returns a positive width.
func TypeWidth(label string) int {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return 32
	}
	if w, ok := canonicalWidths[s]; ok {
		return w
	}
	if m := trailingDigits.FindString(s); m != "" {
		if w, err := strconv.Atoi(m); err == nil && w > 0 {
			return w
		}
	}
	return 32
}
