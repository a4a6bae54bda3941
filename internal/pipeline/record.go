package pipeline

import (
	"strconv"
	"strings"
)

// floatFields are coerced to floating point in output records. Everything
// else numeric becomes an integer.
var floatFields = map[string]bool{
	"mqttLowerLimit": true,
	"mqttUpperLimit": true,
	"mbScaling":      true,
	"mbOffset":       true,
	"mqttScaling":    true,
	"mqttOffset":     true,
}

// BuildRecord converts one enriched row into a typed output record ready
// for JSON persistence. Absent and empty fields are dropped, mbUsed is
// coerced to a boolean, mqttName has internal whitespace collapsed,
// numeric values become float64 or int depending on the field, and
// everything else passes through as a string. Malformed values are
// dropped rather than failing the record.
func BuildRecord(row Row, columns []string) map[string]any {
	record := make(map[string]any, len(columns))
	for _, col := range columns {
		if col == ColMQTTPayload {
			continue
		}
		raw, ok := row[col]
		if !ok {
			continue
		}
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}

		switch col {
		case ColUsed:
			if b, ok := coerceBool(val); ok {
				record[col] = b
			}
			continue
		case ColMQTTName:
			record[col] = collapseWhitespace(val)
			continue
		}

		if f, err := strconv.ParseFloat(val, 64); err == nil {
			if floatFields[col] {
				record[col] = f
			} else {
				record[col] = int(f)
			}
			continue
		}
		record[col] = val
	}
	return record
}

// coerceBool maps textual true/false directly and treats anything else
// numeric as an integer truth value.
func coerceBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f) != 0, true
	}
	return false, false
}

// collapseWhitespace trims the string and folds internal whitespace runs
// into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
