package csvio

import "strings"

// Kind classifies a CSV file by its header shape.
type Kind string

const (
	KindDevice      Kind = "device"
	KindAbstraction Kind = "abstraction"
	KindUnknown     Kind = "unknown"
)

// DetectKind classifies a header row. Device exports carry a "Topic"
// column next to a register address column; abstraction dictionaries
// carry an "AXSOL Name" column next to a short-name column (which some
// exports leave as an unnamed first column). Device detection runs first
// because vendor files can contain both column families.
func DetectKind(header []string) Kind {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	if contains(lower, "topic") && (contains(lower, "register address") || contains(lower, "register adress")) {
		return KindDevice
	}

	hasShortName := contains(lower, "axsol_name_short")
	if !hasShortName {
		for _, h := range lower {
			if strings.HasPrefix(h, "unnamed:") {
				hasShortName = true
				break
			}
		}
	}
	if hasShortName && contains(lower, "axsol name") {
		return KindAbstraction
	}

	return KindUnknown
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
