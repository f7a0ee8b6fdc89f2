package models

import (
	"fmt"
	"strings"
)

// parseEnum resolves a textual value against the ordered name table of an
// enumerated type. Matching ignores case and surrounding whitespace.
func parseEnum(kind string, names []string, value string) (int, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for i, name := range names {
		if name == normalized {
			return i, nil
		}
	}
	return 0, NewValidationError(kind, "unknown value %q (expected one of %s)", value, strings.Join(names, ", "))
}

func enumName(names []string, idx int) string {
	if idx < 0 || idx >= len(names) {
		return fmt.Sprintf("invalid(%d)", idx)
	}
	return names[idx]
}
