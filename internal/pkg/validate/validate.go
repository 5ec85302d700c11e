package validate

import "strings"

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// SafeTokenField reports whether value may be embedded in a delimited token
// payload: non-empty and free of the payload delimiter.
func SafeTokenField(value, delimiter string) bool {
	return Required(value) && !strings.Contains(value, delimiter)
}
