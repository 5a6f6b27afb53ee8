// Package utils provides small helpers shared across layers, mostly around
// parsing and bounding client-supplied numeric parameters.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or not
// a valid integer. Input is not trimmed; callers pass raw query values.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampLimit turns a raw limit parameter into a usable page size: def when
// the value is missing, unparsable, or non-positive, and never more than max.
func ClampLimit(raw string, def, max int) int {
	n := AtoiDefault(raw, def)
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}
