// Package utils provides tiny generic helpers shared across layers. Nothing
// in here knows about the domain.
package utils

import "strconv"

// AtoiDefault parses s as an integer, returning def when s is empty or not
// a valid number. Handlers use it for optional numeric query parameters.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
