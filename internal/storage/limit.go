package storage

import "strconv"

// MaxAllowedLimit caps every row-returning query. This is a guard against
// excessive result sets, distinct from any business-rule limit (such as the
// top-university aggregate's fixed LIMIT 1).
const MaxAllowedLimit = 100

// DefaultLimit is used when a requested limit is missing or not numeric.
const DefaultLimit = 10

// ClampLimit forces a limit into [1, MaxAllowedLimit].
func ClampLimit(v int) int {
	if v < 1 {
		return 1
	}
	if v > MaxAllowedLimit {
		return MaxAllowedLimit
	}
	return v
}

// ParseLimit parses a user-supplied limit string and clamps it. Missing or
// non-numeric input falls back to DefaultLimit rather than failing.
func ParseLimit(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return DefaultLimit
	}
	return ClampLimit(v)
}
