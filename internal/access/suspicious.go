package access

import (
	"strings"
)

// maxInputLength bounds identifier and filter values; anything longer is
// treated as probing rather than a legitimate key.
const maxInputLength = 256

// sqlMetaPatterns are substrings that have no business appearing in a
// resource identifier or filter value. Matching any of them marks the
// request suspicious; it is denied and always audited.
var sqlMetaPatterns = []string{
	"'", "\"", ";", "--", "/*", "*/", "\\x00",
	" or ", " and ", "union ", "select ", "insert ", "update ",
	"delete ", "drop ", "truncate ", "exec ", "xp_",
}

// SuspiciousValue reports whether a single identifier or filter value
// looks like an injection or wildcard-scan attempt.
func SuspiciousValue(v string) bool {
	if len(v) > maxInputLength {
		return true
	}
	if strings.ContainsRune(v, 0) {
		return true
	}

	// Wildcard-all filters: a value that is nothing but wildcards asks
	// for an unscoped scan.
	trimmed := strings.TrimSpace(v)
	if trimmed == "*" || trimmed == "%" || trimmed == "%%" {
		return true
	}

	lower := strings.ToLower(v)
	for _, pattern := range sqlMetaPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// InspectValues scans identifier values and returns the offending ones.
// The caller flags the request suspicious when the result is non-empty.
func InspectValues(values ...string) []string {
	var offending []string
	for _, v := range values {
		if v != "" && SuspiciousValue(v) {
			offending = append(offending, v)
		}
	}
	return offending
}

// InspectFilters scans both keys and values of a filter map.
func InspectFilters(filters map[string]string) []string {
	var offending []string
	for k, v := range filters {
		if SuspiciousValue(k) {
			offending = append(offending, k)
		}
		if v != "" && SuspiciousValue(v) {
			offending = append(offending, v)
		}
	}
	return offending
}
