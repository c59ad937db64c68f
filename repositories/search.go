package repositories

import (
	"strings"
	"unicode/utf8"
)

const (
	// MinMemberSearchLength is the shortest query member search will run
	MinMemberSearchLength = 3

	// MaxMemberSearchResults caps the number of member search results
	MaxMemberSearchResults = 10
)

// NormalizeSearchQuery trims the query and reports whether it is long enough to run
func NormalizeSearchQuery(query string) (string, bool) {
	q := strings.TrimSpace(query)
	return q, utf8.RuneCountInString(q) >= MinMemberSearchLength
}

// ClampSearchLimit bounds limit to (0, MaxMemberSearchResults]
func ClampSearchLimit(limit int) int {
	if limit <= 0 || limit > MaxMemberSearchResults {
		return MaxMemberSearchResults
	}
	return limit
}

// ContainsPattern builds a case-insensitive LIKE pattern matching query anywhere,
// with LIKE wildcards in the query escaped
func ContainsPattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(query))
	return "%" + escaped + "%"
}
