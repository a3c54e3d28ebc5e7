package property

import (
	"strings"
	"unicode/utf8"
)

// matchPatterns reports whether name matches any of the '|' separated simple
// patterns. An empty pattern string matches every name.
func matchPatterns(patterns, name string) bool {
	if patterns == "" {
		return true
	}
	for _, pattern := range strings.Split(patterns, PatternSeparator) {
		if matchPattern(pattern, name) {
			return true
		}
	}
	return false
}

// matchPattern matches a single glob: '*' matches any run of characters,
// including '/', and '?' matches exactly one character.
func matchPattern(pattern, name string) bool {
	p := []rune(pattern)
	n := []rune(name)

	pi, ni := 0, 0
	starP, starN := -1, 0
	for ni < len(n) {
		switch {
		case pi < len(p) && p[pi] == '*':
			starP = pi
			starN = ni
			pi++
		case pi < len(p) && (p[pi] == '?' || p[pi] == n[ni]):
			pi++
			ni++
		case starP >= 0:
			// Let the last star swallow one more character.
			starN++
			ni = starN
			pi = starP + 1
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

// validatePatterns checks a pattern string before it is stored or used.
func validatePatterns(patterns string) error {
	if len(patterns) > MaxPatternsLength {
		return invalidParameter("patterns longer than %d bytes", MaxPatternsLength)
	}
	if !utf8.ValidString(patterns) {
		return invalidParameter("patterns are not valid UTF-8")
	}
	if strings.ContainsRune(patterns, 0) {
		return invalidParameter("patterns contain a NUL byte")
	}
	return nil
}

// JoinPatterns converts a NUL separated pattern list, as sent on the call ABI,
// into a '|' separated pattern string. Trailing terminators are dropped.
func JoinPatterns(raw string) string {
	raw = strings.TrimRight(raw, "\x00")
	return strings.ReplaceAll(raw, "\x00", PatternSeparator)
}
