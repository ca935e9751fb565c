package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bgricker/testbridge/internal/adapter"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. A pattern
// wrapped in slashes is a regular expression; anything else matches as a
// case-insensitive substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			re, err := regexp.Compile(raw[1 : len(raw)-1])
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// String returns the pattern as written.
func (p Pattern) String() string { return p.raw }

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Units keeps the units whose name or display identity matches one of only
// (every unit when only is empty) and none of skip. Order is preserved.
func Units(units []adapter.Unit, only, skip []Pattern) []adapter.Unit {
	if len(units) == 0 {
		return nil
	}
	result := make([]adapter.Unit, 0, len(units))
	for _, u := range units {
		if len(only) > 0 && !matchesUnit(u, only) {
			continue
		}
		if len(skip) > 0 && matchesUnit(u, skip) {
			continue
		}
		result = append(result, u)
	}
	return result
}

func matchesUnit(u adapter.Unit, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(u.Name()) || pattern.Match(u.String()) {
			return true
		}
	}
	return false
}
