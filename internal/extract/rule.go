package extract

import "regexp"

// Rule is the per-sender template rule describing the expected shape of a
// work-order number. Immutable after profile load.
type Rule struct {
	ExpectedDigits int
	// Pattern optionally tightens the check beyond digit count.
	Pattern *regexp.Regexp
}

// ValidFormat reports whether a normalized candidate satisfies the rule:
// exact digit count, plus the stricter pattern when present. No partial credit.
func ValidFormat(candidate string, r Rule) bool {
	if len(candidate) != r.ExpectedDigits {
		return false
	}
	if r.Pattern != nil && !r.Pattern.MatchString(candidate) {
		return false
	}
	return true
}
