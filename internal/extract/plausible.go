package extract

import "strings"

// maxRepeatedRunLen is the longest all-same-digit candidate still treated as
// OCR garbage (e.g. "1111"). Longer repeats are left to the format rule.
const maxRepeatedRunLen = 4

// Plausible filters common OCR garbage before a candidate is treated as valid
// for retry and best-attempt selection: too short, too few digits, all zeros,
// or a short single-repeated-digit run.
func Plausible(candidate string) bool {
	if len(candidate) < 3 {
		return false
	}
	digits := 0
	for _, r := range candidate {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 3 {
		return false
	}
	if strings.Trim(candidate, "0") == "" {
		return false
	}
	if len(candidate) <= maxRepeatedRunLen && strings.Count(candidate, candidate[:1]) == len(candidate) {
		return false
	}
	return true
}
