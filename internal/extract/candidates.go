// Package extract pulls work-order-number candidates out of raw document text
// and normalizes them to a canonical digits-only form.
package extract

import (
	"regexp"
	"strings"
)

var (
	// Leading "WO", "WO#" or "Work Order" label, with optional separator.
	rePrefix = regexp.MustCompile(`(?i)^\s*(?:work\s*order|wo)\s*[#:\-]?\s*`)

	// Labelled form: WO / WO# / WO- followed by at least 4 digits.
	reLabelled = regexp.MustCompile(`(?i)\bwo\s*[#\-]?\s*(\d{4,})`)

	// Bare digit run.
	reDigitRun = regexp.MustCompile(`\d+`)
)

// NormalizeCandidate strips a leading work-order label and concatenates the
// remaining digit characters. Idempotent: a digits-only string maps to itself.
func NormalizeCandidate(s string) string {
	s = rePrefix.ReplaceAllString(s, "")
	return strings.Join(reDigitRun.FindAllString(s, -1), "")
}

// CandidatesFromText scans text for work-order-number candidates whose digit
// length is within ±1 of expectedDigits. Labelled matches take priority over
// bare digit runs covering the same characters, so the same digits are never
// captured twice. The result is deduplicated preserving first-encounter order.
func CandidatesFromText(text string, expectedDigits int) []string {
	type span struct{ start, end int }

	var out []string
	var taken []span
	seen := make(map[string]struct{})

	add := func(c string) {
		if len(c)-expectedDigits > 1 || expectedDigits-len(c) > 1 {
			return
		}
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for _, m := range reLabelled.FindAllStringSubmatchIndex(text, -1) {
		// m[2]:m[3] is the digit group.
		taken = append(taken, span{m[2], m[3]})
		add(text[m[2]:m[3]])
	}

	for _, m := range reDigitRun.FindAllStringIndex(text, -1) {
		overlaps := false
		for _, s := range taken {
			if m[0] < s.end && m[1] > s.start {
				overlaps = true
				break
			}
		}
		if !overlaps {
			add(text[m[0]:m[1]])
		}
	}

	return out
}

// NormalizeAll normalizes and deduplicates a candidate list, preserving
// first-encounter order. Empty normalizations are dropped.
func NormalizeAll(candidates []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range candidates {
		n := NormalizeCandidate(c)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
