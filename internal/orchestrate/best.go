package orchestrate

// Better reports whether a beats b. Tie-break order: a format-valid candidate
// beats an invalid one, then higher confidence wins. Equal attempts keep the
// earlier one, so selection is stable across runs.
func Better(a, b Attempt) bool {
	if a.Valid != b.Valid {
		return a.Valid
	}
	return a.Confidence > b.Confidence
}

// PassAgreement reports whether two independent OCR passes extracted the same
// number. nil when fewer than two passes ran.
func PassAgreement(attempts []Attempt) *bool {
	if len(attempts) < 2 {
		return nil
	}
	agreed := false
	for i := range attempts {
		for j := i + 1; j < len(attempts); j++ {
			if attempts[i].WONumber != "" && attempts[i].WONumber == attempts[j].WONumber {
				agreed = true
			}
		}
	}
	return &agreed
}

// BestAttempt reduces attempts to the single best one. With no valid attempt
// the highest-confidence one still wins, so a reviewer sees the most plausible
// text rather than nothing.
func BestAttempt(attempts []Attempt) Attempt {
	if len(attempts) == 0 {
		return Attempt{}
	}
	best := attempts[0]
	for _, a := range attempts[1:] {
		if Better(a, best) {
			best = a
		}
	}
	return best
}
