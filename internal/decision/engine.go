// Package decision holds the trust-scoring engine. Decide is a pure function:
// no I/O, no clocks, identical inputs always yield identical results, which
// keeps re-evaluation during OCR retries safe.
package decision

import (
	"strconv"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/extract"
)

// Score bands and adjustments. The sequence thresholds are carried over from
// the production system unchanged; they are deliberate, not derived.
const (
	BaseScore = 60

	AutoConfirmMin = 80
	QuickCheckMin  = 60

	DigitalTextBonus   = 25
	PassAgreementBonus = 20

	HighConfidenceMin    = 0.9
	MidConfidenceMin     = 0.6
	HighConfidenceBonus  = 15
	MidConfidenceBonus   = 5
	LowConfidencePenalty = 15
	// Two agreeing passes outweigh a weak raw confidence; the small bonus
	// breaks ties in favour of the agreed value.
	LowConfidenceAgreedBonus = 5

	// DefaultSeqForwardJumpMax caps a plausible forward jump from the last
	// known work-order number; anything larger smells like an OCR misread.
	DefaultSeqForwardJumpMax = 5000
	SeqWindowBonus           = 5
	SeqOutlierPenalty        = 10
)

// Signals are the extraction-quality inputs to the decision.
type Signals struct {
	Method        constants.ExtractionMethod
	ConfidenceRaw *float64 // nil when the extractor reported none
	PassAgreement *bool    // nil when only one OCR pass ran
	// LastKnownWONumber is the most recent confirmed work-order number for the
	// sender, digits only. Empty disables the sequence check.
	LastKnownWONumber string
}

// Input is one decision request.
type Input struct {
	// Candidates are explicit extractions; when empty, candidates are scanned
	// out of RawText instead.
	Candidates []string
	RawText    string
	Rule       extract.Rule
	Signals    Signals
	// MaxForwardJump overrides DefaultSeqForwardJumpMax when positive.
	MaxForwardJump int
}

// Result is the immutable outcome of one decision call.
type Result struct {
	State         constants.DecisionState
	BestCandidate string // empty when no candidate survived
	Candidates    []string
	TrustScore    int
	Reasons       []constants.ReasonCode
}

// Decide reduces candidates and signals to one of the three terminal states.
func Decide(in Input) Result {
	candidates := extract.NormalizeAll(in.Candidates)
	if len(candidates) == 0 && in.RawText != "" {
		candidates = extract.CandidatesFromText(in.RawText, in.Rule.ExpectedDigits)
	}

	if len(candidates) == 0 {
		return Result{
			State:      constants.StateNeedsAttention,
			TrustScore: 0,
			Reasons:    []constants.ReasonCode{constants.ReasonNoCandidate},
		}
	}

	var valid []string
	for _, c := range candidates {
		if extract.ValidFormat(c, in.Rule) {
			valid = append(valid, c)
		}
	}

	switch {
	case len(valid) > 1:
		if r, ok := resolveForward(in, candidates, valid); ok {
			return r
		}
		score := 100 - 10*len(valid)
		if score > 30 {
			score = 30
		}
		if score < 0 {
			score = 0
		}
		return Result{
			State:         constants.StateNeedsAttention,
			BestCandidate: valid[0],
			Candidates:    candidates,
			TrustScore:    score,
			Reasons:       []constants.ReasonCode{constants.ReasonMultipleCandidates},
		}
	case len(valid) == 0:
		return Result{
			State:         constants.StateNeedsAttention,
			BestCandidate: candidates[0],
			Candidates:    candidates,
			TrustScore:    20,
			Reasons:       []constants.ReasonCode{constants.ReasonFormatMismatch},
		}
	}

	return scoreCandidate(in, candidates, valid[0])
}

// resolveForward attempts auto-resolution of multiple valid candidates using
// the last known number: among candidates numerically at or past it, the
// closest forward one wins, but only if its own score would clear the
// QUICK_CHECK floor.
func resolveForward(in Input, candidates, valid []string) (Result, bool) {
	last, ok := parseWONumber(in.Signals.LastKnownWONumber)
	if !ok {
		return Result{}, false
	}

	best := ""
	var bestN int64
	for _, c := range valid {
		n, ok := parseWONumber(c)
		if !ok || n < last {
			continue
		}
		if best == "" || n < bestN {
			best = c
			bestN = n
		}
	}
	if best == "" {
		return Result{}, false
	}

	r := scoreCandidate(in, candidates, best)
	if r.TrustScore < QuickCheckMin {
		return Result{}, false
	}
	return r, true
}

// scoreCandidate applies the scoring model to a single format-valid candidate.
func scoreCandidate(in Input, candidates []string, candidate string) Result {
	score := BaseScore
	reasons := []constants.ReasonCode{constants.ReasonOKFormat}

	if in.Signals.Method == constants.MethodDigitalText {
		score += DigitalTextBonus
		reasons = append(reasons, constants.ReasonDigitalTextStrong)
	}

	agreed := in.Signals.PassAgreement != nil && *in.Signals.PassAgreement
	if agreed {
		score += PassAgreementBonus
		reasons = append(reasons, constants.ReasonPassAgreement)
	}

	if c := in.Signals.ConfidenceRaw; c != nil {
		switch {
		case *c >= HighConfidenceMin:
			score += HighConfidenceBonus
		case *c >= MidConfidenceMin:
			score += MidConfidenceBonus
		case agreed:
			score += LowConfidenceAgreedBonus
		default:
			score -= LowConfidencePenalty
			reasons = append(reasons, constants.ReasonLowConfidence)
		}
	}

	maxJump := int64(in.MaxForwardJump)
	if maxJump <= 0 {
		maxJump = DefaultSeqForwardJumpMax
	}
	if last, ok := parseWONumber(in.Signals.LastKnownWONumber); ok {
		if n, ok := parseWONumber(candidate); ok {
			diff := n - last
			switch {
			case diff < 0:
				score -= SeqOutlierPenalty
				reasons = append(reasons, constants.ReasonSeqOutlier)
			case diff <= maxJump:
				score += SeqWindowBonus
			default:
				score -= SeqOutlierPenalty
				reasons = append(reasons, constants.ReasonSeqOutlier)
			}
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	state := constants.StateNeedsAttention
	switch {
	case score >= AutoConfirmMin:
		state = constants.StateAutoConfirmed
	case score >= QuickCheckMin:
		state = constants.StateQuickCheck
	}

	return Result{
		State:         state,
		BestCandidate: candidate,
		Candidates:    candidates,
		TrustScore:    score,
		Reasons:       reasons,
	}
}

func parseWONumber(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
