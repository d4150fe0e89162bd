package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/extract"
)

func f64(v float64) *float64 { return &v }
func b(v bool) *bool         { return &v }

func rule7() extract.Rule { return extract.Rule{ExpectedDigits: 7} }

func TestDecideDigitalTextAutoConfirms(t *testing.T) {
	res := Decide(Input{
		Candidates: []string{"1234567"},
		Rule:       rule7(),
		Signals:    Signals{Method: constants.MethodDigitalText},
	})

	assert.Equal(t, constants.StateAutoConfirmed, res.State)
	assert.Equal(t, 85, res.TrustScore) // 60 base + 25 digital text
	assert.Equal(t, "1234567", res.BestCandidate)
	assert.Contains(t, res.Reasons, constants.ReasonDigitalTextStrong)
}

func TestDecideOCRHighConfidenceWithAgreement(t *testing.T) {
	res := Decide(Input{
		Candidates: []string{"1234567"},
		Rule:       rule7(),
		Signals: Signals{
			Method:        constants.MethodOCR,
			ConfidenceRaw: f64(0.95),
			PassAgreement: b(true),
		},
	})

	// 60 + 20 agreement + 15 high confidence
	assert.Equal(t, constants.StateAutoConfirmed, res.State)
	assert.Equal(t, 95, res.TrustScore)
	assert.Contains(t, res.Reasons, constants.ReasonPassAgreement)
}

func TestDecideOCRMidConfidenceSinglePass(t *testing.T) {
	res := Decide(Input{
		Candidates: []string{"1234567"},
		Rule:       rule7(),
		Signals: Signals{
			Method:        constants.MethodOCR,
			ConfidenceRaw: f64(0.7),
		},
	})

	// 60 + 5 mid confidence
	assert.Equal(t, constants.StateQuickCheck, res.State)
	assert.Equal(t, 65, res.TrustScore)
}

func TestDecideLowConfidence(t *testing.T) {
	t.Run("penalized without agreement", func(t *testing.T) {
		res := Decide(Input{
			Candidates: []string{"1234567"},
			Rule:       rule7(),
			Signals: Signals{
				Method:        constants.MethodOCR,
				ConfidenceRaw: f64(0.4),
			},
		})

		assert.Equal(t, constants.StateNeedsAttention, res.State)
		assert.Equal(t, 45, res.TrustScore) // 60 - 15
		assert.Contains(t, res.Reasons, constants.ReasonLowConfidence)
	})

	t.Run("agreement overrides the penalty", func(t *testing.T) {
		res := Decide(Input{
			Candidates: []string{"1234567"},
			Rule:       rule7(),
			Signals: Signals{
				Method:        constants.MethodOCR,
				ConfidenceRaw: f64(0.4),
				PassAgreement: b(true),
			},
		})

		// 60 + 20 agreement + 5 agreed-low bonus
		assert.Equal(t, constants.StateAutoConfirmed, res.State)
		assert.Equal(t, 85, res.TrustScore)
		assert.NotContains(t, res.Reasons, constants.ReasonLowConfidence)
	})
}

func TestDecideSequenceCheck(t *testing.T) {
	base := func(last string) Input {
		return Input{
			Candidates: []string{"1240000"},
			Rule:       rule7(),
			Signals: Signals{
				Method:            constants.MethodOCR,
				ConfidenceRaw:     f64(0.95),
				LastKnownWONumber: last,
			},
		}
	}

	t.Run("forward jump beyond the window is an outlier", func(t *testing.T) {
		res := Decide(base("1230000")) // diff 10000 > 5000
		assert.Equal(t, 65, res.TrustScore) // 60 + 15 - 10
		assert.Contains(t, res.Reasons, constants.ReasonSeqOutlier)
	})

	t.Run("small forward jump earns the window bonus", func(t *testing.T) {
		res := Decide(base("1239990")) // diff 10
		assert.Equal(t, 80, res.TrustScore) // 60 + 15 + 5
		assert.Equal(t, constants.StateAutoConfirmed, res.State)
	})

	t.Run("backward jump is an outlier", func(t *testing.T) {
		res := Decide(base("1250000"))
		assert.Equal(t, 65, res.TrustScore)
		assert.Contains(t, res.Reasons, constants.ReasonSeqOutlier)
	})

	t.Run("no last known disables the check", func(t *testing.T) {
		res := Decide(base(""))
		assert.Equal(t, 75, res.TrustScore) // 60 + 15, no sequence adjustment
	})

	t.Run("custom window widens the plausible range", func(t *testing.T) {
		in := base("1230000")
		in.MaxForwardJump = 20000
		res := Decide(in)
		assert.Equal(t, 80, res.TrustScore)
	})
}

func TestDecideNoCandidate(t *testing.T) {
	res := Decide(Input{Rule: rule7(), Signals: Signals{Method: constants.MethodOCR}})

	assert.Equal(t, constants.StateNeedsAttention, res.State)
	assert.Zero(t, res.TrustScore)
	assert.Empty(t, res.BestCandidate)
	assert.Equal(t, []constants.ReasonCode{constants.ReasonNoCandidate}, res.Reasons)
}

func TestDecideFormatMismatch(t *testing.T) {
	res := Decide(Input{
		Candidates: []string{"12345"}, // 5 digits, 7 expected
		Rule:       rule7(),
		Signals:    Signals{Method: constants.MethodOCR, ConfidenceRaw: f64(0.9)},
	})

	assert.Equal(t, constants.StateNeedsAttention, res.State)
	assert.Equal(t, 20, res.TrustScore)
	assert.Equal(t, "12345", res.BestCandidate)
	assert.Equal(t, []constants.ReasonCode{constants.ReasonFormatMismatch}, res.Reasons)
}

func TestDecideMultipleCandidates(t *testing.T) {
	t.Run("unresolvable without a last known number", func(t *testing.T) {
		res := Decide(Input{
			Candidates: []string{"1234567", "7654321"},
			Rule:       rule7(),
			Signals:    Signals{Method: constants.MethodOCR, ConfidenceRaw: f64(0.95)},
		})

		assert.Equal(t, constants.StateNeedsAttention, res.State)
		assert.Equal(t, 30, res.TrustScore) // min(30, 100-10*2)
		assert.Equal(t, "1234567", res.BestCandidate)
		assert.Equal(t, []constants.ReasonCode{constants.ReasonMultipleCandidates}, res.Reasons)
	})

	t.Run("score drops with candidate count", func(t *testing.T) {
		res := Decide(Input{
			Candidates: []string{"1000001", "1000002", "1000003", "1000004", "1000005", "1000006", "1000007", "1000008"},
			Rule:       rule7(),
			Signals:    Signals{Method: constants.MethodOCR},
		})
		assert.Equal(t, 20, res.TrustScore) // 100 - 10*8
	})

	t.Run("forward auto-resolution picks the closest forward candidate", func(t *testing.T) {
		res := Decide(Input{
			Candidates: []string{"1230000", "1235000"},
			Rule:       rule7(),
			Signals: Signals{
				Method:            constants.MethodOCR,
				ConfidenceRaw:     f64(0.7),
				LastKnownWONumber: "1232000",
			},
		})

		// 1230000 is behind the last known number; 1235000 is 3000 ahead.
		// 60 + 5 mid confidence + 5 window = 70.
		assert.Equal(t, "1235000", res.BestCandidate)
		assert.Equal(t, constants.StateQuickCheck, res.State)
		assert.Equal(t, 70, res.TrustScore)
		assert.NotContains(t, res.Reasons, constants.ReasonMultipleCandidates)
	})

	t.Run("auto-resolution declined when the winner would score below quick check", func(t *testing.T) {
		res := Decide(Input{
			Candidates: []string{"1230000", "1235000"},
			Rule:       rule7(),
			Signals: Signals{
				Method:            constants.MethodOCR,
				ConfidenceRaw:     f64(0.3), // 60 - 15 + 5 = 50 < 60
				LastKnownWONumber: "1232000",
			},
		})

		assert.Equal(t, constants.StateNeedsAttention, res.State)
		assert.Contains(t, res.Reasons, constants.ReasonMultipleCandidates)
	})
}

func TestDecideNormalizesAndDedupes(t *testing.T) {
	res := Decide(Input{
		Candidates: []string{"WO 1234567", "1234567", "WO#1234567"},
		Rule:       rule7(),
		Signals:    Signals{Method: constants.MethodDigitalText},
	})

	require.Equal(t, []string{"1234567"}, res.Candidates)
	assert.Equal(t, constants.StateAutoConfirmed, res.State)
	assert.Equal(t, "1234567", res.BestCandidate)
}

func TestDecideScansRawTextWhenNoCandidatesGiven(t *testing.T) {
	res := Decide(Input{
		RawText: "Work Order\nWO# 1234567\nSigned by J. Doe",
		Rule:    rule7(),
		Signals: Signals{Method: constants.MethodDigitalText},
	})

	assert.Equal(t, "1234567", res.BestCandidate)
	assert.Equal(t, constants.StateAutoConfirmed, res.State)
}

func TestDecideIsDeterministic(t *testing.T) {
	in := Input{
		Candidates: []string{"1234567", "9999999"},
		Rule:       rule7(),
		Signals: Signals{
			Method:            constants.MethodOCR,
			ConfidenceRaw:     f64(0.82),
			PassAgreement:     b(false),
			LastKnownWONumber: "1234000",
		},
	}

	first := Decide(in)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Decide(in))
	}
}

func TestDecideClampsScore(t *testing.T) {
	res := Decide(Input{
		Candidates: []string{"1234567"},
		Rule:       rule7(),
		Signals: Signals{
			Method:            constants.MethodDigitalText,
			ConfidenceRaw:     f64(0.99),
			PassAgreement:     b(true),
			LastKnownWONumber: "1234000",
		},
	})

	// 60+25+20+15+5 = 125 before clamping.
	assert.Equal(t, 100, res.TrustScore)
}
