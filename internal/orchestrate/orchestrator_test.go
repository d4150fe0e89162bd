package orchestrate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troyfry/workorder-reconciler/internal/crop"
	"github.com/troyfry/workorder-reconciler/internal/extract"
	"github.com/troyfry/workorder-reconciler/internal/ocrclient"
)

// fakeClient replays scripted responses and records every request it sees.
type fakeClient struct {
	responses []ocrclient.Response
	errs      []error
	calls     []ocrclient.Request
}

func (f *fakeClient) Recognize(_ context.Context, _ []byte, _ string, req ocrclient.Request) (ocrclient.Response, error) {
	i := len(f.calls)
	f.calls = append(f.calls, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return ocrclient.Response{}, f.errs[i]
	}
	if i >= len(f.responses) {
		return ocrclient.Response{}, errors.New("fakeClient: no scripted response")
	}
	return f.responses[i], nil
}

func strp(s string) *string { return &s }

func plan() Plan {
	return Plan{
		TemplateID: "acme-v2",
		Page:       1,
		Region:     crop.Percent{X: 0.6, Y: 0.05, W: 0.3, H: 0.1},
		Rule:       extract.Rule{ExpectedDigits: 7},
	}
}

func TestRunStrongFirstAttemptStops(t *testing.T) {
	fc := &fakeClient{responses: []ocrclient.Response{
		{WONumber: strp("1234567"), RawText: "WO# 1234567", ConfidenceRaw: 0.92},
	}}

	attempts, best, err := New(fc, nil).Run(context.Background(), Doc{Pages: 3}, plan())

	require.NoError(t, err)
	assert.Len(t, fc.calls, 1)
	assert.Len(t, attempts, 1)
	assert.True(t, best.Valid)
	assert.Equal(t, "1234567", best.WONumber)
	assert.False(t, best.IsRetry)
}

func TestRunWeakFirstAttemptRetriesWithExpandedCrop(t *testing.T) {
	fc := &fakeClient{responses: []ocrclient.Response{
		{WONumber: strp("123456"), ConfidenceRaw: 0.3}, // wrong length, weak
		{WONumber: strp("1234567"), ConfidenceRaw: 0.8},
	}}

	attempts, best, err := New(fc, nil).Run(context.Background(), Doc{Pages: 1}, plan())

	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.True(t, attempts[1].IsRetry)
	assert.Equal(t, "1234567", best.WONumber)
	assert.True(t, best.Valid)

	// The retry crop must be the padded version of the original.
	orig := plan().Region.(crop.Percent)
	retry, ok := fc.calls[1].Region.(crop.Percent)
	require.True(t, ok)
	assert.Less(t, retry.X, orig.X)
	assert.Greater(t, retry.W, orig.W)
}

func TestRunAlternatePageOnMultiPageDoc(t *testing.T) {
	fc := &fakeClient{responses: []ocrclient.Response{
		{RawText: "illegible", ConfidenceRaw: 0.2},
		{RawText: "still illegible", ConfidenceRaw: 0.25},
		{WONumber: strp("1234567"), ConfidenceRaw: 0.9},
	}}

	attempts, best, err := New(fc, nil).Run(context.Background(), Doc{Pages: 2}, plan())

	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, 2, fc.calls[2].Page, "two-page document retries the other page")
	assert.Equal(t, "1234567", best.WONumber)
	assert.Equal(t, 2, best.Page)

	// The alternate-page attempt goes back to the configured crop.
	assert.Equal(t, plan().Region, fc.calls[2].Region)
}

func TestRunNeverExceedsThreeCalls(t *testing.T) {
	fc := &fakeClient{responses: []ocrclient.Response{
		{ConfidenceRaw: 0.1},
		{ConfidenceRaw: 0.1},
		{ConfidenceRaw: 0.1},
		{ConfidenceRaw: 0.1}, // must never be reached
	}}

	attempts, _, err := New(fc, nil).Run(context.Background(), Doc{Pages: 5}, plan())

	require.NoError(t, err)
	assert.Len(t, fc.calls, 3)
	assert.Len(t, attempts, 3)
}

func TestRunSinglePageNeverTriesAlternatePage(t *testing.T) {
	fc := &fakeClient{responses: []ocrclient.Response{
		{ConfidenceRaw: 0.1},
		{ConfidenceRaw: 0.1},
	}}

	_, _, err := New(fc, nil).Run(context.Background(), Doc{Pages: 1}, plan())

	require.NoError(t, err)
	assert.Len(t, fc.calls, 2)
}

func TestRunPropagatesClientError(t *testing.T) {
	boom := errors.New("connection refused")
	fc := &fakeClient{errs: []error{boom}}

	_, _, err := New(fc, nil).Run(context.Background(), Doc{Pages: 1}, plan())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "attempt 1")
}

func TestRunFallsBackToRawTextScan(t *testing.T) {
	fc := &fakeClient{responses: []ocrclient.Response{
		{RawText: "Work Order\nWO# 7654321\nSigned", ConfidenceRaw: 0.85},
	}}

	_, best, err := New(fc, nil).Run(context.Background(), Doc{Pages: 1}, plan())

	require.NoError(t, err)
	assert.Equal(t, "7654321", best.WONumber)
	assert.True(t, best.Valid)
}

func TestRunCustomRetryConfidence(t *testing.T) {
	fc := &fakeClient{responses: []ocrclient.Response{
		{WONumber: strp("1234567"), ConfidenceRaw: 0.5},
		{WONumber: strp("1234567"), ConfidenceRaw: 0.6},
	}}

	// 0.5 clears a 0.4 floor, so the valid first attempt ends the run.
	_, _, err := New(fc, nil).WithRetryConfidence(0.4).Run(context.Background(), Doc{Pages: 1}, plan())
	require.NoError(t, err)
	assert.Len(t, fc.calls, 1)
}

func TestAlternatePage(t *testing.T) {
	tests := []struct {
		page, pages, want int
	}{
		{1, 2, 2},
		{2, 2, 1},
		{3, 5, 2},
		{1, 5, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, alternatePage(tt.page, tt.pages))
	}
}

func TestBetterAndBestAttempt(t *testing.T) {
	valid := Attempt{WONumber: "1234567", Confidence: 0.5, Valid: true}
	invalidHigh := Attempt{WONumber: "12", Confidence: 0.99}
	validHigh := Attempt{WONumber: "7654321", Confidence: 0.9, Valid: true}

	assert.True(t, Better(valid, invalidHigh), "validity beats confidence")
	assert.False(t, Better(invalidHigh, valid))
	assert.True(t, Better(validHigh, valid))

	t.Run("earlier attempt wins exact ties", func(t *testing.T) {
		a := Attempt{Page: 1, Confidence: 0.5, Valid: true}
		b := Attempt{Page: 2, Confidence: 0.5, Valid: true}
		assert.Equal(t, a, BestAttempt([]Attempt{a, b}))
	})

	t.Run("no valid attempt falls back to highest confidence", func(t *testing.T) {
		best := BestAttempt([]Attempt{{Confidence: 0.2}, invalidHigh, {Confidence: 0.4}})
		assert.Equal(t, invalidHigh, best)
	})

	t.Run("empty input yields zero attempt", func(t *testing.T) {
		assert.Equal(t, Attempt{}, BestAttempt(nil))
	})
}

func TestPassAgreement(t *testing.T) {
	t.Run("nil with fewer than two attempts", func(t *testing.T) {
		assert.Nil(t, PassAgreement(nil))
		assert.Nil(t, PassAgreement([]Attempt{{WONumber: "1234567"}}))
	})

	t.Run("true when two passes agree", func(t *testing.T) {
		got := PassAgreement([]Attempt{{WONumber: "1234567"}, {WONumber: "1234567"}})
		require.NotNil(t, got)
		assert.True(t, *got)
	})

	t.Run("false on disagreement", func(t *testing.T) {
		got := PassAgreement([]Attempt{{WONumber: "1234567"}, {WONumber: "7654321"}})
		require.NotNil(t, got)
		assert.False(t, *got)
	})

	t.Run("empty extractions never agree", func(t *testing.T) {
		got := PassAgreement([]Attempt{{}, {}})
		require.NotNil(t, got)
		assert.False(t, *got)
	})
}
