// Package orchestrate drives the bounded OCR attempt loop for one document:
// configured crop first, a padded-crop retry on weak results, and one
// alternate-page attempt on multi-page documents. At most three calls leave
// this package per document.
package orchestrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/troyfry/workorder-reconciler/internal/crop"
	"github.com/troyfry/workorder-reconciler/internal/extract"
	"github.com/troyfry/workorder-reconciler/internal/ocrclient"
)

const (
	// RetryConfidenceMin is the confidence floor below which an attempt is
	// considered weak. Carried over from the production system unchanged.
	RetryConfidenceMin = 0.55

	// DefaultDPI is the rasterization DPI sent to the OCR service.
	DefaultDPI = 300

	// MaxAttempts bounds the external calls per document.
	MaxAttempts = 3
)

// Attempt is one OCR call's outcome. Ephemeral: it lives only within a single
// orchestration run and is reduced to a best attempt at the end.
type Attempt struct {
	Page       int
	Confidence float64
	WONumber   string // normalized candidate, may be empty
	RawText    string
	SnippetURL string
	Region     crop.Region
	IsRetry    bool
	// Valid means the candidate passed both the plausibility filter and the
	// sender's format rule.
	Valid bool
}

// Doc is the document under extraction.
type Doc struct {
	PDF      []byte
	Filename string
	Pages    int
}

// Plan is the per-sender extraction plan resolved from the profile.
type Plan struct {
	TemplateID string
	Page       int // 1-based
	Region     crop.Region
	Rule       extract.Rule
}

// Orchestrator issues OCR attempts through the injected client.
type Orchestrator struct {
	client   ocrclient.Client
	dpi      int
	retryMin float64
	logger   *slog.Logger
}

func New(client ocrclient.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, dpi: DefaultDPI, retryMin: RetryConfidenceMin, logger: logger}
}

// WithDPI overrides the rasterization DPI.
func (o *Orchestrator) WithDPI(dpi int) *Orchestrator {
	if dpi > 0 {
		o.dpi = dpi
	}
	return o
}

// WithRetryConfidence overrides the weak-attempt confidence floor.
func (o *Orchestrator) WithRetryConfidence(min float64) *Orchestrator {
	if min > 0 {
		o.retryMin = min
	}
	return o
}

// Run executes the attempt state machine and returns all attempts plus the
// best one. An OCR call failure aborts the run; there is no silent fallback.
func (o *Orchestrator) Run(ctx context.Context, doc Doc, plan Plan) ([]Attempt, Attempt, error) {
	page := plan.Page
	if page < 1 {
		page = 1
	}

	first, err := o.call(ctx, doc, plan, page, plan.Region, false)
	if err != nil {
		return nil, Attempt{}, fmt.Errorf("attempt 1 (page %d): %w", page, err)
	}
	attempts := []Attempt{first}

	if o.weak(first) {
		expanded := crop.Expand(plan.Region)
		second, err := o.call(ctx, doc, plan, page, expanded, true)
		if err != nil {
			return attempts, Attempt{}, fmt.Errorf("attempt 2 (expanded crop, page %d): %w", page, err)
		}
		attempts = append(attempts, second)
	}

	if doc.Pages >= 2 {
		if best := BestAttempt(attempts); o.weak(best) {
			alt := alternatePage(page, doc.Pages)
			third, err := o.call(ctx, doc, plan, alt, plan.Region, true)
			if err != nil {
				return attempts, Attempt{}, fmt.Errorf("attempt %d (alternate page %d): %w", len(attempts)+1, alt, err)
			}
			attempts = append(attempts, third)
		}
	}

	best := BestAttempt(attempts)
	o.logger.Info("orchestrate.run.done",
		"template_id", plan.TemplateID,
		"attempts", len(attempts),
		"best_page", best.Page,
		"best_confidence", best.Confidence,
		"best_valid", best.Valid,
	)
	return attempts, best, nil
}

func (o *Orchestrator) call(ctx context.Context, doc Doc, plan Plan, page int, region crop.Region, isRetry bool) (Attempt, error) {
	resp, err := o.client.Recognize(ctx, doc.PDF, doc.Filename, ocrclient.Request{
		TemplateID: plan.TemplateID,
		Page:       page,
		DPI:        o.dpi,
		Region:     region,
	})
	if err != nil {
		return Attempt{}, err
	}

	candidate := ""
	if resp.WONumber != nil {
		candidate = extract.NormalizeCandidate(*resp.WONumber)
	}
	if candidate == "" {
		// The service found nothing usable; scan its raw text ourselves.
		if cs := extract.CandidatesFromText(resp.RawText, plan.Rule.ExpectedDigits); len(cs) > 0 {
			candidate = cs[0]
		}
	}

	a := Attempt{
		Page:       page,
		Confidence: resp.ConfidenceRaw,
		WONumber:   candidate,
		RawText:    resp.RawText,
		SnippetURL: resp.SnippetImageURL,
		Region:     region,
		IsRetry:    isRetry,
		Valid:      candidate != "" && extract.Plausible(candidate) && extract.ValidFormat(candidate, plan.Rule),
	}
	o.logger.Debug("orchestrate.attempt",
		"page", page,
		"retry", isRetry,
		"confidence", a.Confidence,
		"valid", a.Valid,
	)
	return a, nil
}

// weak reports whether an attempt should trigger another one.
func (o *Orchestrator) weak(a Attempt) bool {
	return a.Confidence < o.retryMin || !a.Valid
}

// alternatePage picks the other page on 2-page documents; otherwise it prefers
// the page before the configured one, falling back to page 2.
func alternatePage(page, pages int) int {
	if pages == 2 {
		if page == 1 {
			return 2
		}
		return 1
	}
	if page-1 >= 1 {
		return page - 1
	}
	return 2
}
