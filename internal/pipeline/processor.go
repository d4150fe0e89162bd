// Package pipeline runs one document end to end: dedup guard, profile and crop
// resolution, OCR orchestration, trust decision, reconciliation. One document,
// one strictly sequential pass; batches run many pipelines concurrently.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/common"
	"github.com/troyfry/workorder-reconciler/internal/crop"
	"github.com/troyfry/workorder-reconciler/internal/decision"
	"github.com/troyfry/workorder-reconciler/internal/dedupe"
	"github.com/troyfry/workorder-reconciler/internal/orchestrate"
	"github.com/troyfry/workorder-reconciler/internal/profiles"
	"github.com/troyfry/workorder-reconciler/internal/reconcile"
	"github.com/troyfry/workorder-reconciler/internal/repository"
)

// Request is one document to process.
type Request struct {
	SenderKey string
	Filename  string
	PDF       []byte
	Pages     int
	// DigitalText carries the embedded text layer when the PDF has one; the
	// pipeline then decides from it directly and never calls OCR.
	DigitalText    string
	SourceMetadata map[string]string
}

// Result is the terminal outcome for one document.
type Result struct {
	Status   constants.ProcessStatus
	FileHash string
	FoundIn  constants.FoundIn // set for ALREADY_PROCESSED
	Decision decision.Result
	Outcome  reconcile.Outcome
}

// Processor wires the pipeline stages together.
type Processor struct {
	guard          *dedupe.Guard
	profiles       *profiles.Service
	orch           *orchestrate.Orchestrator
	router         *reconcile.Router
	jobs           repository.JobRepository
	maxForwardJump int
	logger         *slog.Logger
}

func NewProcessor(
	guard *dedupe.Guard,
	senderProfiles *profiles.Service,
	orch *orchestrate.Orchestrator,
	router *reconcile.Router,
	jobs repository.JobRepository,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		guard:    guard,
		profiles: senderProfiles,
		orch:     orch,
		router:   router,
		jobs:     jobs,
		logger:   logger,
	}
}

// WithMaxForwardJump overrides the sequence-check forward window.
func (p *Processor) WithMaxForwardJump(n int) *Processor {
	p.maxForwardJump = n
	return p
}

// Process runs the pipeline for one document. Collaborator I/O failures
// surface as errors; extraction-quality and configuration problems resolve
// into a review outcome instead.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	log := p.logger
	if reqID := common.RequestIDFromContext(ctx); reqID != "" {
		log = log.With("request_id", reqID)
	}

	hash, hit, err := p.guard.Check(ctx, req.PDF)
	if err != nil {
		return Result{}, err
	}
	if hit.Exists {
		log.Info("pipeline.already_processed", "file_hash", hash, "found_in", hit.FoundIn)
		return Result{
			Status:   constants.ProcessAlreadyProcessed,
			FileHash: hash,
			FoundIn:  hit.FoundIn,
		}, nil
	}

	doc := reconcile.Document{
		FileHash:       hash,
		SenderKey:      req.SenderKey,
		Filename:       req.Filename,
		PDF:            req.PDF,
		Method:         constants.MethodOCR,
		SourceMetadata: req.SourceMetadata,
	}

	profile, err := p.profiles.Get(req.SenderKey)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			log.Warn("pipeline.template_not_found", "file_hash", hash, "sender_key", req.SenderKey)
			return p.configReview(ctx, hash, doc, constants.ReasonTemplateNotFound)
		}
		return Result{}, err
	}

	var dec decision.Result
	if req.DigitalText != "" {
		doc.Method = constants.MethodDigitalText
		doc.RawText = req.DigitalText
		doc.Confidence = 1
		dec = decision.Decide(decision.Input{
			RawText: req.DigitalText,
			Rule:    profile.Rule,
			Signals: decision.Signals{
				Method:            constants.MethodDigitalText,
				LastKnownWONumber: p.lastKnown(ctx, req.SenderKey, log),
			},
			MaxForwardJump: p.maxForwardJump,
		})
	} else {
		if profile.Crop == nil {
			return p.configReview(ctx, hash, doc, constants.ReasonCropNotConfigured)
		}
		if err := crop.Validate(profile.Crop); err != nil {
			reason := constants.ReasonCropInvalid
			if errors.Is(err, crop.ErrNotConfigured) {
				reason = constants.ReasonCropNotConfigured
			}
			log.Warn("pipeline.crop_rejected", "file_hash", hash, "sender_key", req.SenderKey, "error", err)
			return p.configReview(ctx, hash, doc, reason)
		}

		attempts, best, err := p.orch.Run(ctx, orchestrate.Doc{
			PDF:      req.PDF,
			Filename: req.Filename,
			Pages:    req.Pages,
		}, orchestrate.Plan{
			TemplateID: profile.TemplateID,
			Page:       profile.Page,
			Region:     profile.Crop,
			Rule:       profile.Rule,
		})
		if err != nil {
			// Surface the failure to the review queue so the document is not
			// silently dropped, then propagate the hard error to the caller.
			res, reviewErr := p.configReview(ctx, hash, doc, constants.ReasonOCRFailed)
			if reviewErr != nil {
				log.Error("pipeline.review_append_failed", "file_hash", hash, "reason_code", constants.ReasonOCRFailed, "error", reviewErr)
			}
			return res, fmt.Errorf("ocr orchestration: %w", err)
		}

		doc.RawText = best.RawText
		doc.Confidence = best.Confidence
		doc.PassAgreement = orchestrate.PassAgreement(attempts)
		doc.SnippetDataURL = best.SnippetURL

		conf := best.Confidence
		dec = decision.Decide(decision.Input{
			Candidates: candidatesFromAttempts(attempts),
			RawText:    best.RawText,
			Rule:       profile.Rule,
			Signals: decision.Signals{
				Method:            constants.MethodOCR,
				ConfidenceRaw:     &conf,
				PassAgreement:     doc.PassAgreement,
				LastKnownWONumber: p.lastKnown(ctx, req.SenderKey, log),
			},
			MaxForwardJump: p.maxForwardJump,
		})
	}

	log.Info("pipeline.decide.ok",
		"file_hash", hash,
		"state", dec.State,
		"trust_score", dec.TrustScore,
		"best_candidate", dec.BestCandidate,
	)

	outcome, err := p.router.Route(ctx, doc, dec)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Status:   outcome.Status,
		FileHash: hash,
		Decision: dec,
		Outcome:  outcome,
	}, nil
}

func (p *Processor) configReview(ctx context.Context, hash string, doc reconcile.Document, reason constants.ReasonCode) (Result, error) {
	dec := decision.Result{State: constants.StateNeedsAttention}
	outcome, err := p.router.Review(ctx, doc, dec, reason)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Status:   outcome.Status,
		FileHash: hash,
		Decision: dec,
		Outcome:  outcome,
	}, nil
}

// lastKnown is advisory: a lookup failure disables the sequence check rather
// than failing the document.
func (p *Processor) lastKnown(ctx context.Context, senderKey string, log *slog.Logger) string {
	last, err := p.jobs.LastWorkOrderNumber(ctx, senderKey)
	if err != nil {
		log.Warn("pipeline.last_known_lookup_failed", "sender_key", senderKey, "error", err)
		return ""
	}
	return last
}

// candidatesFromAttempts collects the per-attempt extractions in attempt order.
// Duplicates are fine; the decision engine dedupes while preserving order.
func candidatesFromAttempts(attempts []orchestrate.Attempt) []string {
	var out []string
	for _, a := range attempts {
		if a.WONumber != "" {
			out = append(out, a.WONumber)
		}
	}
	return out
}
