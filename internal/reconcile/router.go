// Package reconcile routes a trust decision to exactly one of two terminal
// writes: a confirmed match record, or a needs-review append. It owns the
// exclusive right to create matches.
package reconcile

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/decision"
	"github.com/troyfry/workorder-reconciler/internal/entity"
	"github.com/troyfry/workorder-reconciler/internal/repository"
	"github.com/troyfry/workorder-reconciler/internal/storage"
)

// Document is the routed document plus the extraction signals worth auditing.
type Document struct {
	FileHash       string
	SenderKey      string
	Filename       string
	PDF            []byte
	RawText        string
	Confidence     float64
	PassAgreement  *bool
	Method         constants.ExtractionMethod
	SnippetDataURL string
	SourceMetadata map[string]string
}

// Outcome is the terminal result for one routed document.
type Outcome struct {
	Status     constants.ProcessStatus
	Reason     constants.ReasonCode
	MatchID    *uuid.UUID
	ReviewID   *uuid.UUID
	StorageURL string
}

// Router performs the terminal writes.
type Router struct {
	jobs   repository.JobRepository
	review repository.ReviewRepository
	docs   repository.SignedDocumentRepository
	files  storage.FileStore
	logger *slog.Logger
}

func NewRouter(
	jobs repository.JobRepository,
	review repository.ReviewRepository,
	docs repository.SignedDocumentRepository,
	files storage.FileStore,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{jobs: jobs, review: review, docs: docs, files: files, logger: logger}
}

// Route applies the decision: confirmed states with a resolvable job create a
// match and mark the job signed; everything else appends to the review queue.
// The no-match paths never upload the file to long-term storage.
func (r *Router) Route(ctx context.Context, doc Document, dec decision.Result) (Outcome, error) {
	confirmed := dec.State == constants.StateAutoConfirmed || dec.State == constants.StateQuickCheck
	if !confirmed || dec.BestCandidate == "" {
		return r.toReview(ctx, doc, dec, primaryReason(dec))
	}

	job, err := r.jobs.FindByWorkOrderNumber(ctx, dec.BestCandidate)
	if err != nil {
		return Outcome{}, fmt.Errorf("find job: %w", err)
	}
	if job == nil {
		return r.toReview(ctx, doc, dec, constants.ReasonNoMatchingJob)
	}

	// Sender gate: even a high-trust extraction must not attach a document to
	// another sender's job.
	if job.SenderKey != doc.SenderKey {
		r.logger.Warn("reconcile.sender_mismatch",
			"file_hash", doc.FileHash,
			"declared_sender", doc.SenderKey,
			"job_sender", job.SenderKey,
		)
		return r.toReview(ctx, doc, dec, constants.ReasonSenderMismatch)
	}

	existing, err := r.jobs.FindMatchByJob(ctx, job.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("find match: %w", err)
	}
	if existing != nil {
		return r.toReview(ctx, doc, dec, constants.ReasonAlreadyMatched)
	}

	return r.confirm(ctx, doc, dec, job)
}

func (r *Router) confirm(ctx context.Context, doc Document, dec decision.Result, job *entity.Job) (Outcome, error) {
	url, err := r.files.Upload(ctx, doc.FileHash, doc.Filename, doc.PDF)
	if err != nil {
		return Outcome{}, fmt.Errorf("upload document: %w", err)
	}
	r.uploadSnippet(ctx, doc)

	record, err := r.docs.GetByHash(ctx, doc.FileHash)
	if err != nil {
		return Outcome{}, fmt.Errorf("get signed document: %w", err)
	}
	if record == nil {
		record, err = r.docs.Create(ctx, &entity.SignedDocument{
			FileHash:         doc.FileHash,
			StorageURL:       url,
			SenderKey:        doc.SenderKey,
			WorkOrderNumber:  dec.BestCandidate,
			ExtractionMethod: doc.Method,
			Confidence:       doc.Confidence,
			Rationale:        rationale(dec),
			SourceMetadata:   doc.SourceMetadata,
		})
		if err != nil {
			if repository.IsDuplicateKey(err) {
				// Concurrent pipeline created the record; reuse theirs.
				record, err = r.docs.GetByHash(ctx, doc.FileHash)
			}
			if err != nil || record == nil {
				return Outcome{}, fmt.Errorf("create signed document: %w", err)
			}
		}
	}

	match, err := r.jobs.CreateMatch(ctx, job.ID, record.ID)
	if err != nil {
		if repository.IsDuplicateKey(err) {
			// Someone else won the race for this job or document. Not an error:
			// degrade to review so a human confirms which document belongs.
			r.logger.Warn("reconcile.match_race_lost", "file_hash", doc.FileHash, "job_id", job.ID)
			return r.toReview(ctx, doc, dec, constants.ReasonAlreadyMatched)
		}
		return Outcome{}, fmt.Errorf("create match: %w", err)
	}

	err = r.jobs.UpdateJobStatus(ctx, job.ID, repository.JobStatusUpdate{
		Status:     constants.JobStatusSigned,
		SignedURL:  url,
		Confidence: doc.Confidence,
		SignedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("update job status: %w", err)
	}

	r.logger.Info("reconcile.matched",
		"file_hash", doc.FileHash,
		"job_id", job.ID,
		"work_order_number", dec.BestCandidate,
		"state", dec.State,
		"trust_score", dec.TrustScore,
	)
	return Outcome{
		Status:     constants.ProcessMatched,
		MatchID:    &match.ID,
		StorageURL: url,
	}, nil
}

// Review appends straight to the review queue with an explicit reason. Used
// for configuration failures detected before any decision could be made.
func (r *Router) Review(ctx context.Context, doc Document, dec decision.Result, reason constants.ReasonCode) (Outcome, error) {
	return r.toReview(ctx, doc, dec, reason)
}

func (r *Router) toReview(ctx context.Context, doc Document, dec decision.Result, reason constants.ReasonCode) (Outcome, error) {
	item, err := r.review.Append(ctx, &entity.ReviewItem{
		FileHash:       doc.FileHash,
		SenderKey:      doc.SenderKey,
		RawText:        doc.RawText,
		Confidence:     doc.Confidence,
		PassAgreement:  doc.PassAgreement,
		TrustScore:     dec.TrustScore,
		ReasonCode:     reason,
		Candidates:     dec.Candidates,
		SourceMetadata: doc.SourceMetadata,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("append review item: %w", err)
	}

	r.logger.Info("reconcile.review",
		"file_hash", doc.FileHash,
		"reason_code", reason,
		"trust_score", dec.TrustScore,
		"candidates", len(dec.Candidates),
	)
	return Outcome{
		Status:   constants.ProcessNeedsReview,
		Reason:   reason,
		ReviewID: &item.ID,
	}, nil
}

// uploadSnippet stores the OCR snippet image next to the document when the
// service returned one. Failure here is non-fatal.
func (r *Router) uploadSnippet(ctx context.Context, doc Document) {
	data, ok := decodeDataURL(doc.SnippetDataURL)
	if !ok {
		return
	}
	if _, err := r.files.Upload(ctx, doc.FileHash, "snippet.png", data); err != nil {
		r.logger.Warn("reconcile.snippet_upload_failed", "file_hash", doc.FileHash, "error", err)
	}
}

func decodeDataURL(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, false
	}
	i := strings.Index(s, ";base64,")
	if i < 0 {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(s[i+len(";base64,"):])
	if err != nil {
		return nil, false
	}
	return data, true
}

// primaryReason picks the review-facing reason out of a decision's reasons:
// the first quality defect, falling back to LOW_TRUST for a clean extraction
// that simply scored below the confirmation floor.
func primaryReason(dec decision.Result) constants.ReasonCode {
	for _, reason := range dec.Reasons {
		switch reason {
		case constants.ReasonNoCandidate,
			constants.ReasonFormatMismatch,
			constants.ReasonMultipleCandidates,
			constants.ReasonLowConfidence,
			constants.ReasonSeqOutlier:
			return reason
		}
	}
	return constants.ReasonLowTrust
}

func rationale(dec decision.Result) string {
	parts := make([]string, 0, len(dec.Reasons)+1)
	parts = append(parts, fmt.Sprintf("trust=%d", dec.TrustScore))
	for _, reason := range dec.Reasons {
		parts = append(parts, string(reason))
	}
	return strings.Join(parts, ",")
}
