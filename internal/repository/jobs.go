package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/entity"
)

// JobStatusUpdate carries the fields written when a job is marked signed.
type JobStatusUpdate struct {
	Status     constants.JobStatus
	SignedURL  string
	Confidence float64
	SignedAt   time.Time
}

// JobRepository exposes the job and match store. CreateMatch must fail with a
// unique violation when either the job or the document already has a match;
// the schema's unique constraints enforce that atomically.
type JobRepository interface {
	FindByWorkOrderNumber(ctx context.Context, number string) (*entity.Job, error)
	FindMatchByJob(ctx context.Context, jobID uuid.UUID) (*entity.Match, error)
	CreateMatch(ctx context.Context, jobID, documentID uuid.UUID) (*entity.Match, error)
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, upd JobStatusUpdate) error
	// LastWorkOrderNumber returns the highest confirmed work-order number for a
	// sender, or "" when none exists. Feeds the decision engine's sequence check.
	LastWorkOrderNumber(ctx context.Context, senderKey string) (string, error)
}

type jobRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewJobRepository(pool *pgxpool.Pool, logger *slog.Logger) JobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &jobRepo{pool: pool, logger: logger}
}

func (r *jobRepo) FindByWorkOrderNumber(ctx context.Context, number string) (*entity.Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, work_order_number, sender_key, status, signed_url, confidence, signed_at
		FROM jobs
		WHERE work_order_number = $1`, number)

	var j entity.Job
	err := row.Scan(&j.ID, &j.WorkOrderNumber, &j.SenderKey, &j.Status, &j.SignedURL, &j.Confidence, &j.SignedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to find job by work order number", "work_order_number", number, "error", err)
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) FindMatchByJob(ctx context.Context, jobID uuid.UUID) (*entity.Match, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, job_id, document_id, created_at
		FROM matches
		WHERE job_id = $1`, jobID)

	var m entity.Match
	err := row.Scan(&m.ID, &m.JobID, &m.DocumentID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to find match by job", "job_id", jobID, "error", err)
		return nil, err
	}
	return &m, nil
}

func (r *jobRepo) CreateMatch(ctx context.Context, jobID, documentID uuid.UUID) (*entity.Match, error) {
	m := entity.Match{
		ID:         uuid.New(),
		JobID:      jobID,
		DocumentID: documentID,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO matches (id, job_id, document_id, created_at)
		VALUES ($1,$2,$3,$4)`,
		m.ID, m.JobID, m.DocumentID, m.CreatedAt,
	)
	if err != nil {
		// Duplicate key here is a lost race, not corruption; the caller decides.
		if !IsDuplicateKey(err) {
			r.logger.Error("failed to create match", "job_id", jobID, "document_id", documentID, "error", err)
		}
		return nil, err
	}
	return &m, nil
}

func (r *jobRepo) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, upd JobStatusUpdate) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = $2, signed_url = $3, confidence = $4, signed_at = $5
		WHERE id = $1`,
		jobID, upd.Status, upd.SignedURL, upd.Confidence, upd.SignedAt,
	)
	if err != nil {
		r.logger.Error("failed to update job status", "job_id", jobID, "status", upd.Status, "error", err)
	}
	return err
}

func (r *jobRepo) LastWorkOrderNumber(ctx context.Context, senderKey string) (string, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT work_order_number
		FROM jobs
		WHERE sender_key = $1 AND status = $2
		ORDER BY work_order_number::bigint DESC
		LIMIT 1`, senderKey, constants.JobStatusSigned)

	var number string
	err := row.Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.logger.Error("failed to get last work order number", "sender_key", senderKey, "error", err)
		return "", err
	}
	return number, nil
}
