package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/dedupe"
	"github.com/troyfry/workorder-reconciler/internal/entity"
)

// ReviewRepository is the needs-review queue store.
type ReviewRepository interface {
	Append(ctx context.Context, item *entity.ReviewItem) (*entity.ReviewItem, error)
	List(ctx context.Context, limit int) ([]entity.ReviewItem, error)
}

type reviewRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewReviewRepository(pool *pgxpool.Pool, logger *slog.Logger) ReviewRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &reviewRepo{pool: pool, logger: logger}
}

func (r *reviewRepo) Append(ctx context.Context, item *entity.ReviewItem) (*entity.ReviewItem, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	candidates, err := json.Marshal(item.Candidates)
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(item.SourceMetadata)
	if err != nil {
		return nil, err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO review_items
			(id, file_hash, sender_key, raw_text, confidence, pass_agreement,
			 trust_score, reason_code, candidates, manual_override, source_metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		item.ID, item.FileHash, item.SenderKey, item.RawText, item.Confidence, item.PassAgreement,
		item.TrustScore, item.ReasonCode, candidates, item.ManualOverride, meta, item.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to append review item", "file_hash", item.FileHash, "reason_code", item.ReasonCode, "error", err)
		return nil, err
	}
	return item, nil
}

func (r *reviewRepo) List(ctx context.Context, limit int) ([]entity.ReviewItem, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, file_hash, sender_key, raw_text, confidence, pass_agreement,
		       trust_score, reason_code, candidates, manual_override, source_metadata, created_at
		FROM review_items
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		r.logger.Error("failed to list review items", "error", err)
		return nil, err
	}
	defer rows.Close()

	var items []entity.ReviewItem
	for rows.Next() {
		var it entity.ReviewItem
		var candidates, meta []byte
		if err := rows.Scan(
			&it.ID, &it.FileHash, &it.SenderKey, &it.RawText, &it.Confidence, &it.PassAgreement,
			&it.TrustScore, &it.ReasonCode, &candidates, &it.ManualOverride, &meta, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			if err := json.Unmarshal(candidates, &it.Candidates); err != nil {
				return nil, err
			}
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &it.SourceMetadata); err != nil {
				return nil, err
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DedupRepository answers already-processed lookups across both terminal
// stores: a hash counts as handled if it either reached a confirmed match or
// was appended to the review queue.
type DedupRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDedupRepository(pool *pgxpool.Pool, logger *slog.Logger) *DedupRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupRepository{pool: pool, logger: logger}
}

func (r *DedupRepository) Exists(ctx context.Context, fileHash string) (dedupe.Hit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT m.id::text
		FROM signed_documents d
		JOIN matches m ON m.document_id = d.id
		WHERE d.file_hash = $1`, fileHash)

	var ref string
	err := row.Scan(&ref)
	if err == nil {
		return dedupe.Hit{Exists: true, FoundIn: constants.FoundInConfirmed, Ref: ref}, nil
	}
	if !noRows(err) {
		r.logger.Error("dedup lookup failed on matches", "file_hash", fileHash, "error", err)
		return dedupe.Hit{}, err
	}

	row = r.pool.QueryRow(ctx, `
		SELECT id::text
		FROM review_items
		WHERE file_hash = $1
		ORDER BY created_at DESC
		LIMIT 1`, fileHash)

	err = row.Scan(&ref)
	if err == nil {
		return dedupe.Hit{Exists: true, FoundIn: constants.FoundInReview, Ref: ref}, nil
	}
	if !noRows(err) {
		r.logger.Error("dedup lookup failed on review items", "file_hash", fileHash, "error", err)
		return dedupe.Hit{}, err
	}
	return dedupe.Hit{}, nil
}
