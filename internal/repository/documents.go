package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/troyfry/workorder-reconciler/internal/entity"
)

// SignedDocumentRepository persists one row per unique PDF content hash.
type SignedDocumentRepository interface {
	GetByHash(ctx context.Context, fileHash string) (*entity.SignedDocument, error)
	Create(ctx context.Context, doc *entity.SignedDocument) (*entity.SignedDocument, error)
}

type signedDocumentRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewSignedDocumentRepository(pool *pgxpool.Pool, logger *slog.Logger) SignedDocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &signedDocumentRepo{pool: pool, logger: logger}
}

func (r *signedDocumentRepo) GetByHash(ctx context.Context, fileHash string) (*entity.SignedDocument, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, file_hash, storage_url, sender_key, work_order_number,
		       extraction_method, confidence, rationale, source_metadata, created_at
		FROM signed_documents
		WHERE file_hash = $1`, fileHash)

	doc, err := scanSignedDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get signed document by hash", "file_hash", fileHash, "error", err)
		return nil, err
	}
	return doc, nil
}

func (r *signedDocumentRepo) Create(ctx context.Context, doc *entity.SignedDocument) (*entity.SignedDocument, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	meta, err := json.Marshal(doc.SourceMetadata)
	if err != nil {
		return nil, err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO signed_documents
			(id, file_hash, storage_url, sender_key, work_order_number,
			 extraction_method, confidence, rationale, source_metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		doc.ID, doc.FileHash, doc.StorageURL, doc.SenderKey, doc.WorkOrderNumber,
		doc.ExtractionMethod, doc.Confidence, doc.Rationale, meta, doc.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create signed document", "file_hash", doc.FileHash, "error", err)
		return nil, err
	}
	return doc, nil
}

func scanSignedDocument(row pgx.Row) (*entity.SignedDocument, error) {
	var doc entity.SignedDocument
	var meta []byte
	err := row.Scan(
		&doc.ID, &doc.FileHash, &doc.StorageURL, &doc.SenderKey, &doc.WorkOrderNumber,
		&doc.ExtractionMethod, &doc.Confidence, &doc.Rationale, &meta, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &doc.SourceMetadata); err != nil {
			return nil, err
		}
	}
	return &doc, nil
}
