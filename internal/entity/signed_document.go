package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/troyfry/workorder-reconciler/constants"
)

// SignedDocument represents one unique uploaded PDF, keyed by content hash.
// Created once per unique file content; the store enforces hash uniqueness.
type SignedDocument struct {
	ID               uuid.UUID                  `json:"id"`
	FileHash         string                     `json:"file_hash"` // SHA-256, lowercase hex
	StorageURL       string                     `json:"storage_url,omitempty"`
	SenderKey        string                     `json:"sender_key"`
	WorkOrderNumber  string                     `json:"work_order_number,omitempty"`
	ExtractionMethod constants.ExtractionMethod `json:"extraction_method"`
	Confidence       float64                    `json:"confidence"`
	Rationale        string                     `json:"rationale,omitempty"`
	SourceMetadata   map[string]string          `json:"source_metadata,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
}
