package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/troyfry/workorder-reconciler/constants"
)

// Job represents a known work-order job record for data transfer between layers.
type Job struct {
	ID              uuid.UUID           `json:"id"`
	WorkOrderNumber string              `json:"work_order_number"`
	SenderKey       string              `json:"sender_key"`
	Status          constants.JobStatus `json:"status"`
	SignedURL       *string             `json:"signed_url,omitempty"`
	Confidence      *float64            `json:"confidence,omitempty"`
	SignedAt        *time.Time          `json:"signed_at,omitempty"`
}

// Match links exactly one SignedDocument to exactly one Job. The store enforces
// uniqueness on both sides.
type Match struct {
	ID         uuid.UUID `json:"id"`
	JobID      uuid.UUID `json:"job_id"`
	DocumentID uuid.UUID `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}
