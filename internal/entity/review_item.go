package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/troyfry/workorder-reconciler/constants"
)

// ReviewItem is one entry in the needs-review queue. It carries everything a
// human needs to audit the extraction: score, reason, candidates, raw text and
// the OCR signals that produced the decision.
type ReviewItem struct {
	ID             uuid.UUID            `json:"id"`
	FileHash       string               `json:"file_hash"`
	SenderKey      string               `json:"sender_key"`
	RawText        string               `json:"raw_text,omitempty"`
	Confidence     float64              `json:"confidence"`
	PassAgreement  *bool                `json:"pass_agreement,omitempty"`
	TrustScore     int                  `json:"trust_score"`
	ReasonCode     constants.ReasonCode `json:"reason_code"`
	Candidates     []string             `json:"candidates,omitempty"`
	ManualOverride bool                 `json:"manual_override"`
	SourceMetadata map[string]string    `json:"source_metadata,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}
