package constants

// DecisionState is the terminal state of a trust decision, in descending order of trust.
type DecisionState string

// Stable values (store these exact strings in DB).
const (
	StateAutoConfirmed  DecisionState = "AUTO_CONFIRMED"  // high trust, match without review
	StateQuickCheck     DecisionState = "QUICK_CHECK"     // match, but flag for a fast human glance
	StateNeedsAttention DecisionState = "NEEDS_ATTENTION" // full manual review required
)

// ProcessStatus is the terminal status of one document's pipeline run.
type ProcessStatus string

const (
	ProcessMatched          ProcessStatus = "MATCHED"
	ProcessNeedsReview      ProcessStatus = "NEEDS_REVIEW"
	ProcessAlreadyProcessed ProcessStatus = "ALREADY_PROCESSED"
)

// JobStatus is the canonical status for rows in jobs.
type JobStatus string

const (
	JobStatusOpen   JobStatus = "OPEN"
	JobStatusSigned JobStatus = "SIGNED"
	JobStatusClosed JobStatus = "CLOSED"
)

// ExtractionMethod identifies how the work-order number was pulled from the document.
type ExtractionMethod string

const (
	MethodDigitalText ExtractionMethod = "DIGITAL_TEXT" // embedded text layer, no OCR
	MethodOCR         ExtractionMethod = "OCR"
)

// FoundIn identifies which store already holds a processed file hash.
type FoundIn string

const (
	FoundInConfirmed FoundIn = "CONFIRMED"
	FoundInReview    FoundIn = "REVIEW"
)
