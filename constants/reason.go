package constants

// ReasonCode is a closed set of machine reasons attached to a decision or a
// review item. Codes are control-flow signals only; user-facing text lives in
// the Reasons table below.
type ReasonCode string

const (
	// Extraction-quality reasons produced by the decision engine.
	ReasonNoCandidate        ReasonCode = "NO_CANDIDATE"
	ReasonFormatMismatch     ReasonCode = "FORMAT_MISMATCH"
	ReasonMultipleCandidates ReasonCode = "MULTIPLE_CANDIDATES"
	ReasonOKFormat           ReasonCode = "OK_FORMAT"
	ReasonDigitalTextStrong  ReasonCode = "DIGITAL_TEXT_STRONG"
	ReasonPassAgreement      ReasonCode = "PASS_AGREEMENT"
	ReasonLowConfidence      ReasonCode = "LOW_CONFIDENCE"
	ReasonSeqOutlier         ReasonCode = "SEQ_OUTLIER"

	// Configuration reasons detected before any OCR call.
	ReasonTemplateNotFound  ReasonCode = "TEMPLATE_NOT_FOUND"
	ReasonCropNotConfigured ReasonCode = "CROP_NOT_CONFIGURED"
	ReasonCropInvalid       ReasonCode = "CROP_INVALID"

	// Routing reasons produced by the reconciliation router.
	ReasonSenderMismatch ReasonCode = "SENDER_MISMATCH"
	ReasonAlreadyMatched ReasonCode = "ALREADY_MATCHED"
	ReasonNoMatchingJob  ReasonCode = "NO_MATCHING_JOB"
	ReasonLowTrust       ReasonCode = "LOW_TRUST"
	ReasonOCRFailed      ReasonCode = "OCR_FAILED"
)

// Tone hints how a reason should be presented in review tooling.
type Tone string

const (
	ToneInfo    Tone = "info"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// ReasonInfo is the user-facing presentation of a ReasonCode.
type ReasonInfo struct {
	Title   string
	Message string
	Tone    Tone
}

// Reasons maps every ReasonCode to its presentation. Keep the decision engine
// free of these strings.
var Reasons = map[ReasonCode]ReasonInfo{
	ReasonNoCandidate:        {"No number found", "No work-order number candidate was found in the document text.", ToneError},
	ReasonFormatMismatch:     {"Unexpected format", "A number was found but it does not match the expected work-order format for this sender.", ToneWarning},
	ReasonMultipleCandidates: {"Multiple numbers", "More than one plausible work-order number was found and could not be resolved automatically.", ToneWarning},
	ReasonOKFormat:           {"Format OK", "The extracted number matches the expected work-order format.", ToneInfo},
	ReasonDigitalTextStrong:  {"Digital text", "The number came from the embedded text layer, not OCR.", ToneInfo},
	ReasonPassAgreement:      {"Passes agree", "Two independent OCR passes extracted the same number.", ToneInfo},
	ReasonLowConfidence:      {"Low OCR confidence", "The OCR engine reported low confidence for this extraction.", ToneWarning},
	ReasonSeqOutlier:         {"Out of sequence", "The number is implausibly far from the last known work-order number for this sender.", ToneWarning},
	ReasonTemplateNotFound:   {"Unknown sender", "No template profile is configured for this sender key.", ToneError},
	ReasonCropNotConfigured:  {"Crop not configured", "The sender profile has no crop region drawn; the full-page default cannot be used.", ToneError},
	ReasonCropInvalid:        {"Crop invalid", "The configured crop region is degenerate, too small, or out of page bounds.", ToneError},
	ReasonSenderMismatch:     {"Sender mismatch", "The matched job belongs to a different sender than the one declared on this document.", ToneError},
	ReasonAlreadyMatched:     {"Job already matched", "The job already has a signed document attached.", ToneWarning},
	ReasonNoMatchingJob:      {"No matching job", "No job record exists for the extracted work-order number.", ToneWarning},
	ReasonLowTrust:           {"Low trust", "The trust score is below the confirmation threshold.", ToneWarning},
	ReasonOCRFailed:          {"OCR failed", "The OCR service call failed for this document.", ToneError},
}
