package ingest

import (
	"context"
	"time"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/pipeline"
)

// FileResult is the per-file ingest outcome.
type FileResult struct {
	SourcePath  string
	FileHash    string
	Status      constants.ProcessStatus
	Reason      constants.ReasonCode
	TrustScore  int
	ProcessedAt time.Time
	Err         string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned          uint32
	Matched          uint32
	Confirmed        uint32
	NeedsReview      uint32
	AlreadyProcessed uint32
	Failed           uint32
}

// Ingestor is the behavior the daemon and CLI depend on.
type Ingestor interface {
	// ProcessPath runs the pipeline for a single file.
	ProcessPath(ctx context.Context, senderKey, path string) (pipeline.Result, error)
	// IngestDirectory processes all matching files under root.
	IngestDirectory(ctx context.Context, senderKey, root string, skipHidden bool) ([]FileResult, DirStats, error)
}
