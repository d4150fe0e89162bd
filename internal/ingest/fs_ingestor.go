package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/troyfry/workorder-reconciler/constants"
	"github.com/troyfry/workorder-reconciler/internal/common"
	"github.com/troyfry/workorder-reconciler/internal/pipeline"
)

// FSIngestor reads documents from the local filesystem and feeds the pipeline.
type FSIngestor struct {
	Processor *pipeline.Processor
	Logger    *slog.Logger
}

func NewFSIngestor(proc *pipeline.Processor, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Processor: proc, Logger: logger}
}

func (i *FSIngestor) ProcessPath(ctx context.Context, senderKey, path string) (pipeline.Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		i.Logger.Error("abs path error", "path", path, "error", err)
		return pipeline.Result{}, err
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if !AllowedExt(ext) {
		i.Logger.Error("unsupported or missing extension", "path", abs, "ext", ext)
		return pipeline.Result{}, fmt.Errorf("unsupported or missing extension %q", ext)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		i.Logger.Error("read error", "path", abs, "error", err)
		return pipeline.Result{}, err
	}

	ctx = common.WithRequestID(ctx, uuid.New().String())
	return i.Processor.Process(ctx, pipeline.Request{
		SenderKey: senderKey,
		Filename:  filepath.Base(abs),
		PDF:       data,
		Pages:     CountPages(data),
		SourceMetadata: map[string]string{
			"source_path": abs,
		},
	})
}

// IngestDirectory walks root, skips hidden entries if requested, and runs the
// pipeline for each matching file. One file's failure never aborts the batch.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	senderKey, root string,
	skipHidden bool,
) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(constants.NormalizeExt(filepath.Ext(path))) {
			return nil
		}
		stats.Matched++

		res, err := i.ProcessPath(ctx, senderKey, path)
		fr := FileResult{
			SourcePath:  path,
			FileHash:    res.FileHash,
			Status:      res.Status,
			Reason:      res.Outcome.Reason,
			TrustScore:  res.Decision.TrustScore,
			ProcessedAt: time.Now().UTC(),
		}
		if err != nil {
			fr.Err = err.Error()
			stats.Failed++
			results = append(results, fr)
			return nil
		}

		switch res.Status {
		case constants.ProcessMatched:
			stats.Confirmed++
		case constants.ProcessNeedsReview:
			stats.NeedsReview++
		case constants.ProcessAlreadyProcessed:
			stats.AlreadyProcessed++
		}
		results = append(results, fr)
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
