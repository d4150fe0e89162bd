// woreconciled is the long-running reconciliation daemon. It watches an inbox
// directory for signed work-order PDFs, runs each through the trust pipeline
// on a bounded worker pool, and records matches and review items in Postgres.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/troyfry/workorder-reconciler/internal/async"
	"github.com/troyfry/workorder-reconciler/internal/common"
	"github.com/troyfry/workorder-reconciler/internal/dedupe"
	"github.com/troyfry/workorder-reconciler/internal/ingest"
	"github.com/troyfry/workorder-reconciler/internal/ocrclient"
	"github.com/troyfry/workorder-reconciler/internal/orchestrate"
	"github.com/troyfry/workorder-reconciler/internal/pipeline"
	"github.com/troyfry/workorder-reconciler/internal/profiles"
	"github.com/troyfry/workorder-reconciler/internal/reconcile"
	"github.com/troyfry/workorder-reconciler/internal/repository"
	"github.com/troyfry/workorder-reconciler/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using system environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("daemon exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		return err
	}

	jobs := repository.NewJobRepository(pool, logger)
	docs := repository.NewSignedDocumentRepository(pool, logger)
	reviews := repository.NewReviewRepository(pool, logger)
	dedup := repository.NewDedupRepository(pool, logger)

	senderProfiles, err := profiles.Load(cfg.Profiles.Path, logger)
	if err != nil {
		return err
	}
	logger.Info("sender profiles loaded", "path", cfg.Profiles.Path, "senders", len(senderProfiles.Keys()))

	files := storage.NewDiskStore(cfg.Storage.Root, logger)
	ocr := ocrclient.NewHTTPClient(cfg.OCR.BaseURL, cfg.OCR.Timeout, logger)
	orch := orchestrate.New(ocr, logger).
		WithDPI(cfg.OCR.DPI).
		WithRetryConfidence(cfg.OCR.RetryConfidence)
	router := reconcile.NewRouter(jobs, reviews, docs, files, logger)
	guard := dedupe.NewGuard(dedup, logger)

	proc := pipeline.NewProcessor(guard, senderProfiles, orch, router, jobs, logger).
		WithMaxForwardJump(cfg.Pipeline.MaxForwardJump)
	ingestor := ingest.NewFSIngestor(proc, logger)

	queue := async.NewProcessorQueue(ingestor, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	paths, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        cfg.Pipeline.InboxDir,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("watching inbox", "dir", cfg.Pipeline.InboxDir, "workers", cfg.Pipeline.Workers)

	for path := range paths {
		_ = queue.Enqueue(ctx, async.Job{
			SenderKey:   ingest.SenderFromPath(cfg.Pipeline.InboxDir, path),
			Path:        path,
			SubmittedAt: time.Now().UTC(),
		})
	}

	logger.Info("shutdown signal received, draining queue")
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(drainCtx)
	return nil
}
