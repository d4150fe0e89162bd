// woreconcile is the operator CLI: one-shot document processing, batch
// directory ingestion, review-queue export and profile validation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/troyfry/workorder-reconciler/internal/common"
	"github.com/troyfry/workorder-reconciler/internal/dedupe"
	"github.com/troyfry/workorder-reconciler/internal/export"
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "woreconcile",
		Short:         "Signed work-order trust and reconciliation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(processCmd(logger), batchCmd(logger), exportCmd(logger), profilesCmd(logger))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds the wired pipeline for commands that need the full stack.
type app struct {
	pool     poolCloser
	ingestor *ingest.FSIngestor
	reviews  repository.ReviewRepository
	logger   *slog.Logger
}

type poolCloser interface{ Close() }

func buildApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

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
		return nil, err
	}

	jobs := repository.NewJobRepository(pool, logger)
	docs := repository.NewSignedDocumentRepository(pool, logger)
	reviews := repository.NewReviewRepository(pool, logger)
	dedup := repository.NewDedupRepository(pool, logger)

	senderProfiles, err := profiles.Load(cfg.Profiles.Path, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	files := storage.NewDiskStore(cfg.Storage.Root, logger)
	ocr := ocrclient.NewHTTPClient(cfg.OCR.BaseURL, cfg.OCR.Timeout, logger)
	orch := orchestrate.New(ocr, logger).
		WithDPI(cfg.OCR.DPI).
		WithRetryConfidence(cfg.OCR.RetryConfidence)
	router := reconcile.NewRouter(jobs, reviews, docs, files, logger)
	guard := dedupe.NewGuard(dedup, logger)

	proc := pipeline.NewProcessor(guard, senderProfiles, orch, router, jobs, logger).
		WithMaxForwardJump(cfg.Pipeline.MaxForwardJump)

	return &app{
		pool:     pool,
		ingestor: ingest.NewFSIngestor(proc, logger),
		reviews:  reviews,
		logger:   logger,
	}, nil
}

func processCmd(logger *slog.Logger) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "process <file.pdf>",
		Short: "Process a single signed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool.Close()

			res, err := a.ingestor.ProcessPath(cmd.Context(), sender, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("status:      %s\n", res.Status)
			fmt.Printf("file hash:   %s\n", res.FileHash)
			if res.FoundIn != "" {
				fmt.Printf("found in:    %s\n", res.FoundIn)
				return nil
			}
			fmt.Printf("trust score: %d\n", res.Decision.TrustScore)
			if res.Decision.BestCandidate != "" {
				fmt.Printf("work order:  %s\n", res.Decision.BestCandidate)
			}
			if res.Outcome.Reason != "" {
				fmt.Printf("reason:      %s\n", res.Outcome.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "sender key for template lookup (required)")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func batchCmd(logger *slog.Logger) *cobra.Command {
	var sender string
	var skipHidden bool
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Process every document under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool.Close()

			results, stats, err := a.ingestor.IngestDirectory(cmd.Context(), sender, args[0], skipHidden)
			if err != nil {
				return err
			}
			for _, r := range results {
				line := fmt.Sprintf("%-18s %s", r.Status, r.SourcePath)
				if r.Err != "" {
					line = fmt.Sprintf("%-18s %s (%s)", "FAILED", r.SourcePath, r.Err)
				}
				fmt.Println(line)
			}
			fmt.Printf("\nscanned=%d matched=%d confirmed=%d review=%d duplicate=%d failed=%d\n",
				stats.Scanned, stats.Matched, stats.Confirmed, stats.NeedsReview, stats.AlreadyProcessed, stats.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "sender key for template lookup (required)")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip hidden files and directories")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}

func exportCmd(logger *slog.Logger) *cobra.Command {
	var out string
	var limit int
	cmd := &cobra.Command{
		Use:   "export-review",
		Short: "Export the needs-review queue to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.pool.Close()

			data, err := export.NewService(a.reviews, logger).ReviewQueueXLSX(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", fmt.Sprintf("review-%s.xlsx", time.Now().Format("2006-01-02")), "output file path")
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum rows to export")
	return cmd
}

func profilesCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Sender profile utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <profiles.json>",
		Short: "Validate a sender-profile config file against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			svc, err := profiles.Load(args[0], logger)
			if err != nil {
				return err
			}
			fmt.Printf("ok: %d sender profile(s)\n", len(svc.Keys()))
			for _, k := range svc.Keys() {
				fmt.Println(" -", k)
			}
			return nil
		},
	})
	return cmd
}
