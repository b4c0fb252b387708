// rfq-batch processes a directory of RFQ documents as one batch and writes
// the consolidated result next to it. With -watch it keeps running and
// processes files dropped into the directory afterwards, one batch per file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/quotify/rfq-extractor/internal/async"
	"github.com/quotify/rfq-extractor/internal/common"
	"github.com/quotify/rfq-extractor/internal/deserialize"
	"github.com/quotify/rfq-extractor/internal/export"
	"github.com/quotify/rfq-extractor/internal/ingest"
	processor "github.com/quotify/rfq-extractor/internal/pipeline"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir   = flag.String("dir", "", "directory of RFQ documents to process (required)")
		out   = flag.String("out", "", "output XLSX file path (defaults to <dir>/../rfq.xlsx)")
		watch = flag.Bool("watch", false, "keep watching the directory for new files")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "rfq.xlsx")
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scanner := ingest.NewScanner(logger)
	p := processor.FromConfig(cfg, logger)
	exporter := export.NewService(logger)

	files, stats, err := scanner.ScanDirectory(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"loaded", stats.Loaded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)

	if len(files) > 0 {
		if err := runBatch(ctx, p, exporter, files, *out, logger); err != nil {
			logger.Error("batch failed", "error", err)
			if !*watch {
				os.Exit(1)
			}
		}
	} else if !*watch {
		logger.Error("no matching files", "dir", *dir)
		os.Exit(1)
	}

	if !*watch {
		return
	}

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:    []string{*dir},
		Debounce: 500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}

	queue := async.NewBatchQueue(func(ctx context.Context, job async.Job) error {
		return runBatch(ctx, p, exporter, job.Files, job.OutputPath, logger)
	}, logger, async.WithWorkers(2))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		queue.Shutdown(shutdownCtx)
	}()

	logger.Info("watching for new files", "dir", *dir)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok {
				logger.Error("watch error", "error", err)
			}
		case path, ok := <-events:
			if !ok {
				return
			}
			batch, err := scanner.LoadFiles([]string{path})
			if err != nil {
				logger.Error("failed to read file", "path", path, "error", err)
				continue
			}
			if err := queue.Enqueue(ctx, async.Job{
				BatchID:     uuid.New(),
				Files:       batch,
				OutputPath:  path + ".xlsx",
				SubmittedAt: time.Now(),
			}); err != nil {
				logger.Error("failed to enqueue batch", "path", path, "error", err)
			}
		}
	}
}

func runBatch(ctx context.Context, p *processor.Processor, exporter *export.Service, files []deserialize.SourceFile, out string, logger *slog.Logger) error {
	res, err := p.ProcessBatch(ctx, files)
	if err != nil {
		return err
	}

	workbook, err := exporter.RenderXLSX(res.Fields)
	if err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}
	if err := os.WriteFile(out, workbook, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	payload, err := json.MarshalIndent(res.Fields, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	jsonPath := out[:len(out)-len(filepath.Ext(out))] + ".json"
	if err := os.WriteFile(jsonPath, payload, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	logger.Info("batch complete",
		"batch_id", res.BatchID,
		"documents", len(res.Documents),
		"chunks", res.Chunks,
		"retries", res.Retries,
		"items", len(res.Fields.RequestedProducts),
		"xlsx", out,
		"json", jsonPath,
	)
	return nil
}
