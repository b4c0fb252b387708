// rfqextract runs one extraction batch: the files given on the command line
// are treated as supporting documents of a single request for quote. The
// consolidated result is printed as JSON and can optionally be written as an
// XLSX workbook or saved to Postgres.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/quotify/rfq-extractor/internal/common"
	"github.com/quotify/rfq-extractor/internal/export"
	"github.com/quotify/rfq-extractor/internal/ingest"
	processor "github.com/quotify/rfq-extractor/internal/pipeline"
	"github.com/quotify/rfq-extractor/internal/repository"
)

func main() {
	var (
		out      = flag.String("out", "", "write result JSON to this path (default: stdout)")
		xlsxPath = flag.String("xlsx", "", "also write an XLSX workbook to this path")
		save     = flag.Bool("save", false, "persist the result to Postgres (requires DB_URL)")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: rfqextract [flags] file...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := common.NewLogger()
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files, err := ingest.NewScanner(logger).LoadFiles(flag.Args())
	if err != nil {
		logger.Error("failed to read input files", "error", err)
		os.Exit(1)
	}

	p := processor.FromConfig(cfg, logger)
	res, err := p.ProcessBatch(ctx, files)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}

	payload, err := json.MarshalIndent(res.Fields, "", "  ")
	if err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
	if *out == "" {
		fmt.Println(string(payload))
	} else if err := os.WriteFile(*out, payload, 0o644); err != nil {
		logger.Error("failed to write result", "path", *out, "error", err)
		os.Exit(1)
	}

	if *xlsxPath != "" {
		workbook, err := export.NewService(logger).RenderXLSX(res.Fields)
		if err != nil {
			logger.Error("failed to render workbook", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxPath, workbook, 0o644); err != nil {
			logger.Error("failed to write workbook", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		logger.Info("workbook written", "path", *xlsxPath)
	}

	if *save {
		if err := persist(ctx, cfg, res, logger); err != nil {
			logger.Error("failed to save result", "error", err)
			os.Exit(1)
		}
	}
}

func persist(ctx context.Context, cfg *common.Config, res processor.BatchResult, logger *slog.Logger) error {
	pool, err := repository.Open(ctx, repository.Config(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer repository.Close(pool, logger)

	docs := make([]repository.DocumentRecord, 0, len(res.Documents))
	for _, d := range res.Documents {
		docs = append(docs, repository.DocumentRecord{
			SourceName: d.SourceName,
			Format:     string(d.Format),
			CharCount:  d.CharCount,
			WordCount:  d.WordCount,
			ParseError: d.Meta.Error,
		})
	}

	id, err := repository.NewExtractionRepository(pool, logger).Save(ctx, repository.ExtractionRecord{
		BatchID:       res.BatchID,
		Title:         res.Fields.Title,
		Fields:        res.Fields,
		DocumentCount: len(res.Documents),
		ChunkCount:    res.Chunks,
		Retries:       res.Retries,
	}, docs)
	if err != nil {
		return err
	}
	logger.Info("result saved", "extraction_id", id, "batch_id", res.BatchID)
	return nil
}
