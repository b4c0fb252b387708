// Package processor coordinates the extraction pipeline: deserialize all
// source files, chunk the combined text, extract per chunk, consolidate.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quotify/rfq-extractor/internal/common"
	"github.com/quotify/rfq-extractor/internal/consolidate"
	"github.com/quotify/rfq-extractor/internal/deserialize"
	"github.com/quotify/rfq-extractor/internal/llm"
)

// BatchResult is the terminal artifact of one pipeline run.
type BatchResult struct {
	BatchID   uuid.UUID
	Fields    llm.RFQFields
	Documents []deserialize.NormalizedDocument
	Chunks    int
	Retries   int
	Elapsed   time.Duration
}

// Processor runs the two stages in order and consolidates the output.
type Processor struct {
	Logger      *slog.Logger
	Deserialize *DeserializeStage
	Extract     *ExtractStage
}

func NewProcessor(logger *slog.Logger, des *DeserializeStage, ext *ExtractStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Deserialize: des, Extract: ext}
}

// ProcessBatch extracts one consolidated record from a batch of files.
// The batch describes ONE request for quote; multiple files are treated as
// supporting documents of the same request.
func (p *Processor) ProcessBatch(ctx context.Context, files []deserialize.SourceFile) (BatchResult, error) {
	batchID := uuid.New()
	ctx = common.WithBatchID(ctx, batchID.String())
	start := time.Now()

	p.Logger.Info("processor.batch.start", "batch_id", batchID, "files", len(files))

	docs, text, err := p.Deserialize.Run(ctx, files)
	if err != nil {
		p.Logger.Error("processor.deserialize.failed", "batch_id", batchID, "error", err)
		return BatchResult{BatchID: batchID, Documents: docs}, err
	}

	results, stats, err := p.Extract.Run(ctx, text, len(docs))
	if err != nil {
		p.Logger.Error("processor.extract.failed",
			"batch_id", batchID, "chunks", stats.Chunks, "retries", stats.Retries, "error", err)
		return BatchResult{
			BatchID:   batchID,
			Documents: docs,
			Chunks:    stats.Chunks,
			Retries:   stats.Retries,
			Elapsed:   time.Since(start),
		}, err
	}

	fields := consolidate.Combine(results, p.Logger)

	out := BatchResult{
		BatchID:   batchID,
		Fields:    fields,
		Documents: docs,
		Chunks:    stats.Chunks,
		Retries:   stats.Retries,
		Elapsed:   time.Since(start),
	}
	p.Logger.Info("processor.batch.ok",
		"batch_id", batchID,
		"documents", len(docs),
		"chunks", stats.Chunks,
		"retries", stats.Retries,
		"items", len(fields.RequestedProducts),
		"elapsed_ms", out.Elapsed.Milliseconds(),
	)
	return out, nil
}
