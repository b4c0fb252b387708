package processor

import (
	"context"
	"log/slog"

	"github.com/quotify/rfq-extractor/internal/chunk"
	"github.com/quotify/rfq-extractor/internal/llm"
)

// ExtractStage chunks the labeled batch text and runs one extraction call
// per chunk, strictly in order. Sequential on purpose: the provider rate
// limits per call, and consolidation semantics depend on chunk order.
type ExtractStage struct {
	Orchestrator      *llm.Orchestrator
	MaxChunkTokens    int
	AllowedCategories []string
	DefaultCurrency   string
	Logger            *slog.Logger
}

type ExtractStats struct {
	Chunks  int
	Retries int
}

func NewExtractStage(o *llm.Orchestrator, maxChunkTokens int, allowedCategories []string, defaultCurrency string, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{
		Orchestrator:      o,
		MaxChunkTokens:    maxChunkTokens,
		AllowedCategories: allowedCategories,
		DefaultCurrency:   defaultCurrency,
		Logger:            logger,
	}
}

// Run returns per-chunk results in chunk order. A terminal extraction
// failure on any chunk fails the batch; partial results are not worth
// persisting when a later chunk may hold the line items.
func (s *ExtractStage) Run(ctx context.Context, text string, documentCount int) ([]llm.RFQFields, ExtractStats, error) {
	chunks := chunk.Chunk(text, s.MaxChunkTokens)
	stats := ExtractStats{Chunks: len(chunks)}

	results := make([]llm.RFQFields, 0, len(chunks))
	for _, c := range chunks {
		res, err := s.Orchestrator.Extract(ctx, llm.ExtractRequest{
			Text:              c.Text,
			DocumentCount:     documentCount,
			AllowedCategories: s.AllowedCategories,
			DefaultCurrency:   s.DefaultCurrency,
		})
		stats.Retries += res.Retries
		if err != nil {
			s.Logger.Error("pipeline.extract.chunk_failed",
				"chunk", c.Index, "chunks", len(chunks), "retries", res.Retries, "error", err)
			return nil, stats, err
		}
		results = append(results, res.Fields)
	}

	s.Logger.Info("pipeline.extract.ok", "chunks", len(chunks), "retries", stats.Retries)
	return results, stats, nil
}
