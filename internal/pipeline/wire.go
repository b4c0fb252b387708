package processor

import (
	"log/slog"

	"github.com/quotify/rfq-extractor/constants"
	"github.com/quotify/rfq-extractor/internal/common"
	"github.com/quotify/rfq-extractor/internal/deserialize"
	"github.com/quotify/rfq-extractor/internal/llm"
	"github.com/quotify/rfq-extractor/internal/llm/openai"
	"github.com/quotify/rfq-extractor/internal/ocr"
	"github.com/quotify/rfq-extractor/internal/sniff"
)

// FromConfig wires a complete processor from environment configuration.
func FromConfig(cfg *common.Config, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}

	var engine ocr.Engine = ocr.Disabled{}
	if cfg.Pipeline.OCREnabled {
		engine = ocr.NewTesseractEngine(ocr.Config{
			Tesseract:     cfg.OCR.Tesseract,
			TesseractLang: cfg.OCR.TesseractLang,
			TessdataDir:   cfg.OCR.TessdataDir,
		}, logger)
	}

	des := deserialize.New(deserialize.Config{
		OCREnabled:     cfg.Pipeline.OCREnabled,
		ArchiveEnabled: cfg.Pipeline.ArchiveEnabled,
	}, sniff.New(), engine, logger)

	client := openai.NewClient(openai.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		Timeout:         cfg.LLM.Timeout,
		LenientOptional: true,
	}, logger)

	policy := llm.DefaultRetryPolicy(logger)
	if cfg.LLM.MaxRetries > 0 {
		policy.MaxRetries = cfg.LLM.MaxRetries
	}
	orch := llm.NewOrchestrator(client, policy, logger)

	return NewProcessor(logger,
		NewDeserializeStage(des, logger),
		NewExtractStage(orch, cfg.Pipeline.MaxChunkTokens, constants.AsStringSlice(), cfg.Pipeline.DefaultCurrency, logger),
	)
}
