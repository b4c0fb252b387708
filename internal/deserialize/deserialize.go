// Package deserialize converts raw source files of a detected format into
// normalized plain text. One strategy per format; a parse failure for one
// file is absorbed into an empty document carrying an error marker so the
// rest of the batch proceeds.
package deserialize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quotify/rfq-extractor/constants"
	"github.com/quotify/rfq-extractor/internal/ocr"
	"github.com/quotify/rfq-extractor/internal/sniff"
)

// SourceFile is an ephemeral input blob. Depth tracks archive nesting.
type SourceFile struct {
	Filename string
	MIMEHint string
	Content  []byte
	Depth    int
}

// Meta carries extraction metadata for one normalized document.
type Meta struct {
	Pages       int
	Sheets      int
	Paragraphs  int
	Method      string
	Error       string
	Warnings    []string
	ExtractedAt time.Time
}

// NormalizedDocument is the immutable text form of one source file.
type NormalizedDocument struct {
	SourceName string
	Format     constants.Format
	Text       string
	CharCount  int
	WordCount  int
	Meta       Meta
}

// Config holds deserializer behavior flags.
type Config struct {
	OCREnabled     bool
	ArchiveEnabled bool
}

// Deserializer turns source files into normalized documents.
type Deserializer struct {
	cfg     Config
	sniffer *sniff.Sniffer
	ocr     ocr.Engine
	logger  *slog.Logger
}

func New(cfg Config, sniffer *sniff.Sniffer, engine ocr.Engine, logger *slog.Logger) *Deserializer {
	if logger == nil {
		logger = slog.Default()
	}
	if sniffer == nil {
		sniffer = sniff.New()
	}
	if engine == nil {
		engine = ocr.Disabled{}
	}
	return &Deserializer{cfg: cfg, sniffer: sniffer, ocr: engine, logger: logger}
}

// DeserializeAll processes a batch of source files, expanding archives via
// an explicit worklist, and returns one document per leaf file in input
// order. Archive members are ordered as they appear in the archive.
func (d *Deserializer) DeserializeAll(ctx context.Context, files []SourceFile) []NormalizedDocument {
	var docs []NormalizedDocument

	work := make([]SourceFile, len(files))
	copy(work, files)

	for len(work) > 0 {
		src := work[0]
		work = work[1:]

		format := d.sniffer.Detect(src.Content, src.Filename)
		if format == constants.ZIP && d.cfg.ArchiveEnabled {
			if src.Depth >= constants.MaxArchiveDepth {
				d.logger.Warn("deserialize.archive.too_deep",
					"file", src.Filename, "depth", src.Depth)
				docs = append(docs, errorDocument(src, constants.ZIP, "archive nesting exceeds depth limit"))
				continue
			}
			members, err := expandZip(src, d.logger)
			if err != nil {
				d.logger.Warn("deserialize.archive.corrupt", "file", src.Filename, "error", err)
				docs = append(docs, errorDocument(src, constants.ZIP, "corrupt archive: "+err.Error()))
				continue
			}
			// members keep batch ordering: they are processed before the
			// remaining worklist entries
			work = append(members, work...)
			continue
		}

		docs = append(docs, d.Deserialize(ctx, src, format))
	}

	return docs
}

// Deserialize converts one source file of a known format into a document.
func (d *Deserializer) Deserialize(ctx context.Context, src SourceFile, format constants.Format) NormalizedDocument {
	start := time.Now()

	text, meta := d.extract(ctx, src, format)
	text = Clean(text)

	doc := NormalizedDocument{
		SourceName: src.Filename,
		Format:     format,
		Text:       text,
		CharCount:  len(text),
		WordCount:  len(strings.Fields(text)),
		Meta:       meta,
	}
	doc.Meta.ExtractedAt = time.Now().UTC()

	if doc.Meta.Error != "" {
		d.logger.Warn("deserialize.file.failed",
			"file", src.Filename, "format", format, "error", doc.Meta.Error,
			"elapsed_ms", time.Since(start).Milliseconds())
	} else {
		d.logger.Info("deserialize.file.ok",
			"file", src.Filename, "format", format, "method", doc.Meta.Method,
			"chars", doc.CharCount, "words", doc.WordCount,
			"elapsed_ms", time.Since(start).Milliseconds())
	}
	return doc
}

func (d *Deserializer) extract(ctx context.Context, src SourceFile, format constants.Format) (string, Meta) {
	switch format {
	case constants.PDF:
		text, pages, err := extractPDF(src.Content)
		if err != nil {
			return "", Meta{Method: "pdf-text", Error: err.Error()}
		}
		if nonWhitespaceLen(text) < constants.MinTextLength {
			return d.ocrFallback(ctx, src, "pdf-ocr", text, Meta{Pages: pages, Method: "pdf-text"})
		}
		return text, Meta{Pages: pages, Method: "pdf-text"}

	case constants.DOCX:
		text, paragraphs, err := extractDocx(src.Content)
		if err != nil {
			return "", Meta{Method: "docx", Error: err.Error()}
		}
		if nonWhitespaceLen(text) < constants.MinTextLength {
			return d.ocrFallback(ctx, src, "docx-ocr", text, Meta{Paragraphs: paragraphs, Method: "docx"})
		}
		return text, Meta{Paragraphs: paragraphs, Method: "docx"}

	case constants.XLSX:
		text, sheets, err := extractWorkbook(src.Content)
		if err != nil {
			return "", Meta{Method: "xlsx", Error: err.Error()}
		}
		return text, Meta{Sheets: sheets, Method: "xlsx"}

	case constants.CSV:
		text, err := extractCSV(src.Content)
		if err != nil {
			return "", Meta{Method: "csv", Error: err.Error()}
		}
		return text, Meta{Sheets: 1, Method: "csv"}

	case constants.IMAGE:
		if !d.cfg.OCREnabled {
			return "", Meta{Method: "image-ocr", Warnings: []string{"ocr disabled"}}
		}
		text, err := d.ocr.Recognize(ctx, src.Content, src.Filename)
		if err != nil {
			return "", Meta{Method: "image-ocr", Error: err.Error()}
		}
		return text, Meta{Pages: 1, Method: "image-ocr"}

	case constants.ZIP:
		// reached only when archive expansion is disabled
		return "", Meta{Method: "zip", Warnings: []string{"archive expansion disabled"}}

	case constants.TEXT, constants.UNKNOWN:
		text, encoding := decodeText(src.Content)
		return text, Meta{Method: "text-" + encoding}

	default:
		return "", Meta{Error: fmt.Sprintf("no strategy for format %s", format)}
	}
}

// ocrFallback runs the OCR engine when primary extraction came back near
// empty, keeping whichever text is longer.
func (d *Deserializer) ocrFallback(ctx context.Context, src SourceFile, method, primary string, meta Meta) (string, Meta) {
	if !d.cfg.OCREnabled {
		meta.Warnings = append(meta.Warnings, "near-empty text, ocr disabled")
		return primary, meta
	}

	d.logger.Info("deserialize.ocr_fallback",
		"file", src.Filename, "primary_chars", nonWhitespaceLen(primary))

	recognized, err := d.ocr.Recognize(ctx, src.Content, src.Filename)
	if err != nil {
		meta.Warnings = append(meta.Warnings, "ocr fallback failed: "+err.Error())
		return primary, meta
	}
	if nonWhitespaceLen(recognized) > nonWhitespaceLen(primary) {
		meta.Method = method
		return recognized, meta
	}
	return primary, meta
}

func errorDocument(src SourceFile, format constants.Format, msg string) NormalizedDocument {
	return NormalizedDocument{
		SourceName: src.Filename,
		Format:     format,
		Meta:       Meta{Error: msg, ExtractedAt: time.Now().UTC()},
	}
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !strings.ContainsRune(" \t\n\r\f\v", r) {
			n++
		}
	}
	return n
}
