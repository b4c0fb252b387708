package processor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/quotify/rfq-extractor/constants"
	"github.com/quotify/rfq-extractor/internal/common"
	"github.com/quotify/rfq-extractor/internal/deserialize"
)

// DeserializeStage turns a batch of raw files into one labeled text blob.
type DeserializeStage struct {
	Deserializer *deserialize.Deserializer
	Logger       *slog.Logger
}

func NewDeserializeStage(d *deserialize.Deserializer, logger *slog.Logger) *DeserializeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeserializeStage{Deserializer: d, Logger: logger}
}

// Run deserializes every file and concatenates the results with document
// markers. Per-file parse failures are already absorbed into empty-text
// documents; only a batch with no extractable text at all is an error.
func (s *DeserializeStage) Run(ctx context.Context, files []deserialize.SourceFile) ([]deserialize.NormalizedDocument, string, error) {
	if len(files) == 0 {
		return nil, "", common.WrapError(common.ErrEmptyInput, "no input files")
	}

	docs := s.Deserializer.DeserializeAll(ctx, files)

	var b strings.Builder
	nonEmpty := 0
	for i, doc := range docs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(constants.DocumentMarkerPrefix)
		b.WriteString(doc.SourceName)
		b.WriteString(constants.DocumentMarkerSuffix)
		b.WriteString("\n")
		b.WriteString(doc.Text)
		if strings.TrimSpace(doc.Text) != "" {
			nonEmpty++
		}
	}

	s.Logger.Info("pipeline.deserialize.ok",
		"files", len(files),
		"documents", len(docs),
		"non_empty", nonEmpty,
		"chars", b.Len(),
	)

	if nonEmpty == 0 {
		return docs, "", common.WrapError(common.ErrEmptyInput, "no extractable text in batch")
	}
	return docs, b.String(), nil
}
