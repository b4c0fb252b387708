// Package consolidate merges per-chunk or per-document extraction results
// into one record. It is agnostic to whether the plurality came from chunking
// one large document or from a multi-file upload.
package consolidate

import (
	"log/slog"
	"reflect"

	"github.com/quotify/rfq-extractor/internal/llm"
)

// Combine merges partial results in processing order:
//   - scalar fields: first non-empty value wins, later values are discarded;
//   - line items: concatenated in order, no deduplication here (duplicate
//     detection belongs to downstream business rules);
//   - confidence: per-dimension minimum, so a low-confidence chunk is never
//     masked by a high-confidence one.
//
// Results with no content at all are skipped so an empty chunk cannot drag
// every confidence score to zero.
func Combine(results []llm.RFQFields, logger *slog.Logger) llm.RFQFields {
	if logger == nil {
		logger = slog.Default()
	}

	out := llm.EmptyFields()
	merged := 0
	for _, r := range results {
		if isEmpty(r) {
			continue
		}
		mergeScalars(&out, r)
		out.RequestedProducts = append(out.RequestedProducts, r.RequestedProducts...)
		out.EvaluationCriteria = appendNew(out.EvaluationCriteria, r.EvaluationCriteria)
		mergeMetadata(&out, r)

		if merged == 0 {
			out.Confidence = r.Confidence
		} else {
			out.Confidence = minConfidence(out.Confidence, r.Confidence)
		}
		merged++
	}

	logger.Info("consolidate.combine",
		"inputs", len(results),
		"merged", merged,
		"items", len(out.RequestedProducts),
		"confidence", out.Confidence.Overall,
	)
	return out
}

func mergeScalars(dst *llm.RFQFields, src llm.RFQFields) {
	takeStr(&dst.Title, src.Title)
	takeStr(&dst.Description, src.Description)
	takeStr(&dst.Requirements, src.Requirements)

	takeStr(&dst.SubmissionDeadlineDate, src.SubmissionDeadlineDate)
	takeStr(&dst.SubmissionDeadlineTime, src.SubmissionDeadlineTime)
	takeStr(&dst.DecisionDate, src.DecisionDate)
	takeStr(&dst.DeliveryDate, src.DeliveryDate)
	takeStr(&dst.DeliveryTime, src.DeliveryTime)

	takeFloat(&dst.BudgetMin, src.BudgetMin)
	takeFloat(&dst.BudgetMax, src.BudgetMax)
	takeStr(&dst.CurrencyCode, src.CurrencyCode)

	takeStr(&dst.EventLocation, src.EventLocation)
	takeStr(&dst.DeliveryAddress, src.DeliveryAddress)

	takeStr(&dst.RequesterName, src.RequesterName)
	takeStr(&dst.RequesterEmail, src.RequesterEmail)
	takeStr(&dst.RequesterPhone, src.RequesterPhone)
	takeStr(&dst.CompanyName, src.CompanyName)
}

func mergeMetadata(dst *llm.RFQFields, src llm.RFQFields) {
	if len(src.Metadata) == 0 {
		return
	}
	if dst.Metadata == nil {
		dst.Metadata = make(map[string]string, len(src.Metadata))
	}
	for k, v := range src.Metadata {
		if _, exists := dst.Metadata[k]; !exists && v != "" {
			dst.Metadata[k] = v
		}
	}
}

func minConfidence(a, b llm.Confidence) llm.Confidence {
	return llm.Confidence{
		Overall:  min(a.Overall, b.Overall),
		Products: min(a.Products, b.Products),
		Dates:    min(a.Dates, b.Dates),
		Contact:  min(a.Contact, b.Contact),
	}
}

func takeStr(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

func takeFloat(dst *float64, src float64) {
	if *dst == 0 && src != 0 {
		*dst = src
	}
}

// appendNew concatenates src onto dst, skipping exact strings already
// present. Evaluation criteria repeat verbatim across chunks of the same
// document, unlike line items.
func appendNew(dst, src []string) []string {
	for _, s := range src {
		seen := false
		for _, existing := range dst {
			if existing == s {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, s)
		}
	}
	return dst
}

// isEmpty reports whether a partial result carries no content in any field
// except confidence. Confidence is excluded on purpose: an empty chunk's
// scores must not drag the batch minimum down. Every content field is
// checked so a result whose only payload is, say, a delivery date or a
// phone number still merges.
func isEmpty(r llm.RFQFields) bool {
	if len(r.RequestedProducts) != 0 || len(r.EvaluationCriteria) != 0 || len(r.Metadata) != 0 {
		return false
	}
	r.Confidence = llm.Confidence{}
	r.RequestedProducts = nil
	r.EvaluationCriteria = nil
	r.Metadata = nil
	return reflect.DeepEqual(r, llm.RFQFields{})
}
