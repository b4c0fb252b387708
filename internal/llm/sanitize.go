package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/quotify/rfq-extractor/constants"
)

// NormalizeAndSanitizeJSON
// - Drops null/empty optionals
// - Coerces string numerics for money/quantity fields
// - Normalizes currency casing and category labels
// - Removes unknown keys (strict additionalProperties = false friendliness)
// Required fields are never added or removed; a payload missing them still
// fails validation afterwards.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)

	// 1) drop null / "" optionals; coerce numeric strings
	numericFields := []string{"budget_min", "budget_max"}
	for _, k := range numericFields {
		coerceNumber(m, k, &dropped)
	}

	optStrings := []string{
		"requirements", "submission_deadline_date", "submission_deadline_time",
		"decision_date", "delivery_date", "delivery_time", "currency_code",
		"event_location", "delivery_address", "requester_name",
		"requester_email", "requester_phone", "company_name",
	}
	for _, k := range optStrings {
		if v, ok := m[k]; ok {
			s, isStr := v.(string)
			if !isStr || strings.TrimSpace(s) == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
				continue
			}
			m[k] = strings.TrimSpace(s)
		}
	}

	// 2) normalize currency casing
	if v, ok := m["currency_code"].(string); ok {
		m["currency_code"] = strings.ToUpper(v)
	}

	// 3) per-item normalization of requested_products
	if items, ok := m["requested_products"].([]any); ok {
		m["requested_products"] = sanitizeLineItems(items, &dropped)
	}

	// 4) remove unknown keys (everything not in the schema set below)
	allowed := map[string]struct{}{
		"title": {}, "description": {}, "requirements": {},
		"submission_deadline_date": {}, "submission_deadline_time": {},
		"decision_date": {}, "delivery_date": {}, "delivery_time": {},
		"budget_min": {}, "budget_max": {}, "currency_code": {},
		"event_location": {}, "delivery_address": {},
		"requested_products": {}, "evaluation_criteria": {},
		"requester_name": {}, "requester_email": {}, "requester_phone": {},
		"company_name": {}, "metadata": {}, "confidence": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// sanitizeLineItems keeps only object entries, coerces quantity and
// unit_cost to numbers, and canonicalizes the category label. A missing or
// null unit_cost becomes 0, never an invented price.
func sanitizeLineItems(items []any, dropped *[]string) []any {
	out := make([]any, 0, len(items))
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			*dropped = append(*dropped, fmt.Sprintf("requested_products[%d](type)", i))
			continue
		}

		coerceNumber(item, "quantity", dropped)
		coerceNumber(item, "unit_cost", dropped)
		if _, ok := item["unit_cost"]; !ok {
			item["unit_cost"] = 0.0
		}
		if _, ok := item["quantity"]; !ok {
			item["quantity"] = 0.0
		}

		if v, ok := item["category"].(string); ok {
			if canon, known := constants.Canonicalize(v); known {
				item["category"] = string(canon)
			}
		}

		for _, k := range []string{"name", "unit", "specification", "category"} {
			if v, ok := item[k]; ok {
				s, isStr := v.(string)
				if !isStr || strings.TrimSpace(s) == "" {
					delete(item, k)
					continue
				}
				item[k] = strings.TrimSpace(s)
			}
		}

		if _, hasName := item["name"]; !hasName {
			*dropped = append(*dropped, fmt.Sprintf("requested_products[%d](unnamed)", i))
			continue
		}
		out = append(out, item)
	}
	return out
}

// coerceNumber turns string numerics into numbers and drops null or
// unparseable values.
func coerceNumber(m map[string]any, k string, dropped *[]string) {
	v, ok := m[k]
	if !ok {
		return
	}
	switch t := v.(type) {
	case float64:
		// already a number
	case nil:
		delete(m, k)
		*dropped = append(*dropped, k+"(null)")
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		if s == "" {
			delete(m, k)
			*dropped = append(*dropped, k+"(empty)")
			return
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			m[k] = f
		} else {
			delete(m, k)
			*dropped = append(*dropped, k+"(unparseable)")
		}
	default:
		delete(m, k)
		*dropped = append(*dropped, k+"(type)")
	}
}
