package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quotify/rfq-extractor/internal/llm"
)

// ExtractFields implements llm.FieldExtractor using text-only chat/completions.
// Transport and provider failures come back classified so the retry layer can
// tell a rate limit from an exhausted quota.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.RFQFields, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"document_count", req.DocumentCount,
		"allowed_categories", len(req.AllowedCategories),
		"default_currency", req.DefaultCurrency,
	)

	schema := llm.BuildRFQJSONSchema(req.AllowedCategories)
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, httpErr := llm.SendJSON(ctx, c.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.logger)
	if httpErr != nil {
		// SendJSON already classifies transport and non-2xx failures.
		var svcErr *llm.ServiceError
		if !errors.As(httpErr, &svcErr) {
			svcErr = llm.NewServiceError(llm.KindTransient, httpErr)
		}
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "kind", svcErr.Kind, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RFQFields{}, nil, svcErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RFQFields{}, raw, llm.NewServiceError(llm.KindSchema, fmt.Errorf("decode openai response: %w", err))
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RFQFields{}, raw, llm.NewServiceError(llm.KindSchema, fmt.Errorf("no choices in openai response"))
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	rawContent := []byte(content)

	// Validate strictly first.
	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		if !c.cfg.LenientOptional {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", err, "content", string(rawContent),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.RFQFields{}, rawContent, llm.NewServiceError(llm.KindSchema, fmt.Errorf("schema validation failed: %w", err))
		}

		// Lenient path: drop/normalize optional offenders and re-validate.
		cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(rawContent, c.logger)
		if sErr != nil {
			c.logger.Error("llm.extract.sanitize_failed",
				"req_id", rid, "error", sErr,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.RFQFields{}, rawContent, llm.NewServiceError(llm.KindSchema, fmt.Errorf("sanitize failed: %w", sErr))
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.logger.Error("llm.extract.schema_validation_failed",
				"req_id", rid, "error", vErr, "content", string(cleaned),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return llm.RFQFields{}, rawContent, llm.NewServiceError(llm.KindSchema, fmt.Errorf("schema validation failed: %w", vErr))
		}
		c.logger.Warn("llm.extract.lenient_sanitize_applied",
			"req_id", rid, "dropped", dropped,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		rawContent = cleaned
	}

	var out llm.RFQFields
	if err := json.Unmarshal(rawContent, &out); err != nil {
		c.logger.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.RFQFields{}, rawContent, llm.NewServiceError(llm.KindSchema, fmt.Errorf("unmarshal fields: %w", err))
	}
	if out.RequestedProducts == nil {
		out.RequestedProducts = []llm.LineItem{}
	}

	c.logger.Info("llm.extract.response",
		"req_id", rid,
		"title", out.Title,
		"items", len(out.RequestedProducts),
		"currency", out.CurrencyCode,
		"confidence", out.Confidence.Overall,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, rawContent, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
