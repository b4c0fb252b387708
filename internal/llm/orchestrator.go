package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExtractResult carries the structured fields plus per-call metrics the
// pipeline aggregates for batch reporting.
type ExtractResult struct {
	Fields  RFQFields
	RawJSON []byte
	Retries int
	Elapsed time.Duration
}

// Orchestrator wraps a FieldExtractor with failure-classified retries and
// request-scoped logging. Extraction of an empty chunk short-circuits to an
// empty result instead of burning an API call.
type Orchestrator struct {
	extractor FieldExtractor
	policy    RetryPolicy
	logger    *slog.Logger
}

func NewOrchestrator(extractor FieldExtractor, policy RetryPolicy, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &Orchestrator{extractor: extractor, policy: policy, logger: logger}
}

// Extract runs one extraction call with retries. Rate limits back off
// aggressively, quota exhaustion fails immediately, and other transient
// failures retry with standard exponential backoff.
func (o *Orchestrator) Extract(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	reqID := uuid.New().String()
	start := time.Now()

	if strings.TrimSpace(req.Text) == "" {
		o.logger.Warn("llm.extract.empty_input", "req_id", reqID)
		return ExtractResult{Fields: EmptyFields()}, nil
	}

	var (
		fields RFQFields
		raw    []byte
	)
	retries, err := o.policy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		fields, raw, opErr = o.extractor.ExtractFields(ctx, req)
		return opErr
	})

	elapsed := time.Since(start)
	if err != nil {
		o.logger.Error("llm.extract.failed",
			"req_id", reqID,
			"retries", retries,
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return ExtractResult{Retries: retries, Elapsed: elapsed}, err
	}

	o.logger.Info("llm.extract.ok",
		"req_id", reqID,
		"retries", retries,
		"items", len(fields.RequestedProducts),
		"confidence", fields.Confidence.Overall,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return ExtractResult{Fields: fields, RawJSON: raw, Retries: retries, Elapsed: elapsed}, nil
}
