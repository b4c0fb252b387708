package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/quotify/rfq-extractor/internal/common"
)

// FailureKind classifies an extraction-call failure for retry decisions.
type FailureKind string

const (
	// KindRateLimit: too many requests; retryable with aggressive backoff.
	KindRateLimit FailureKind = "rate_limit"
	// KindQuota: no remaining credit; fatal, never retried.
	KindQuota FailureKind = "quota_exhausted"
	// KindTransient: timeouts, 5xx, network errors; retryable.
	KindTransient FailureKind = "transient"
	// KindSchema: the response was obtained but garbled or contract-violating;
	// retryable, the next attempt may produce a conformant payload.
	KindSchema FailureKind = "schema"
)

// ServiceError is the single typed failure surfaced by an extraction call.
type ServiceError struct {
	Kind FailureKind
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is lets callers match against the shared error taxonomy with errors.Is.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case common.ErrRateLimited:
		return e.Kind == KindRateLimit
	case common.ErrQuotaExhausted:
		return e.Kind == KindQuota
	case common.ErrTransientService:
		return e.Kind == KindTransient
	case common.ErrSchemaValidation:
		return e.Kind == KindSchema
	}
	return false
}

// Retryable reports whether the failure kind may recover on a later attempt.
func (e *ServiceError) Retryable() bool {
	return e.Kind != KindQuota
}

// NewServiceError wraps err with a failure classification.
func NewServiceError(kind FailureKind, err error) *ServiceError {
	return &ServiceError{Kind: kind, Err: err}
}

// ClassifyHTTPFailure maps a provider HTTP failure to a FailureKind.
// Rate-limit signals are checked before quota signals on purpose: both can
// arrive under status 429, and treating a recoverable rate limit as a fatal
// quota problem would kill calls that only needed to wait.
func ClassifyHTTPFailure(status int, body []byte, err error) *ServiceError {
	lower := strings.ToLower(string(body))

	if status == http.StatusTooManyRequests || strings.Contains(lower, "rate_limit") || strings.Contains(lower, "rate limit") {
		if strings.Contains(lower, "insufficient_quota") || strings.Contains(lower, "billing") || strings.Contains(lower, "exceeded your current quota") {
			return NewServiceError(KindQuota, wrapStatus(status, body, err))
		}
		return NewServiceError(KindRateLimit, wrapStatus(status, body, err))
	}

	if strings.Contains(lower, "insufficient_quota") || strings.Contains(lower, "exceeded your current quota") || status == http.StatusPaymentRequired {
		return NewServiceError(KindQuota, wrapStatus(status, body, err))
	}

	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return NewServiceError(KindTransient, fmt.Errorf("call timed out: %w", err))
		}
	}

	return NewServiceError(KindTransient, wrapStatus(status, body, err))
}

func wrapStatus(status int, body []byte, err error) error {
	if err != nil {
		return err
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "...(truncated)"
	}
	return fmt.Errorf("provider status %d: %s", status, msg)
}
