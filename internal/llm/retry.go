package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RetryPolicy drives failure-classified retries at the orchestrator
// boundary. Backoff differs by failure kind: rate limits need to wait out a
// window, so they back off much harder than ordinary transient failures.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration

	// Sleep is injectable for tests; the default waits with context support.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

func DefaultRetryPolicy(logger *slog.Logger) RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Logger:     logger,
	}
}

// Backoff returns the wait before retry number attempt (0-based) for a
// failure kind.
func (p RetryPolicy) Backoff(kind FailureKind, attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	switch kind {
	case KindRateLimit:
		// base × 3^attempt
		return time.Duration(float64(base) * math.Pow(3, float64(attempt)))
	default:
		// 2^attempt + 1s
		return time.Duration(float64(base)*math.Pow(2, float64(attempt))) + base
	}
}

// Do runs op until it succeeds, fails terminally, or the retry budget is
// exhausted. It returns the number of retries performed (successful first
// attempt = 0) and the final error, which is always a *ServiceError on
// failure.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, NewServiceError(KindTransient, err)
		}

		err := op(ctx)
		if err == nil {
			return attempt, nil
		}

		var svcErr *ServiceError
		if !errors.As(err, &svcErr) {
			svcErr = NewServiceError(KindTransient, err)
		}

		if !svcErr.Retryable() {
			logger.Error("llm.retry.fatal", "kind", svcErr.Kind, "attempt", attempt, "error", svcErr.Err)
			return attempt, svcErr
		}
		if attempt >= p.MaxRetries {
			logger.Error("llm.retry.budget_exhausted",
				"kind", svcErr.Kind, "retries", attempt, "error", svcErr.Err)
			return attempt, NewServiceError(svcErr.Kind,
				fmt.Errorf("retry budget exhausted after %d attempts: %w", attempt+1, svcErr.Err))
		}

		delay := p.Backoff(svcErr.Kind, attempt)
		logger.Warn("llm.retry.backoff",
			"kind", svcErr.Kind, "attempt", attempt+1, "max_retries", p.MaxRetries,
			"delay_ms", delay.Milliseconds(), "error", svcErr.Err)

		if err := sleep(ctx, delay); err != nil {
			return attempt, NewServiceError(KindTransient, err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
