package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quotify/rfq-extractor/internal/common"
)

func TestClassifyRateLimit(t *testing.T) {
	e := ClassifyHTTPFailure(http.StatusTooManyRequests, []byte(`{"error":{"type":"rate_limit_exceeded"}}`), nil)
	assert.Equal(t, KindRateLimit, e.Kind)
	assert.True(t, e.Retryable())
	assert.True(t, errors.Is(e, common.ErrRateLimited))
}

// A 429 whose body names quota exhaustion is a billing problem, not a
// pacing problem.
func TestClassify429WithQuotaBodyIsQuota(t *testing.T) {
	e := ClassifyHTTPFailure(http.StatusTooManyRequests,
		[]byte(`{"error":{"type":"insufficient_quota","message":"You exceeded your current quota"}}`), nil)
	assert.Equal(t, KindQuota, e.Kind)
	assert.False(t, e.Retryable())
	assert.True(t, errors.Is(e, common.ErrQuotaExhausted))
}

func TestClassifyQuotaWithoutRateLimitMarkers(t *testing.T) {
	e := ClassifyHTTPFailure(http.StatusForbidden, []byte(`{"error":{"type":"insufficient_quota"}}`), nil)
	assert.Equal(t, KindQuota, e.Kind)
}

func TestClassifyServerErrorIsTransient(t *testing.T) {
	e := ClassifyHTTPFailure(http.StatusBadGateway, []byte("upstream unavailable"), nil)
	assert.Equal(t, KindTransient, e.Kind)
	assert.True(t, errors.Is(e, common.ErrTransientService))
}

func TestClassifyDeadlineIsTransient(t *testing.T) {
	e := ClassifyHTTPFailure(0, nil, context.DeadlineExceeded)
	assert.Equal(t, KindTransient, e.Kind)
}

func TestServiceErrorTruncatesLongBodies(t *testing.T) {
	body := make([]byte, 2048)
	for i := range body {
		body[i] = 'x'
	}
	e := ClassifyHTTPFailure(http.StatusInternalServerError, body, nil)
	assert.Less(t, len(e.Error()), 700)
}
