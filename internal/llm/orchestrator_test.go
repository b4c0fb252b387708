package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotify/rfq-extractor/internal/common"
)

type scriptedExtractor struct {
	errs   []error
	calls  int
	fields RFQFields
}

func (s *scriptedExtractor) ExtractFields(_ context.Context, _ ExtractRequest) (RFQFields, []byte, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return RFQFields{}, nil, err
		}
	}
	return s.fields, []byte(`{}`), nil
}

func testPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	}
}

func TestExtractEmptyTextShortCircuits(t *testing.T) {
	ext := &scriptedExtractor{}
	o := NewOrchestrator(ext, testPolicy(), nil)

	res, err := o.Extract(context.Background(), ExtractRequest{Text: "   \n\t "})
	require.NoError(t, err)
	assert.Equal(t, 0, ext.calls)
	assert.NotNil(t, res.Fields.RequestedProducts)
	assert.Empty(t, res.Fields.RequestedProducts)
	assert.Equal(t, "", res.Fields.Title)
}

func TestExtractRecoversFromTransientFailures(t *testing.T) {
	ext := &scriptedExtractor{
		errs: []error{
			NewServiceError(KindTransient, errors.New("503")),
			NewServiceError(KindTransient, errors.New("timeout")),
			nil,
		},
		fields: RFQFields{Title: "Catering RFQ", RequestedProducts: []LineItem{{Name: "Lunch box", Quantity: 40}}},
	}
	o := NewOrchestrator(ext, testPolicy(), nil)

	res, err := o.Extract(context.Background(), ExtractRequest{Text: "some document text"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Retries)
	assert.Equal(t, 3, ext.calls)
	assert.Equal(t, "Catering RFQ", res.Fields.Title)
}

func TestExtractQuotaIsFatal(t *testing.T) {
	ext := &scriptedExtractor{
		errs: []error{NewServiceError(KindQuota, errors.New("insufficient_quota"))},
	}
	o := NewOrchestrator(ext, testPolicy(), nil)

	res, err := o.Extract(context.Background(), ExtractRequest{Text: "doc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQuotaExhausted))
	assert.Equal(t, 0, res.Retries)
	assert.Equal(t, 1, ext.calls)
}

func TestExtractRateLimitExhaustionStaysRateLimit(t *testing.T) {
	rl := NewServiceError(KindRateLimit, errors.New("429"))
	ext := &scriptedExtractor{errs: []error{rl, rl, rl, rl}}
	p := testPolicy()
	p.MaxRetries = 2
	o := NewOrchestrator(ext, p, nil)

	res, err := o.Extract(context.Background(), ExtractRequest{Text: "doc"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRateLimited))
	assert.Equal(t, 2, res.Retries)
	assert.Equal(t, 3, ext.calls)
}
