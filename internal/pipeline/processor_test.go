package processor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotify/rfq-extractor/internal/common"
	"github.com/quotify/rfq-extractor/internal/deserialize"
	"github.com/quotify/rfq-extractor/internal/llm"
)

type fakeExtractor struct {
	requests []llm.ExtractRequest
	results  []llm.RFQFields
	err      error
}

func (f *fakeExtractor) ExtractFields(_ context.Context, req llm.ExtractRequest) (llm.RFQFields, []byte, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.RFQFields{}, nil, f.err
	}
	idx := len(f.requests) - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx], []byte(`{}`), nil
}

func newTestProcessor(ext llm.FieldExtractor, maxChunkTokens int) *Processor {
	des := deserialize.New(deserialize.Config{ArchiveEnabled: true}, nil, nil, nil)
	policy := llm.RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	}
	orch := llm.NewOrchestrator(ext, policy, nil)
	return NewProcessor(nil,
		NewDeserializeStage(des, nil),
		NewExtractStage(orch, maxChunkTokens, nil, "USD", nil),
	)
}

func textFile(name, content string) deserialize.SourceFile {
	return deserialize.SourceFile{Filename: name, Content: []byte(content)}
}

func TestProcessBatchSingleDocument(t *testing.T) {
	ext := &fakeExtractor{results: []llm.RFQFields{{
		Title:             "Stage lighting",
		RequestedProducts: []llm.LineItem{{Name: "LED panel", Quantity: 8}},
	}}}
	p := newTestProcessor(ext, 100000)

	res, err := p.ProcessBatch(context.Background(), []deserialize.SourceFile{
		textFile("rfq.txt", "We need 8 LED panels for the main stage."),
	})
	require.NoError(t, err)
	assert.Equal(t, "Stage lighting", res.Fields.Title)
	assert.Equal(t, 1, res.Chunks)
	require.Len(t, ext.requests, 1)
	assert.Equal(t, 1, ext.requests[0].DocumentCount)
	assert.Contains(t, ext.requests[0].Text, "===== Document: rfq.txt =====")
}

func TestProcessBatchLabelsEachDocument(t *testing.T) {
	ext := &fakeExtractor{results: []llm.RFQFields{{Title: "t", RequestedProducts: []llm.LineItem{}}}}
	p := newTestProcessor(ext, 100000)

	_, err := p.ProcessBatch(context.Background(), []deserialize.SourceFile{
		textFile("scope.txt", "Catering for 120 guests."),
		textFile("contacts.txt", "Contact: Jordan Lee, jordan@example.com"),
	})
	require.NoError(t, err)
	require.Len(t, ext.requests, 1)
	assert.Equal(t, 2, ext.requests[0].DocumentCount)

	text := ext.requests[0].Text
	first := strings.Index(text, "===== Document: scope.txt =====")
	second := strings.Index(text, "===== Document: contacts.txt =====")
	require.GreaterOrEqual(t, first, 0)
	// Input order is preserved in the combined text.
	assert.Greater(t, second, first)
}

func TestProcessBatchNoFiles(t *testing.T) {
	p := newTestProcessor(&fakeExtractor{}, 100000)
	_, err := p.ProcessBatch(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEmptyInput))
}

func TestProcessBatchWhitespaceOnly(t *testing.T) {
	ext := &fakeExtractor{}
	p := newTestProcessor(ext, 100000)

	_, err := p.ProcessBatch(context.Background(), []deserialize.SourceFile{
		textFile("blank.txt", "   \n\n\t  "),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEmptyInput))
	// No network call for an empty batch.
	assert.Empty(t, ext.requests)
}

func TestProcessBatchConsolidatesChunks(t *testing.T) {
	ext := &fakeExtractor{results: []llm.RFQFields{
		{
			Title:             "Conference setup",
			RequestedProducts: []llm.LineItem{{Name: "Chair", Quantity: 200}},
			Confidence:        llm.Confidence{Overall: 0.9},
		},
		{
			RequesterEmail:    "ops@example.com",
			RequestedProducts: []llm.LineItem{{Name: "Projector", Quantity: 2}},
			Confidence:        llm.Confidence{Overall: 0.6},
		},
	}}
	// Tiny token budget to force multiple chunks.
	p := newTestProcessor(ext, 20)

	long := strings.Repeat("We need two hundred chairs for the conference hall. ", 10)
	res, err := p.ProcessBatch(context.Background(), []deserialize.SourceFile{textFile("rfq.txt", long)})
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.Chunks, 2)

	assert.Equal(t, "Conference setup", res.Fields.Title)
	assert.Equal(t, "ops@example.com", res.Fields.RequesterEmail)
	assert.GreaterOrEqual(t, len(res.Fields.RequestedProducts), 2)
	assert.InDelta(t, 0.6, res.Fields.Confidence.Overall, 1e-6)
}

func TestProcessBatchCountsRetries(t *testing.T) {
	transient := llm.NewServiceError(llm.KindTransient, errors.New("503"))
	calls := 0
	ext := &retryingExtractor{failUntil: 2, failWith: transient, calls: &calls}
	p := newTestProcessor(ext, 100000)

	res, err := p.ProcessBatch(context.Background(), []deserialize.SourceFile{
		textFile("rfq.txt", "Need 10 desks delivered by 2026-09-15."),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Retries)
}

func TestProcessBatchQuotaFailureAborts(t *testing.T) {
	ext := &fakeExtractor{err: llm.NewServiceError(llm.KindQuota, errors.New("insufficient_quota"))}
	p := newTestProcessor(ext, 100000)

	_, err := p.ProcessBatch(context.Background(), []deserialize.SourceFile{
		textFile("rfq.txt", "Need chairs."),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQuotaExhausted))
	// Fatal on the first call, no retries burned.
	assert.Len(t, ext.requests, 1)
}

type retryingExtractor struct {
	failUntil int
	failWith  error
	calls     *int
}

func (r *retryingExtractor) ExtractFields(context.Context, llm.ExtractRequest) (llm.RFQFields, []byte, error) {
	*r.calls++
	if *r.calls <= r.failUntil {
		return llm.RFQFields{}, nil, r.failWith
	}
	return llm.RFQFields{Title: "ok", RequestedProducts: []llm.LineItem{}}, []byte(`{}`), nil
}
