// Package async runs extraction batches on a bounded worker pool. Each batch
// is independent, so batches may run concurrently; ordering inside a batch is
// the pipeline's concern, not the queue's.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quotify/rfq-extractor/internal/deserialize"
)

// ErrQueueClosed is returned by Enqueue once shutdown has begun; the job was
// not accepted and will not run.
var ErrQueueClosed = errors.New("queue is shut down")

// Job is one extraction batch plus where its output should go.
type Job struct {
	BatchID     uuid.UUID
	Files       []deserialize.SourceFile
	OutputPath  string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
