package driving

import (
	"context"
	"io"
	"time"

	"github.com/seismo-labs/jane/internal/core/domain"
)

// QueryFunc is one unit of asynchronous work. It writes its result to
// the provided writer and reports the outcome.
type QueryFunc func(ctx context.Context, w io.Writer) (*domain.QueryReport, error)

// JobRunner executes queries asynchronously against a bounded worker
// pool.
type JobRunner interface {
	// Submit enqueues a job and returns its handle immediately.
	Submit(ctx context.Context, kind string, fn QueryFunc) (domain.JobHandle, error)

	// Poll waits up to timeout for the job to finish. Returns the job in
	// its terminal state, or domain.ErrStillProcessing when the timeout
	// elapses first. A timed-out poll never cancels the job; the handle
	// can be polled again.
	Poll(ctx context.Context, handle domain.JobHandle, timeout time.Duration) (*domain.Job, error)

	// Get returns the job's current state without waiting.
	Get(ctx context.Context, handle domain.JobHandle) (*domain.Job, error)
}
