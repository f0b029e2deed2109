package ingestion

import (
	"context"
	"time"
)

const (
	backoffFloor   = 5 * time.Second
	backoffCeiling = 60 * time.Second
)

// Backoff computes the retry delay for a job whose attemptCount is n:
// clamp(2^n * 1s, 5s, 60s).
func Backoff(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	// Cap the exponent so 1<<n never overflows before the ceiling clamp kicks in.
	if n > 20 {
		return backoffCeiling
	}
	d := time.Duration(1<<uint(n)) * time.Second
	if d < backoffFloor {
		return backoffFloor
	}
	if d > backoffCeiling {
		return backoffCeiling
	}
	return d
}

// Queue exposes the six operations the Worker and Processor use to drive
// jobs through their state machine. It is a thin façade over Store —
// kept as a separate type so the state-machine vocabulary (claim, fail with
// retry) stays distinct from raw persistence.
type Queue struct {
	store *Store
}

// NewQueue wraps a Store.
func NewQueue(store *Store) *Queue {
	return &Queue{store: store}
}

// ClaimNext atomically claims the oldest eligible queued job, or returns
// nil, nil if none is claimable right now.
func (q *Queue) ClaimNext(ctx context.Context) (*IngestionJob, error) {
	return q.store.ClaimNext(ctx)
}

// GetJob fetches a single job by id, or nil if it does not exist.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*IngestionJob, error) {
	return q.store.GetJob(ctx, jobID)
}

// GetDocumentsForJob returns a job's documents in stable creation order.
func (q *Queue) GetDocumentsForJob(ctx context.Context, jobID string) ([]UploadedDocument, error) {
	return q.store.GetDocumentsForJob(ctx, jobID)
}

// SetJobStatus unconditionally writes a job's status.
func (q *Queue) SetJobStatus(ctx context.Context, jobID string, status JobStatus, errMsg *string) error {
	return q.store.SetJobStatus(ctx, jobID, status, errMsg)
}

// SetDocumentStructuredStatus unconditionally writes a document's status.
func (q *Queue) SetDocumentStructuredStatus(ctx context.Context, documentID string, status DocumentStatus, errMsg *string) error {
	return q.store.SetDocumentStructuredStatus(ctx, documentID, status, errMsg)
}

// FailWithRetry reschedules the job with backoff, or terminates it if
// attempts are exhausted.
func (q *Queue) FailWithRetry(ctx context.Context, jobID string, errorMessage string) error {
	return q.store.FailWithRetry(ctx, jobID, errorMessage)
}
