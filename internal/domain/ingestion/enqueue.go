package ingestion

import "context"

// Enqueue is the sole write entry from upload: it creates one
// job plus one document row per input in a single atomic action and returns
// the new job's id.
type Enqueue struct {
	store *Store
}

// NewEnqueue wraps a Store.
func NewEnqueue(store *Store) *Enqueue {
	return &Enqueue{store: store}
}

// Call inserts the job and its documents. Callers must supply a fresh
// uploadSessionID per attempt — the operation is not itself idempotent.
func (e *Enqueue) Call(ctx context.Context, userID, uploadSessionID string, documents []InputDocument) (string, error) {
	return e.store.EnqueueJob(ctx, userID, uploadSessionID, documents)
}
