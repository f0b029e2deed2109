package ingestion

import "context"

// Status implements the read boundary used to poll a job's progress.
type Status struct {
	store *Store
}

// NewStatus wraps a Store.
func NewStatus(store *Store) *Status {
	return &Status{store: store}
}

// Call returns the job and its documents, scoped to userID. Returns
// nil, nil if no matching job exists (including jobs owned by another user).
func (s *Status) Call(ctx context.Context, jobID, userID string) (*JobWithDocuments, error) {
	return s.store.GetJobWithDocuments(ctx, jobID, userID)
}
