// Package ingestion implements the asynchronous document-ingestion
// pipeline: a durable job queue with single-claim semantics, a processor
// that drives each job through a structuring stage and an embedding stage,
// and the four-entity data model that links jobs to documents, chunks, and
// vectors.
package ingestion

import "time"

// JobStatus is the lifecycle state of an IngestionJob.
type JobStatus string

const (
	JobStatusQueued               JobStatus = "queued"
	JobStatusProcessingStructure  JobStatus = "processing_structure"
	JobStatusProcessingEmbeddings JobStatus = "processing_embeddings"
	JobStatusCompleted            JobStatus = "completed"
	JobStatusFailed               JobStatus = "failed"
)

// IsTerminal reports whether status can no longer transition.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// DocumentStatus is the lifecycle state of an UploadedDocument's structuring.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusStructured DocumentStatus = "structured"
	DocumentStatusUnsupported DocumentStatus = "unsupported"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// IsTerminal reports whether a document structuring status is final.
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusStructured || s == DocumentStatusUnsupported || s == DocumentStatusFailed
}

// DefaultMaxAttempts is the attempt budget assigned to a job at enqueue time.
const DefaultMaxAttempts = 3

// IngestionJob is one upload session's unit of asynchronous work.
type IngestionJob struct {
	ID              string
	UserID          string
	UploadSessionID string
	Status          JobStatus
	AttemptCount    int
	MaxAttempts     int
	NextRunAt       time.Time
	Error           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// InputDocument is the caller-supplied shape for one file in an Enqueue call.
type InputDocument struct {
	OriginalName string
	StoredName   string
	StoredPath   string
	MimeType     string
	SizeBytes    int64
}

// UploadedDocument is one file within a job.
type UploadedDocument struct {
	ID               string
	JobID            string
	UserID           string
	OriginalName     string
	StoredName       string
	StoredPath       string
	MimeType         string
	SizeBytes        int64
	StructuredStatus DocumentStatus
	Error            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DocumentChunk is one semantically coherent text unit extracted from a document.
type DocumentChunk struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Text       string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// ChunkEmbedding is the vector produced by a model from a chunk's text.
type ChunkEmbedding struct {
	ID             string
	ChunkID        string
	EmbeddingModel string
	EmbeddingDim   int
	Embedding      []float32
	CreatedAt      time.Time
}

// ChunkInput is a provider-supplied chunk awaiting dense re-indexing and
// persistence by insertChunks. Any index the provider attached is
// discarded.
type ChunkInput struct {
	Text     string
	Metadata map[string]any
}

// JobWithDocuments is the aggregate returned by the Status boundary.
type JobWithDocuments struct {
	Job       IngestionJob
	Documents []UploadedDocument
}
