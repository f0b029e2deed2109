// Package provider implements the two capability interfaces the ingestion
// pipeline drives documents and chunks through — Structurer (file→chunks)
// and Embedder (chunk text→vector) — plus their deterministic reference
// and remote-model implementations, selected by a small provider-id
// registry rather than deep inheritance.
package provider

import "context"

// StructureStatus is the outcome of one Structurer.Structure call.
type StructureStatus string

const (
	StructureStatusStructured  StructureStatus = "structured"
	StructureStatusUnsupported StructureStatus = "unsupported"
	StructureStatusFailed      StructureStatus = "failed"
)

// StructuredChunk is one chunk produced by a Structurer, prior to dense
// re-indexing and persistence by the Store.
type StructuredChunk struct {
	Text     string
	Metadata map[string]any
}

// StructureResult is the tagged outcome of structuring one document:
// Structured{chunks} | Unsupported{reason} | Failed{reason}.
type StructureResult struct {
	Status StructureStatus
	Chunks []StructuredChunk
	Error  string
}

// Structurer converts a file into a list of chunks.
type Structurer interface {
	Structure(ctx context.Context, path, mime string) StructureResult
}

// EmbeddingResult is the vector a model produced from one chunk's text.
type EmbeddingResult struct {
	Model      string
	Dimensions int
	Vector     []float32
}

// Embedder converts a chunk's text to a vector. Unlike Structurer, failures
// are reported as a Go error — embedding failures always bubble up to the
// caller's job-level retry handling, they are never a
// per-document terminal outcome.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}
