package provider

import (
	"context"
	"math"
)

const referenceEmbeddingDim = 128

// ReferenceModelID is the model id reported by the deterministic Embedder.
const ReferenceModelID = "reference-embedder-v1"

// ReferenceEmbedder is the deterministic Embedder used when no model backend
// is configured, and required for testing.
type ReferenceEmbedder struct{}

// NewReferenceEmbedder constructs the deterministic reference Embedder.
func NewReferenceEmbedder() *ReferenceEmbedder {
	return &ReferenceEmbedder{}
}

// Embed produces a fixed 128-dim vector: for each input code point at index
// i, adds (code % 31) / 31 to vector[i mod 128], then L2-normalizes with a
// floor of 1 to avoid division by zero.
func (r *ReferenceEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	vec := make([]float64, referenceEmbeddingDim)
	for i, codePoint := range []rune(text) {
		vec[i%referenceEmbeddingDim] += float64(int(codePoint)%31) / 31.0
	}

	var sumSquares float64
	for _, v := range vec {
		sumSquares += v * v
	}
	norm := math.Sqrt(sumSquares)
	if norm < 1 {
		norm = 1
	}

	out := make([]float32, referenceEmbeddingDim)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}

	return EmbeddingResult{
		Model:      ReferenceModelID,
		Dimensions: referenceEmbeddingDim,
		Vector:     out,
	}, nil
}
