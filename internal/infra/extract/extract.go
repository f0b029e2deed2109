// Package extract pulls plain text out of a file for the remote Structurer
// to hand to a model. It deliberately does not parse PDF or DOCX binary
// structure (out of scope); both are passed through as
// raw bytes decoded as UTF-8, which is adequate for the model-driven path
// and keeps this package free of a binary-parsing dependency.
package extract

import (
	"fmt"
	"os"
)

// Extractor implements provider.TextExtractor.
type Extractor struct{}

// New constructs an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads path and returns its content as text.
func (e *Extractor) Extract(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extract: read %s: %w", path, err)
	}
	return string(b), nil
}
