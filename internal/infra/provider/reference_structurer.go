package provider

import (
	"context"
	"fmt"
	"strings"
)

// ReferenceStructurer is the deterministic Structurer used when no model
// backend is configured, and required for testing. It understands
// CSV and Markdown; every other extension is reported unsupported.
type ReferenceStructurer struct{}

// NewReferenceStructurer constructs the deterministic reference Structurer.
func NewReferenceStructurer() *ReferenceStructurer {
	return &ReferenceStructurer{}
}

// Structure dispatches on file extension.
func (r *ReferenceStructurer) Structure(_ context.Context, path, _ string) StructureResult {
	ext := extensionOf(path)
	switch ext {
	case ".csv":
		return structureCSV(path)
	case ".md", ".markdown":
		return structureMarkdown(path)
	default:
		return StructureResult{
			Status: StructureStatusUnsupported,
			Error:  fmt.Sprintf("reference structurer: unsupported extension %q", ext),
		}
	}
}

func extensionOf(path string) string {
	dot := strings.LastIndexByte(path, '.')
	if dot == -1 {
		return ""
	}
	return strings.ToLower(path[dot:])
}

func structureCSV(path string) StructureResult {
	content, err := readFile(path)
	if err != nil {
		return StructureResult{Status: StructureStatusFailed, Error: err.Error()}
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	var chunks []StructuredChunk
	row := 0
	for _, line := range lines {
		row++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		text := strings.ReplaceAll(trimmed, ",", " | ")
		chunks = append(chunks, StructuredChunk{
			Text: text,
			Metadata: map[string]any{
				"source": "csv-row",
				"row":    row,
			},
		})
	}

	return StructureResult{Status: StructureStatusStructured, Chunks: chunks}
}

func structureMarkdown(path string) StructureResult {
	content, err := readFile(path)
	if err != nil {
		return StructureResult{Status: StructureStatusFailed, Error: err.Error()}
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	blocks := splitMarkdownBlocks(normalized)

	var chunks []StructuredChunk
	block := 0
	for _, b := range blocks {
		trimmed := strings.TrimSpace(b)
		if trimmed == "" {
			continue
		}
		block++
		chunks = append(chunks, StructuredChunk{
			Text: trimmed,
			Metadata: map[string]any{
				"source": "markdown-block",
				"block":  block,
			},
		})
	}

	return StructureResult{Status: StructureStatusStructured, Chunks: chunks}
}

// splitMarkdownBlocks splits text wherever a line begins with '#', keeping
// the '#' line attached to the block it opens — equivalent to splitting on
// the regular expression \n(?=#), which Go's RE2 engine cannot express
// directly (no lookahead).
func splitMarkdownBlocks(text string) []string {
	lines := strings.Split(text, "\n")
	var blocks []string
	var cur []string
	for i, line := range lines {
		if i > 0 && strings.HasPrefix(line, "#") {
			blocks = append(blocks, strings.Join(cur, "\n"))
			cur = nil
		}
		cur = append(cur, line)
	}
	blocks = append(blocks, strings.Join(cur, "\n"))
	return blocks
}
