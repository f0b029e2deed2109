package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestReferenceStructurer_CSV_OneChunkPerNonEmptyRow(t *testing.T) {
	path := writeTempFile(t, "rows.csv", "a,b,c\n\nd,e\n")

	result := NewReferenceStructurer().Structure(context.Background(), path, "text/csv")

	if result.Status != StructureStatusStructured {
		t.Fatalf("Status = %q, error = %q", result.Status, result.Error)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("len(Chunks) = %d, want 2", len(result.Chunks))
	}
	if result.Chunks[0].Text != "a | b | c" {
		t.Errorf("Chunks[0].Text = %q", result.Chunks[0].Text)
	}
	if result.Chunks[0].Metadata["row"] != 1 {
		t.Errorf("Chunks[0].Metadata[row] = %v, want 1", result.Chunks[0].Metadata["row"])
	}
	if result.Chunks[1].Metadata["row"] != 3 {
		t.Errorf("Chunks[1].Metadata[row] = %v, want 3 (blank line still counts)", result.Chunks[1].Metadata["row"])
	}
}

func TestReferenceStructurer_Markdown_SplitsOnHeadings(t *testing.T) {
	content := "# Intro\nfirst paragraph\n\n# Second\nmore text\n"
	path := writeTempFile(t, "doc.md", content)

	result := NewReferenceStructurer().Structure(context.Background(), path, "text/markdown")

	if result.Status != StructureStatusStructured {
		t.Fatalf("Status = %q, error = %q", result.Status, result.Error)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("len(Chunks) = %d, want 2", len(result.Chunks))
	}
	if result.Chunks[0].Text != "# Intro\nfirst paragraph" {
		t.Errorf("Chunks[0].Text = %q", result.Chunks[0].Text)
	}
	if result.Chunks[1].Text != "# Second\nmore text" {
		t.Errorf("Chunks[1].Text = %q", result.Chunks[1].Text)
	}
}

func TestReferenceStructurer_UnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "image.png", "not really an image")

	result := NewReferenceStructurer().Structure(context.Background(), path, "image/png")

	if result.Status != StructureStatusUnsupported {
		t.Fatalf("Status = %q, want unsupported", result.Status)
	}
	if result.Error == "" {
		t.Error("Error should explain the unsupported extension")
	}
}

func TestReferenceStructurer_MissingFile_ReportsFailed(t *testing.T) {
	result := NewReferenceStructurer().Structure(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "text/csv")

	if result.Status != StructureStatusFailed {
		t.Fatalf("Status = %q, want failed", result.Status)
	}
}
