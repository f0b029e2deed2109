package provider

import "os"

// readFile is the thin wrapper over os.ReadFile that the reference
// Structurer reads CSV/Markdown files through; it returns the file content
// as a string.
func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
