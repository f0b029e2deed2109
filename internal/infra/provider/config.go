package provider

import "time"

// StructurerConfig configures the remote Structurer transport.
type StructurerConfig struct {
	BaseURL     string
	Model       string
	Mode        string // "native" or "chat"
	Temperature float64
	NumCtx      int
	MaxTokens   int
	APIKey      string
	RateLimitRPS float64
	Timeout     time.Duration
}

// EmbedderConfig configures the remote Embedder transport.
type EmbedderConfig struct {
	BaseURL      string
	Model        string
	APIKey       string
	RateLimitRPS float64
	Timeout      time.Duration
}

const defaultHTTPTimeout = 60 * time.Second

// allowedRemoteExtensions are the extensions the remote Structurer accepts
// before spending a model call; anything else is unsupported.
var allowedRemoteExtensions = map[string]bool{
	".txt": true, ".csv": true, ".md": true, ".markdown": true,
	".json": true, ".xml": true, ".html": true, ".htm": true,
	".pdf": true, ".docx": true, ".doc": true,
}
