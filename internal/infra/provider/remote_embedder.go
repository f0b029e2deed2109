package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"golang.org/x/time/rate"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
	headerAuth        = "Authorization"
)

// RemoteEmbedder calls a configured HTTP endpoint to embed chunk text
// POST {model, prompt}; response must contain a non-empty
// embedding array of finite numbers.
type RemoteEmbedder struct {
	cfg        EmbedderConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewRemoteEmbedder builds a RemoteEmbedder throttled to cfg.RateLimitRPS
// requests per second.
func NewRemoteEmbedder(cfg EmbedderConfig) *RemoteEmbedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 4
	}
	return &RemoteEmbedder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

type embedRequestBody struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponseBody struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

// Embed implements Embedder. Any transport error, non-OK HTTP status, empty
// vector, or non-finite entry is returned as an error carrying provider and
// model context.
func (e *RemoteEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return EmbeddingResult{}, fmt.Errorf("remote embedder %s: rate limit wait: %w", e.cfg.Model, err)
	}

	body, err := json.Marshal(embedRequestBody{Model: e.cfg.Model, Prompt: text})
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("remote embedder %s: encode request: %w", e.cfg.Model, err)
	}

	respBody, status, err := e.doPost(ctx, "/api/embeddings", body)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("remote embedder %s: %w", e.cfg.Model, err)
	}
	defer respBody.Close() //nolint:errcheck

	raw, err := io.ReadAll(respBody)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("remote embedder %s: read response: %w", e.cfg.Model, err)
	}

	var decoded embedResponseBody
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return EmbeddingResult{}, fmt.Errorf("remote embedder %s: decode response: %w", e.cfg.Model, err)
	}

	if status < 200 || status >= 300 {
		if decoded.Error != "" {
			return EmbeddingResult{}, fmt.Errorf("remote embedder %s: status %d: %s", e.cfg.Model, status, decoded.Error)
		}
		return EmbeddingResult{}, fmt.Errorf("remote embedder %s: status %d", e.cfg.Model, status)
	}

	if len(decoded.Embedding) == 0 {
		return EmbeddingResult{}, fmt.Errorf("remote embedder %s: empty embedding vector", e.cfg.Model)
	}

	vec := make([]float32, len(decoded.Embedding))
	for i, v := range decoded.Embedding {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return EmbeddingResult{}, fmt.Errorf("remote embedder %s: non-finite value at index %d", e.cfg.Model, i)
		}
		vec[i] = float32(v)
	}

	return EmbeddingResult{Model: e.cfg.Model, Dimensions: len(vec), Vector: vec}, nil
}

func (e *RemoteEmbedder) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	if e.cfg.APIKey != "" {
		req.Header.Set(headerAuth, "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}
