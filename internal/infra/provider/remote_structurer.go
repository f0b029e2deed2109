package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

const remoteStructurerProviderID = "remote-structurer"

const maxSegmentRunes = 12000

// TextExtractor maps a file path to its plain-text content. Implemented by
// internal/infra/extract; declared here so this package does not import an
// extraction implementation it does not need for the reference variant.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// RemoteStructurer converts a file to structured chunks via an HTTP model
// call.
type RemoteStructurer struct {
	cfg        StructurerConfig
	extractor  TextExtractor
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewRemoteStructurer builds a RemoteStructurer throttled to
// cfg.RateLimitRPS requests per second.
func NewRemoteStructurer(cfg StructurerConfig, extractor TextExtractor) *RemoteStructurer {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 2
	}
	return &RemoteStructurer{
		cfg:        cfg,
		extractor:  extractor,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Structure implements Structurer.
func (s *RemoteStructurer) Structure(ctx context.Context, path, mime string) StructureResult {
	ext := extensionOf(path)
	if !allowedRemoteExtensions[ext] {
		return StructureResult{
			Status: StructureStatusUnsupported,
			Error:  fmt.Sprintf("%s/%s: unsupported extension %q", remoteStructurerProviderID, s.cfg.Model, ext),
		}
	}

	text, err := s.extractor.Extract(path)
	if err != nil {
		return StructureResult{
			Status: StructureStatusFailed,
			Error:  fmt.Sprintf("%s/%s: extract text: %v", remoteStructurerProviderID, s.cfg.Model, err),
		}
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(normalized) == "" {
		return StructureResult{Status: StructureStatusFailed, Error: "no extractable text"}
	}

	segments := splitIntoSegments(normalized, maxSegmentRunes)

	var allChunks []StructuredChunk
	for i, seg := range segments {
		chunks, err := s.structureSegment(ctx, seg, ext, mime, i, len(segments))
		if err != nil {
			return StructureResult{
				Status: StructureStatusFailed,
				Error:  fmt.Sprintf("%s/%s: Structured extraction failed: %v", remoteStructurerProviderID, s.cfg.Model, err),
			}
		}
		allChunks = append(allChunks, chunks...)
	}

	return StructureResult{Status: StructureStatusStructured, Chunks: allChunks}
}

// splitIntoSegments splits text into chunks of at most maxRunes runes, on
// character (not byte) boundaries.
func splitIntoSegments(text string, maxRunes int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var segments []string
	for start := 0; start < len(runes); start += maxRunes {
		end := start + maxRunes
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}

const structureSystemPrompt = `You convert a document segment into a JSON object of the exact shape ` +
	`{"chunks":[{"chunkIndex":0,"text":"string","metadata":{}}]}. Return only that JSON object, ` +
	`with one entry per semantically coherent unit of text in the segment. Do not include any ` +
	`commentary outside the JSON object.`

func (s *RemoteStructurer) structureSegment(ctx context.Context, segment, ext, mime string, segmentIndex, segmentCount int) ([]StructuredChunk, error) {
	userPrompt := fmt.Sprintf(
		"Extension: %s\nMIME type: %s\nSegment %d of %d\n\n%s",
		ext, mime, segmentIndex+1, segmentCount, segment,
	)

	raw, err := s.callModel(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	candidate, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in model response")
	}

	var payload struct {
		Chunks any `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON in model response: %w", err)
	}

	rawChunks, ok := payload.Chunks.([]any)
	if !ok {
		return nil, fmt.Errorf("model response \"chunks\" is not an array")
	}

	var normalized []StructuredChunk
	for _, entry := range rawChunks {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		text, ok := obj["text"].(string)
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		meta := map[string]any{}
		if m, ok := obj["metadata"].(map[string]any); ok {
			for k, v := range m {
				meta[k] = v
			}
		}
		meta["sourceExtension"] = ext
		meta["segmentIndex"] = segmentIndex
		normalized = append(normalized, StructuredChunk{Text: text, Metadata: meta})
	}

	if len(normalized) == 0 {
		return nil, fmt.Errorf("model response normalized to zero chunks for a non-empty segment")
	}

	return normalized, nil
}

// extractJSONObject accepts a bare JSON object, a JSON object enclosed in a
// fenced code block, or the substring from the first '{' to the last '}',
// tried in that order.
func extractJSONObject(response string) (string, bool) {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, true
	}

	if candidate, ok := extractFencedJSON(trimmed); ok {
		return candidate, true
	}

	first := strings.IndexByte(trimmed, '{')
	last := strings.LastIndexByte(trimmed, '}')
	if first != -1 && last != -1 && last > first {
		return trimmed[first : last+1], true
	}

	return "", false
}

func extractFencedJSON(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start == -1 {
		return "", false
	}
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		langTag := strings.TrimSpace(rest[:nl])
		if langTag == "" || isSimpleLangTag(langTag) {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	candidate := strings.TrimSpace(rest[:end])
	if candidate == "" {
		return "", false
	}
	return candidate, true
}

func isSimpleLangTag(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return len(s) > 0
}

// --- wire transport: native (Ollama-style) and OpenAI-compatible chat ---

type nativeGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type nativeGenerateResponse struct {
	Response string `json:"response"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *RemoteStructurer) callModel(ctx context.Context, userPrompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	if s.cfg.Mode == "chat" {
		return s.callChat(ctx, userPrompt)
	}
	return s.callNative(ctx, userPrompt)
}

func (s *RemoteStructurer) callNative(ctx context.Context, userPrompt string) (string, error) {
	opts := map[string]any{}
	if s.cfg.Temperature != 0 {
		opts["temperature"] = s.cfg.Temperature
	}
	if s.cfg.NumCtx != 0 {
		opts["num_ctx"] = s.cfg.NumCtx
	}
	if len(opts) == 0 {
		opts = nil
	}

	body, err := json.Marshal(nativeGenerateRequest{
		Model:   s.cfg.Model,
		Prompt:  structureSystemPrompt + "\n\n" + userPrompt,
		Stream:  false,
		Options: opts,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	respBody, status, err := s.doPost(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}
	defer respBody.Close() //nolint:errcheck

	raw, err := io.ReadAll(respBody)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("status %d: %s", status, string(raw))
	}

	var decoded nativeGenerateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return decoded.Response, nil
}

func (s *RemoteStructurer) callChat(ctx context.Context, userPrompt string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: structureSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	respBody, status, err := s.doPost(ctx, "/v1/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer respBody.Close() //nolint:errcheck

	raw, err := io.ReadAll(respBody)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if status < 200 || status >= 300 {
		return "", fmt.Errorf("status %d: %s", status, string(raw))
	}

	var decoded chatCompletionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return contentToString(decoded.Choices[0].Message.Content), nil
}

// contentToString handles both string content and array-of-parts content
// array content is joined by concatenating string parts and .text
// fields of object parts, preserving order.
func contentToString(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var b strings.Builder
		for _, part := range v {
			switch p := part.(type) {
			case string:
				b.WriteString(p)
			case map[string]any:
				if text, ok := p["text"].(string); ok {
					b.WriteString(text)
				}
			}
		}
		return b.String()
	default:
		return ""
	}
}

func (s *RemoteStructurer) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	if s.cfg.APIKey != "" {
		req.Header.Set(headerAuth, "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}
