package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single embedding request. The service is networked,
// so a slow call must not stall the worker loop indefinitely.
const DefaultTimeout = 15 * time.Second

// HTTPEmbedder calls an Ollama-compatible embedding endpoint. A single string
// prompt yields {"embedding": [...]}; an array prompt yields
// {"embeddings": [[...], ...]}; the request shape is the marker for which
// response shape to expect.
type HTTPEmbedder struct {
	url    string
	model  string
	client *http.Client
	logger *zap.Logger
}

// HTTPEmbedderOption configures an HTTPEmbedder.
type HTTPEmbedderOption func(*HTTPEmbedder)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPEmbedderOption {
	return func(e *HTTPEmbedder) { e.client.Timeout = d }
}

// WithLogger sets a logger for failure diagnostics.
func WithLogger(l *zap.Logger) HTTPEmbedderOption {
	return func(e *HTTPEmbedder) { e.logger = l }
}

// NewHTTPEmbedder creates an embedder for the service at url using the given
// model name.
func NewHTTPEmbedder(url, model string, opts ...HTTPEmbedderOption) *HTTPEmbedder {
	e := &HTTPEmbedder{
		url:    url,
		model:  model,
		client: &http.Client{Timeout: DefaultTimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt any    `json:"prompt"`
}

type embedResponse struct {
	Embedding  []float32   `json:"embedding"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed returns the embedding for a single text. Timeouts, connection
// failures, non-2xx responses, and malformed bodies are returned as errors,
// never panics; callers treat them as a failure signal.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	resp, err := e.post(ctx, text)
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("embedding service: response missing embedding field")
	}
	return resp.Embedding, nil
}

// EmbedBatch returns one embedding per text, in order. The response must be
// the same length as the input.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	for _, t := range texts {
		if t == "" {
			return nil, ErrEmptyInput
		}
	}
	resp, err := e.post(ctx, texts)
	if err != nil {
		return nil, err
	}
	if resp.Embeddings == nil {
		return nil, fmt.Errorf("embedding service: response missing embeddings field")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding service: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// Healthy probes the service with a minimal embedding request.
func (e *HTTPEmbedder) Healthy(ctx context.Context) error {
	_, err := e.Embed(ctx, "ping")
	return err
}

func (e *HTTPEmbedder) post(ctx context.Context, prompt any) (*embedResponse, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("embedding service: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding service: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("embedding request failed", zap.Error(err))
		return nil, fmt.Errorf("embedding service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e.logger.Warn("embedding service returned error",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", b))
		return nil, fmt.Errorf("embedding service: status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("embedding service: decode response: %w", err)
	}
	return &out, nil
}
