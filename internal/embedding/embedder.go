// Package embedding provides text embedding via an external embedding service.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned when text to embed is empty. It is a usage error,
// distinct from service failures, and is rejected before any network call.
var ErrEmptyInput = errors.New("embedding: no text provided")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Healthy(ctx context.Context) error
}
