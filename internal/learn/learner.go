// Package learn implements the single write path for committing content to
// memory: embed the text, then insert it into the vector store. Both the
// queue-driven ingestion path and the direct API path funnel through here so
// dedup metadata and error semantics stay consistent.
package learn

import (
	"context"

	"go.uber.org/zap"

	"github.com/driftlock/recall/internal/embedding"
	"github.com/driftlock/recall/internal/store"
)

// Result reports the outcome of a learn call in the shape API callers receive.
type Result struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Learner pipes new text through the embedder and stores it.
type Learner struct {
	embedder embedding.Embedder
	store    *store.Store
	logger   *zap.Logger
}

// NewLearner creates a learner with the given dependencies.
func NewLearner(embedder embedding.Embedder, st *store.Store, logger *zap.Logger) *Learner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Learner{embedder: embedder, store: st, logger: logger}
}

// Learn embeds text and stores it with metadata, returning the new entry id.
// An embedding failure produces an error result with no partial write; a
// store failure likewise. id may be empty, in which case the store generates one.
func (l *Learner) Learn(ctx context.Context, id, text string, metadata map[string]any) Result {
	vector, err := l.embedder.Embed(ctx, text)
	if err != nil {
		l.logger.Warn("embedding failed", zap.Error(err))
		return Result{Status: "error", Error: err.Error()}
	}
	newID, err := l.store.Insert(ctx, id, text, vector, metadata)
	if err != nil {
		l.logger.Warn("store insert failed", zap.Error(err))
		return Result{Status: "error", Error: err.Error()}
	}
	return Result{Status: "success", ID: newID}
}
