package learn

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/driftlock/recall/internal/embedding"
	"github.com/driftlock/recall/internal/store"
)

// failingEmbedder simulates an unreachable embedding service.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("connection refused")
}

func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("connection refused")
}

func (failingEmbedder) Healthy(ctx context.Context) error {
	return errors.New("connection refused")
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLearner_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	emb := embedding.NewMockEmbedder(64)
	l := NewLearner(emb, s, nil)
	ctx := context.Background()

	result := l.Learn(ctx, "", "the garden needs weeding", map[string]any{"type": "note", "tags": []string{"garden", "chores"}})
	if result.Status != "success" {
		t.Fatalf("status = %q, error = %q", result.Status, result.Error)
	}
	if result.ID == "" {
		t.Fatal("expected non-empty id")
	}

	// Querying with the same text's embedding finds the entry with the
	// stored (coerced) metadata.
	vec, _ := emb.Embed(ctx, "the garden needs weeding")
	results, err := s.Query(ctx, vec, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Metadata["type"] != "note" {
		t.Errorf("metadata type = %v", results[0].Metadata["type"])
	}
	if results[0].Metadata["tags"] != "garden,chores" {
		t.Errorf("tags not flattened: %v", results[0].Metadata["tags"])
	}
	if results[0].Distance > 1e-6 {
		t.Errorf("identical text should have near-zero distance, got %f", results[0].Distance)
	}
}

func TestLearner_EmbeddingFailureNoPartialWrite(t *testing.T) {
	s := newTestStore(t)
	l := NewLearner(failingEmbedder{}, s, nil)

	result := l.Learn(context.Background(), "", "some text", nil)
	if result.Status != "error" {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if result.ID != "" {
		t.Errorf("id should be empty on failure, got %q", result.ID)
	}
	count, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("store has %d entries after failed learn, want 0", count)
	}
}

func TestLearner_EmptyTextIsError(t *testing.T) {
	s := newTestStore(t)
	l := NewLearner(embedding.NewMockEmbedder(8), s, nil)

	result := l.Learn(context.Background(), "", "", nil)
	if result.Status != "error" {
		t.Errorf("status = %q, want error for empty text", result.Status)
	}
}

func TestLearner_BadMetadataNoWrite(t *testing.T) {
	s := newTestStore(t)
	l := NewLearner(embedding.NewMockEmbedder(8), s, nil)

	result := l.Learn(context.Background(), "", "text", map[string]any{"bad": map[string]any{"nested": true}})
	if result.Status != "error" {
		t.Fatalf("status = %q, want error for non-scalar metadata", result.Status)
	}
	count, _ := s.Count(context.Background())
	if count != 0 {
		t.Errorf("store has %d entries, want 0", count)
	}
}
