// Package models defines core data structures for memory entries, search
// results, and file identity metadata.
package models

// MemoryEntry is a stored piece of memory: a text snippet, its embedding, and
// arbitrary flat metadata. The embedding never leaves the process over JSON.
type MemoryEntry struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Embedding []float32      `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// SearchResult is one query hit. Distance is 1 minus cosine similarity, so
// smaller means more similar.
type SearchResult struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Distance float64        `json:"distance"`
}

// FileMeta holds the identity-relevant attributes of a file on disk.
// MTime is in whole Unix seconds.
type FileMeta struct {
	Name  string
	Path  string
	Size  int64
	MTime int64
}

// Map returns the metadata representation stored alongside an ingested file.
func (m FileMeta) Map() map[string]any {
	return map[string]any{
		"name":  m.Name,
		"path":  m.Path,
		"size":  m.Size,
		"mtime": m.MTime,
	}
}
