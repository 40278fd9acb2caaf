// Package store provides the durable vector store: entries persisted in
// SQLite with an in-memory index for nearest-neighbor queries.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/driftlock/recall/internal/fileid"
	"github.com/driftlock/recall/internal/models"
)

// ErrNotFound is returned by Get when no entry has the given id.
var ErrNotFound = errors.New("store: entry not found")

// fieldName restricts metadata field names usable in existence predicates.
var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store owns memory entries. Entries are inserted and deleted, never mutated
// in place. The embedding dimensionality is fixed by the first successful
// insert; later inserts with a different dimension are rejected.
type Store struct {
	db    *sql.DB
	index *memoryIndex

	mu         sync.Mutex // serializes inserts and guards dimensions
	dimensions int
}

// Open opens or creates the store database at dbPath, initializes the schema,
// and loads all embeddings into the in-memory index. Parent directories are
// created if they do not exist.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		file_key TEXT,
		embedding BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_file_key ON entries(file_key);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize store schema: %w", err)
	}

	s := &Store{db: db, index: newMemoryIndex()}
	if err := s.loadIndex(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}
	return s, nil
}

func (s *Store) loadIndex() error {
	rows, err := s.db.Query(`SELECT id, embedding FROM entries`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}
		vec := decodeVector(blob)
		if s.dimensions == 0 {
			s.dimensions = len(vec)
		}
		s.index.add(id, vec)
	}
	return rows.Err()
}

// Insert stores a new entry and returns its id. When id is empty a fresh UUID
// is generated. Metadata is coerced to scalars (see CoerceMetadata); a vector
// whose dimension disagrees with the store's is rejected.
func (s *Store) Insert(ctx context.Context, id, text string, vector []float32, metadata map[string]any) (string, error) {
	if len(vector) == 0 {
		return "", fmt.Errorf("store: empty embedding")
	}
	coerced, err := CoerceMetadata(metadata)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.New().String()
	}

	metadataJSON, err := json.Marshal(coerced)
	if err != nil {
		return "", fmt.Errorf("store: marshal metadata: %w", err)
	}
	var fileKey sql.NullString
	if fk, ok := coerced[fileid.MetadataKey].(string); ok && fk != "" {
		fileKey = sql.NullString{String: fk, Valid: true}
	}

	// The whole check-write-latch sequence runs under the lock so the
	// dimensionality is only ever fixed by a write that actually landed.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimensions != 0 && len(vector) != s.dimensions {
		return "", fmt.Errorf("store: vector dimension mismatch: got %d, expected %d", len(vector), s.dimensions)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entries (id, text, metadata, file_key, embedding) VALUES (?, ?, ?, ?, ?)`,
		id, text, string(metadataJSON), fileKey, encodeVector(vector),
	)
	if err != nil {
		return "", fmt.Errorf("store: insert: %w", err)
	}
	if s.dimensions == 0 {
		s.dimensions = len(vector)
	}
	s.index.add(id, vector)
	return id, nil
}

// Query returns up to k entries ordered by ascending cosine distance to
// vector. An empty store yields an empty result, not an error.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]models.SearchResult, error) {
	hits := s.index.search(vector, k)
	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		entry, err := s.Get(ctx, hit.id)
		if err != nil {
			// Index and table can drift briefly around a delete; skip the hole.
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		results = append(results, models.SearchResult{
			Text:     entry.Text,
			Metadata: entry.Metadata,
			Distance: hit.distance,
		})
	}
	return results, nil
}

// Get returns the entry with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.MemoryEntry, error) {
	var entry models.MemoryEntry
	var metadataJSON string
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, metadata, embedding FROM entries WHERE id = ?`, id,
	).Scan(&entry.ID, &entry.Text, &metadataJSON, &blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
		return nil, fmt.Errorf("store: unmarshal metadata: %w", err)
	}
	entry.Embedding = decodeVector(blob)
	return &entry, nil
}

// Delete removes the entry with the given id. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return err
	}
	s.index.remove(id)
	return nil
}

// ExistsByMetadata reports whether any entry has metadata field equal to
// value. This is an exact-match predicate, not a similarity search; it backs
// the file_key dedup check.
func (s *Store) ExistsByMetadata(ctx context.Context, field, value string) (bool, error) {
	if !fieldName.MatchString(field) {
		return false, fmt.Errorf("store: invalid metadata field name %q", field)
	}
	var count int
	var err error
	if field == fileid.MetadataKey {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entries WHERE file_key = ?`, value,
		).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM entries WHERE json_extract(metadata, '$.`+field+`') = ?`, value,
		).Scan(&count)
	}
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	return count, err
}

// Dimensions returns the embedding dimensionality, or 0 when the store is empty.
func (s *Store) Dimensions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dimensions
}

// IndexSize returns the number of vectors in the in-memory index.
func (s *Store) IndexSize() int {
	return s.index.size()
}

// Ping verifies the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
