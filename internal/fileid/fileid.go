// Package fileid derives a stable identity key for a file on disk from its
// absolute path, size, and modification time. The key doubles as the dedup
// predicate: an entry carrying the same file_key means the file was already
// ingested, while any edit (size or mtime change) yields a new key and
// re-ingestion.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftlock/recall/internal/models"
)

// MetadataKey is the metadata field under which the fingerprint is stored.
const MetadataKey = "file_key"

// Stat returns the identity-relevant metadata for the file at path.
// MTime is truncated to whole seconds so repeated stats of an unchanged file
// always produce the same fingerprint.
func Stat(path string) (models.FileMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.FileMeta{}, fmt.Errorf("stat %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return models.FileMeta{
		Name:  filepath.Base(path),
		Path:  abs,
		Size:  info.Size(),
		MTime: info.ModTime().Unix(),
	}, nil
}

// Fingerprint returns the deterministic identity key for meta: the hex sha256
// of "path:size:mtime". Pure function; same inputs always yield the same key.
// Keying on the absolute path keeps same-named files in different directories
// distinct, so a preserved-mtime copy is still ingested on its own.
func Fingerprint(meta models.FileMeta) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d", meta.Path, meta.Size, meta.MTime)))
	return hex.EncodeToString(sum[:])
}
