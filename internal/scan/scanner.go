// Package scan walks configured folders and enqueues files not yet known to
// the vector store.
package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/driftlock/recall/internal/config"
	"github.com/driftlock/recall/internal/fileid"
	"github.com/driftlock/recall/internal/queue"
	"github.com/driftlock/recall/internal/store"
)

// Scanner discovers ingestion candidates. It never processes files itself;
// it only feeds the work queue.
type Scanner struct {
	store  *store.Store
	queue  *queue.Queue
	cfg    *config.IngestConfig
	logger *zap.Logger
}

// NewScanner creates a scanner over the configured folders.
func NewScanner(st *store.Store, q *queue.Queue, cfg *config.IngestConfig, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{store: st, queue: q, cfg: cfg, logger: logger}
}

// Scan walks every configured folder recursively and enqueues each regular
// file that is not on the skip-list and whose fingerprint is not already in
// the store. Hidden entries and application bundles are pruned. Per-file
// errors are logged and do not abort the walk. Returns the number of paths
// enqueued.
func (s *Scanner) Scan(ctx context.Context) int {
	queued := 0
	for _, folder := range s.cfg.Folders {
		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				s.logger.Warn("scan error", zap.String("path", path), zap.Error(err))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != folder && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			if s.consider(ctx, path) {
				queued++
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("scan aborted for folder", zap.String("folder", folder), zap.Error(err))
		}
	}
	return queued
}

// consider applies the skip rules to one file and enqueues it when new.
// Reports whether the path was enqueued.
func (s *Scanner) consider(ctx context.Context, path string) bool {
	if s.cfg.ShouldSkip(path) {
		s.logger.Debug("skip: extension on skip-list", zap.String("path", path))
		return false
	}
	meta, err := fileid.Stat(path)
	if err != nil {
		s.logger.Warn("skip: stat failed", zap.String("path", path), zap.Error(err))
		return false
	}
	key := fileid.Fingerprint(meta)
	known, err := s.store.ExistsByMetadata(ctx, fileid.MetadataKey, key)
	if err != nil {
		// Store unreachable: enqueue anyway; the worker re-checks before learning.
		s.logger.Warn("dedup check failed", zap.String("path", path), zap.Error(err))
	} else if known {
		s.logger.Debug("skip: already learned", zap.String("path", path))
		return false
	}
	if err := s.queue.Enqueue(ctx, path); err != nil {
		// A lost enqueue just means the file is picked up on the next scan.
		s.logger.Warn("enqueue failed", zap.String("path", path), zap.Error(err))
		return false
	}
	s.logger.Debug("queued", zap.String("path", path))
	return true
}

// skipDir reports whether a directory should be pruned from the walk:
// hidden directories and macOS application bundles.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(strings.ToLower(name), ".app")
}
