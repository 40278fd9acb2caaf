// Package ingest drains the work queue: one file at a time through skip
// rules, snippet extraction, deduplication, and the learner. The worker is
// fail-forward: a file that cannot be ingested is logged and marked done, so
// a permanently broken file never blocks the pipeline.
package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/driftlock/recall/internal/config"
	"github.com/driftlock/recall/internal/extract"
	"github.com/driftlock/recall/internal/fileid"
	"github.com/driftlock/recall/internal/learn"
	"github.com/driftlock/recall/internal/queue"
	"github.com/driftlock/recall/internal/store"
)

// Worker processes queued files in the background.
type Worker struct {
	queue     *queue.Queue
	store     *store.Store
	learner   *learn.Learner
	extractor *extract.Extractor
	cfg       *config.IngestConfig
	logger    *zap.Logger
}

// NewWorker creates a worker with the given dependencies.
func NewWorker(q *queue.Queue, st *store.Store, learner *learn.Learner, ex *extract.Extractor, cfg *config.IngestConfig, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{queue: q, store: st, learner: learner, extractor: ex, cfg: cfg, logger: logger}
}

// Step claims and processes one queued file. Returns false when the queue is
// empty, true otherwise. Every claimed path is marked done exactly once,
// whatever the outcome; there is no automatic retry.
func (w *Worker) Step(ctx context.Context) bool {
	path, err := w.queue.ClaimNext(ctx)
	if errors.Is(err, queue.ErrEmpty) {
		return false
	}
	if err != nil {
		w.logger.Warn("queue claim failed", zap.Error(err))
		return false
	}

	w.process(ctx, path)
	w.complete(ctx, path)
	return true
}

// process runs the per-file pipeline. All failures are terminal for this
// file: they are logged and the caller marks the path done regardless.
func (w *Worker) process(ctx context.Context, path string) {
	if w.cfg.ShouldSkip(path) {
		w.logger.Debug("skip: extension on skip-list", zap.String("path", path))
		return
	}

	snippet, err := w.extractor.Snippet(path)
	if err != nil {
		w.logger.Warn("snippet extraction failed", zap.String("path", path), zap.Error(err))
		return
	}
	if snippet == "" {
		w.logger.Debug("skip: empty or unsupported content", zap.String("path", path))
		return
	}

	meta, err := fileid.Stat(path)
	if err != nil {
		w.logger.Warn("stat failed", zap.String("path", path), zap.Error(err))
		return
	}
	key := fileid.Fingerprint(meta)
	metadata := meta.Map()
	metadata[fileid.MetadataKey] = key

	// Re-check dedup at processing time: the same content may have been
	// learned through the API between scan time and now.
	known, err := w.store.ExistsByMetadata(ctx, fileid.MetadataKey, key)
	if err != nil {
		w.logger.Warn("dedup check failed", zap.String("path", path), zap.Error(err))
		return
	}
	if known {
		w.logger.Debug("skip: already learned", zap.String("path", path))
		return
	}

	result := w.learner.Learn(ctx, "", snippet, metadata)
	if result.Status == "success" {
		w.logger.Info("learned", zap.String("name", meta.Name), zap.String("id", result.ID))
	} else {
		w.logger.Warn("learn failed", zap.String("name", meta.Name), zap.String("error", result.Error))
	}
}

func (w *Worker) complete(ctx context.Context, path string) {
	if err := w.queue.Complete(ctx, path); err != nil {
		w.logger.Warn("queue complete failed", zap.String("path", path), zap.Error(err))
	}
}

// Run drains the queue continuously until ctx is cancelled, sleeping the
// configured poll interval when idle. Stranded processing rows from a
// previous crash are reset to pending before the loop starts.
func (w *Worker) Run(ctx context.Context) {
	if n, err := w.queue.ResetProcessing(ctx); err != nil {
		w.logger.Warn("reset processing failed", zap.Error(err))
	} else if n > 0 {
		w.logger.Info("reset stranded files", zap.Int("count", n))
	}

	interval := time.Duration(w.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	w.logger.Info("ingest worker started", zap.Duration("poll_interval", interval))

	for {
		if ctx.Err() != nil {
			w.logger.Info("ingest worker stopped")
			return
		}
		if w.Step(ctx) {
			continue
		}
		select {
		case <-ctx.Done():
			w.logger.Info("ingest worker stopped")
			return
		case <-time.After(interval):
		}
	}
}
