package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/driftlock/recall/internal/models"
	"github.com/driftlock/recall/internal/store"
)

// handleAdd stores an arbitrary note. Every body field other than text, id,
// and embedding becomes metadata.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text, _ := body["text"].(string)
	if text == "" {
		s.respondError(w, http.StatusBadRequest, "missing 'text'")
		return
	}
	id, _ := body["id"].(string)
	metadata := make(map[string]any)
	for k, v := range body {
		switch k {
		case "text", "id", "embedding":
		default:
			metadata[k] = v
		}
	}

	result := s.learner.Learn(r.Context(), id, text, metadata)
	if result.Status != "success" {
		s.logger.Error("add failed", zap.String("error", result.Error))
		s.respondJSON(w, http.StatusBadGateway, result)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "missing 'query'")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.config.Search.DefaultLimit
	}
	if limit > s.config.Search.MaxLimit {
		limit = s.config.Search.MaxLimit
	}

	vector, err := s.embedder.Embed(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("query embedding failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, "embedding service unavailable")
		return
	}
	results, err := s.store.Query(r.Context(), vector, limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{Results: results})
}

func (s *Server) handleLearn(w http.ResponseWriter, r *http.Request) {
	var req models.LearnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		s.respondError(w, http.StatusBadRequest, "missing 'text'")
		return
	}
	result := s.learner.Learn(r.Context(), "", req.Text, req.Metadata)
	status := http.StatusOK
	if result.Status != "success" {
		status = http.StatusBadGateway
	}
	s.respondJSON(w, status, result)
}

// handleScan triggers a folder scan. The scan only enqueues; the response
// returns as soon as discovery finishes, with the backlog left to the
// background worker.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	queued := s.scanner.Scan(r.Context())
	pending, err := s.queue.PendingCount(r.Context())
	if err != nil {
		s.logger.Error("pending count failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, models.ScanResponse{
		Status:  "queued",
		Queued:  queued,
		Pending: pending,
	})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "entry not found")
			return
		}
		s.logger.Error("get entry failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete entry failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleHealth reports per-subsystem reachability. A failing subsystem marks
// its field "fail" but the endpoint itself always answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		EmbeddingServer: "ok",
		VectorStore:     "ok",
		Queue:           "idle",
	}
	if err := s.embedder.Healthy(r.Context()); err != nil {
		resp.EmbeddingServer = "fail"
	}
	if err := s.store.Ping(r.Context()); err != nil {
		resp.VectorStore = "fail"
	}
	if pending, err := s.queue.PendingCount(r.Context()); err != nil {
		resp.Queue = "fail"
	} else if pending > 0 {
		resp.Queue = fmt.Sprintf("processing(%d)", pending)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count entries failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status failed")
		return
	}
	pending, err := s.queue.PendingCount(r.Context())
	if err != nil {
		s.logger.Error("status: pending count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"entries":           entries,
		"pending_files":     pending,
		"vector_index_size": s.store.IndexSize(),
		"config": map[string]any{
			"embedding_url":   s.config.Embedding.URL,
			"embedding_model": s.config.Embedding.Model,
			"queue_path":      s.config.Storage.QueuePath,
			"store_path":      s.config.Storage.StorePath,
			"folders":         s.config.Ingest.Folders,
		},
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
