package models

// SearchRequest is the body of a similarity search call.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse wraps search hits in ascending distance order.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// LearnRequest is the body of a direct learn call.
type LearnRequest struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScanResponse reports the outcome of a scan trigger. Queued counts paths
// added by this scan; Pending is the whole backlog including earlier scans.
type ScanResponse struct {
	Status  string `json:"status"`
	Queued  int    `json:"queued"`
	Pending int    `json:"pending"`
}

// HealthResponse reports per-subsystem health. Queue is "idle",
// "processing(n)", or "fail".
type HealthResponse struct {
	EmbeddingServer string `json:"embedding_server"`
	VectorStore     string `json:"vector_store"`
	Queue           string `json:"queue"`
}
