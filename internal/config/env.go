package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables recognized by ApplyEnv. Each takes precedence over
// the corresponding config file value.
const (
	EnvHost           = "RECALL_HOST"
	EnvPort           = "RECALL_PORT"
	EnvQueuePath      = "RECALL_QUEUE_DB"
	EnvStorePath      = "RECALL_STORE_DB"
	EnvEmbeddingURL   = "RECALL_EMBEDDING_URL"
	EnvEmbeddingModel = "RECALL_EMBEDDING_MODEL"
	EnvFolders        = "RECALL_FOLDERS"
	EnvSkipExts       = "RECALL_SKIP_EXTS"
	EnvDebug          = "RECALL_DEBUG"
)

// ApplyEnv overrides cfg fields from the environment. List-valued variables
// (folders, skip extensions) are comma-separated.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv(EnvQueuePath); v != "" {
		cfg.Storage.QueuePath = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		cfg.Storage.StorePath = v
	}
	if v := os.Getenv(EnvEmbeddingURL); v != "" {
		cfg.Embedding.URL = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv(EnvFolders); v != "" {
		cfg.Ingest.Folders = splitList(v)
	}
	if v := os.Getenv(EnvSkipExts); v != "" {
		cfg.Ingest.SkipExtensions = splitList(v)
	}
	if v := os.Getenv(EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
