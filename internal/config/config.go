// Package config provides configuration loading and structs for the recall server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds on-disk paths for the work queue and the vector store.
// The two are independent databases; the file_key metadata value is the only
// cross-reference between them.
type StorageConfig struct {
	QueuePath string `yaml:"queue_path"`
	StorePath string `yaml:"store_path"`
}

// EmbeddingConfig holds settings for the external embedding service.
type EmbeddingConfig struct {
	URL            string `yaml:"url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SearchConfig holds query settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// IngestConfig holds folder scanning and worker settings.
type IngestConfig struct {
	Folders             []string `yaml:"folders"`
	SkipExtensions      []string `yaml:"skip_extensions"`
	SnippetLength       int      `yaml:"snippet_length"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	Watch               bool     `yaml:"watch"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and finally applies environment overrides (env wins over the file).
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.QueuePath = expandPath(cfg.Storage.QueuePath, configDir)
	cfg.Storage.StorePath = expandPath(cfg.Storage.StorePath, configDir)
	for i := range cfg.Ingest.Folders {
		cfg.Ingest.Folders[i] = expandPath(cfg.Ingest.Folders[i], configDir)
	}

	return &cfg, nil
}

// ShouldSkip reports whether path's extension is on the configured skip-list.
func (c *IngestConfig) ShouldSkip(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range c.SkipExtensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; "~/" and other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) || path == "" {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
