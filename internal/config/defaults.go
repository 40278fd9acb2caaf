package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.QueuePath == "" {
		cfg.Storage.QueuePath = "data/ingest_queue.db"
	}
	if cfg.Storage.StorePath == "" {
		cfg.Storage.StorePath = "data/memory.db"
	}
	if cfg.Embedding.URL == "" {
		cfg.Embedding.URL = "http://localhost:11434/api/embeddings"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text:v1.5"
	}
	if cfg.Embedding.TimeoutSeconds == 0 {
		cfg.Embedding.TimeoutSeconds = 15
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 5
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Ingest.SkipExtensions == nil {
		cfg.Ingest.SkipExtensions = []string{".app", ".exe", ".dmg", ".pkg", ".zip", ".tar", ".gz", ".iso"}
	}
	if cfg.Ingest.SnippetLength == 0 {
		cfg.Ingest.SnippetLength = 500
	}
	if cfg.Ingest.PollIntervalSeconds == 0 {
		cfg.Ingest.PollIntervalSeconds = 1
	}
}
