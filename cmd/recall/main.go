// Package main is the recall CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/driftlock/recall/internal/config"
	"github.com/driftlock/recall/internal/embedding"
	"github.com/driftlock/recall/internal/extract"
	"github.com/driftlock/recall/internal/ingest"
	"github.com/driftlock/recall/internal/learn"
	"github.com/driftlock/recall/internal/models"
	"github.com/driftlock/recall/internal/queue"
	"github.com/driftlock/recall/internal/scan"
	"github.com/driftlock/recall/internal/server"
	"github.com/driftlock/recall/internal/store"
	"github.com/driftlock/recall/internal/watcher"
	"github.com/driftlock/recall/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/recall/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// .env values become environment overrides; existing env still wins.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "scan":
		runScan()
	case "add":
		runAdd()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("recall version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services, constructed once and passed
// explicitly into everything that needs them.
type Components struct {
	Store    *store.Store
	Queue    *queue.Queue
	Embedder embedding.Embedder
	Learner  *learn.Learner
	Scanner  *scan.Scanner
	Worker   *ingest.Worker
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Queue != nil {
		_ = c.Queue.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.Open(cfg.Storage.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	q, err := queue.New(cfg.Storage.QueuePath)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize work queue: %w", err)
	}

	embedder := embedding.NewHTTPEmbedder(
		cfg.Embedding.URL,
		cfg.Embedding.Model,
		embedding.WithTimeout(time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second),
		embedding.WithLogger(logger),
	)

	learner := learn.NewLearner(embedder, st, logger)
	scanner := scan.NewScanner(st, q, &cfg.Ingest, logger)
	extractor := extract.NewExtractor(cfg.Ingest.SnippetLength)
	worker := ingest.NewWorker(q, st, learner, extractor, &cfg.Ingest, logger)

	return &Components{
		Store:    st,
		Queue:    q,
		Embedder: embedder,
		Learner:  learner,
		Scanner:  scanner,
		Worker:   worker,
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (queue activity, skips, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go components.Worker.Run(workerCtx)

	if cfg.Ingest.Watch && len(cfg.Ingest.Folders) > 0 {
		watch := watcher.New(cfg.Ingest.Folders, func(path string) {
			if cfg.Ingest.ShouldSkip(path) {
				return
			}
			if err := components.Queue.Enqueue(context.Background(), path); err != nil {
				logger.Warn("watch enqueue failed", zap.String("path", path), zap.Error(err))
			}
		}, logger)
		if err := watch.Start(workerCtx); err != nil {
			logger.Warn("Failed to start watcher", zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Learner,
		components.Embedder,
		components.Store,
		components.Queue,
		components.Scanner,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	workerCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// runScan scans the configured folders and drains the queue in the
// foreground, the one-shot equivalent of running the server's background worker.
func runScan() {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	drain := fs.Bool("drain", true, "process the queue after scanning")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	queued := components.Scanner.Scan(ctx)
	fmt.Printf("Queued %d file(s)\n", queued)

	if *drain {
		processed := 0
		for components.Worker.Step(ctx) {
			processed++
		}
		fmt.Printf("Processed %d file(s)\n", processed)
	}
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: recall add [flags] <text>")
		os.Exit(1)
	}
	text := strings.TrimSpace(strings.Join(fs.Args(), " "))

	body, _ := json.Marshal(map[string]any{"text": text})
	resp, err := http.Post(*serverURL+"/add", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Add failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var result learn.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Stored: %s\n", result.ID)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	limit := fs.Int("limit", 5, "number of results")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: recall search [flags] <query>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	body, _ := json.Marshal(models.SearchRequest{Query: query, Limit: *limit})
	resp, err := http.Post(*serverURL+"/search", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Search failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	if len(out.Results) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, r := range out.Results {
		fmt.Printf("%d. [%.4f] %s\n", i+1, r.Distance, r.Text)
		if name, ok := r.Metadata["name"]; ok {
			fmt.Printf("   source: %v\n", name)
		}
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Status failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(status)
}

func printUsage() {
	fmt.Println(`recall - local memory service for a personal assistant

Usage:
  recall server [flags]          Start the HTTP server and background worker
  recall scan [flags]            Scan folders and ingest queued files
  recall add [flags] <text>      Store a note via the running server
  recall search [flags] <query>  Similarity search via the running server
  recall status [flags]          Show store/queue status
  recall version                 Show version
  recall help                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/recall/config.yaml)
  --debug            Enable debug logging (queue activity, skips, etc.)

Scan Flags:
  --config string    Config file path
  --drain            Process the queue after scanning (default: true)

Add/Search/Status Flags:
  --server string    Server URL (default: http://localhost:8080)
  --limit int        Number of search results (default: 5)

Examples:
  recall server
  recall scan
  recall add "Water the plants every morning"
  recall search watering schedule
  recall status`)
}
