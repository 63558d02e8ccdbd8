// Package main is the frontdesk CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

	"github.com/hyperjump/frontdesk/internal/cli"
	"github.com/hyperjump/frontdesk/internal/config"
	"github.com/hyperjump/frontdesk/internal/embedding"
	"github.com/hyperjump/frontdesk/internal/grounding"
	"github.com/hyperjump/frontdesk/internal/indexer"
	"github.com/hyperjump/frontdesk/internal/models"
	"github.com/hyperjump/frontdesk/internal/search"
	"github.com/hyperjump/frontdesk/internal/server"
	"github.com/hyperjump/frontdesk/internal/storage"
	"github.com/hyperjump/frontdesk/internal/watcher"
	"github.com/hyperjump/frontdesk/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/frontdesk/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if present. A missing file is not an error: the environment
// and defaults are used instead. Returns the config and the path that was loaded.
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
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		path = ""
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "context":
		runContext()
	case "search":
		runSearch()
	case "index":
		runIndex()
	case "status":
		runStatus()
	case "drop":
		runDrop()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("frontdesk version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and builds the logger and components for a command.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger := utils.MustLogger(debugMode)
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var watchSvc server.WatchService
	if idx := components.Indexer; idx != nil {
		go func() {
			if report, err := idx.EnsureIndex(ctx, cfg.Dataset.Path); err != nil {
				logger.Warn("initial index failed", zap.String("path", cfg.Dataset.Path), zap.Error(err))
			} else {
				logger.Info("index ready", zap.String("path", report.Path), zap.String("outcome", string(report.Outcome)), zap.Int("rows", report.Rows))
			}
		}()
		if cfg.Watch.EnabledOrDefault() {
			w := newDatasetWatcher(ctx, cfg, idx, logger)
			if err := w.Start(ctx); err != nil {
				logger.Warn("dataset watcher not started", zap.String("path", cfg.Dataset.Path), zap.Error(err))
			} else {
				defer w.Stop()
				watchSvc = w
			}
		}
	} else {
		logger.Warn("no embedding credential configured; booking grounding is disabled",
			zap.String("provider", cfg.Embedding.Provider))
	}

	srv := server.NewServer(
		components.Grounding,
		components.Engine,
		components.Indexer,
		components.Storage,
		cfg,
		logger,
		watchSvc,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func newDatasetWatcher(ctx context.Context, cfg *config.Config, idx *indexer.Indexer, logger *zap.Logger) *watcher.Watcher {
	return watcher.NewWatcher(
		[]string{cfg.Dataset.Path},
		func(path string) {
			report, err := idx.EnsureIndex(ctx, path)
			if err != nil {
				logger.Warn("re-index after change failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("dataset re-indexed", zap.String("path", path), zap.String("outcome", string(report.Outcome)), zap.Int("rows", report.Rows))
		},
		watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMillis)*time.Millisecond),
		watcher.WithLogger(logger),
	)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runContext() {
	fs := flag.NewFlagSet("context", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = build context in-process)")
	dataset := fs.String("dataset", "", "dataset path (default from config)")
	maxRows := fs.Int("max-rows", 0, "sample rows to include (default from config)")
	force := fs.Bool("force", false, "build context even when the utterance has no booking vocabulary")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: frontdesk context [flags] <utterance>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	utterance := buildSearchQuery(fs.Args())
	if utterance == "" {
		fs.Usage()
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	var text string
	if *serverURL != "" {
		var resp struct {
			Context string `json:"context"`
		}
		req := map[string]interface{}{"utterance": utterance, "dataset_path": *dataset, "max_rows": *maxRows, "force": *force}
		if err := postJSON(*serverURL+"/api/v1/context", req, &resp); err != nil {
			fmt.Fprintf(os.Stderr, "Context failed: %v\n", err)
			os.Exit(1)
		}
		text = resp.Context
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		text = components.Grounding.Ground(context.Background(), grounding.Request{
			Utterance:   utterance,
			DatasetPath: *dataset,
			MaxRows:     *maxRows,
			Force:       *force,
		}).Context
	}
	if err := cli.WriteContext(os.Stdout, text, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = search in-process)")
	dataset := fs.String("dataset", "", "dataset path (default from config)")
	limit := fs.Int("limit", 0, "maximum rows (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: frontdesk search [flags] <query>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fs.Usage()
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)
	query := &models.Query{Text: queryStr, SourcePath: *dataset, Limit: *limit}

	var result *models.MatchResult
	if *serverURL != "" {
		result = &models.MatchResult{}
		if err := postJSON(*serverURL+"/api/v1/search", query, result); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		if query.Limit <= 0 {
			query.Limit = cfg.Grounding.MaxRows
		}
		var err error
		result, err = components.Engine.Search(context.Background(), query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "rebuild even when the stored index is current")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	path := cfg.Dataset.Path
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if components.Indexer == nil {
		fmt.Fprintf(os.Stderr, "Cannot index: %v\n", embedding.ErrNoCredential)
		os.Exit(1)
	}
	report, err := indexDataset(context.Background(), components.Indexer, path, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Index failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteIndexReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func indexDataset(ctx context.Context, idx *indexer.Indexer, path string, force bool) (*indexer.Report, error) {
	if force {
		return idx.Rebuild(ctx, path)
	}
	return idx.EnsureIndex(ctx, path)
}

func runDrop() {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	path := cfg.Dataset.Path
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if components.Indexer == nil {
		fmt.Fprintf(os.Stderr, "Cannot drop index: %v\n", embedding.ErrNoCredential)
		os.Exit(1)
	}
	if err := components.Indexer.Drop(context.Background(), path); err != nil {
		fmt.Fprintf(os.Stderr, "Drop failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Index dropped: %s\n", path)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	overwrite := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	path := "config.yaml"
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if err := writeDefaultConfig(path, *overwrite); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written: %s\n", path)
}

// writeDefaultConfig saves a config holding only the defaults. Credentials are left to
// the environment.
func writeDefaultConfig(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	cfg, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	st, err := collectStatus(context.Background(), cfg, components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func collectStatus(ctx context.Context, cfg *config.Config, c *Components) (*cli.Status, error) {
	sources, err := c.Storage.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	st := &cli.Status{
		DatasetPath:  cfg.Dataset.Path,
		DatabasePath: cfg.Storage.DatabasePath,
		Provider:     cfg.Embedding.Provider,
		Model:        cfg.Embedding.Model,
		Credential:   c.Embedder != nil,
		Sources:      sources,
	}
	if c.Indexer != nil {
		if at, ok := c.Indexer.IndexedAt(ctx, cfg.Dataset.Path); ok {
			st.IndexedAt = &at
		}
	}
	if size, err := storage.DatabaseSizeBytes(cfg.Storage.DatabasePath); err == nil {
		st.DiskUsageByte = size
	}
	return st, nil
}

func postJSON(url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Components holds the wired application services. Embedder, Queries and Indexer are
// nil when no embedding credential is configured.
type Components struct {
	Storage   *storage.SQLiteStorage
	Embedder  embedding.Embedder
	Queries   *embedding.QueryEmbedder
	Remote    *embedding.RedisCache
	Indexer   *indexer.Indexer
	Engine    *search.Engine
	Grounding *grounding.Service
}

// Close releases storage and the remote cache.
func (c *Components) Close() {
	if c.Remote != nil {
		_ = c.Remote.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if store.SchemaRecreated() {
		logger.Warn("row index schema was outdated and has been recreated", zap.String("path", store.Path()))
	}
	c := &Components{Storage: store}

	embedder, err := embedding.New(ctx, &cfg.Embedding)
	switch {
	case errors.Is(err, embedding.ErrNoCredential):
		embedder = nil
	case err != nil:
		store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	var (
		rowIndex search.RowIndex
		queries  search.QueryEmbedder
	)
	if embedder != nil {
		c.Embedder = embedder
		c.Indexer = indexer.NewIndexer(store, embedder, indexer.WithLogger(logger))
		rowIndex = c.Indexer

		qopts := []embedding.QueryOption{embedding.WithLogger(logger)}
		if r := cfg.Embedding.Redis; r.Addr != "" {
			ttl := time.Duration(r.TTLSeconds) * time.Second
			remote, err := embedding.NewRedisCache(ctx, r.Addr, r.Password, r.DB, ttl)
			if err != nil {
				logger.Warn("redis query cache unavailable, using in-process cache only", zap.String("addr", r.Addr), zap.Error(err))
			} else {
				c.Remote = remote
				qopts = append(qopts, embedding.WithRemoteCache(remote))
			}
		}
		c.Queries = embedding.NewQueryEmbedder(embedder, cfg.Embedding.CacheSize, qopts...)
		queries = c.Queries
		logger.Info("embedding configured", zap.String("provider", cfg.Embedding.Provider), zap.String("model", embedder.Model()))
	}

	c.Engine = search.NewEngine(rowIndex, queries,
		search.WithDefaultSource(cfg.Dataset.Path),
		search.WithLogger(logger),
	)
	c.Grounding = grounding.NewService(c.Engine, &cfg.Grounding, grounding.WithLogger(logger))
	return c, nil
}

func printUsage() {
	fmt.Println(`frontdesk - Booking data grounding for a motel phone assistant

Usage:
  frontdesk server [flags]               Start the HTTP server
  frontdesk context [flags] <utterance>  Print the grounding block for an utterance
  frontdesk search [flags] <query>       Show the booking rows matching a query
  frontdesk index [flags] [dataset]      Build or refresh the row index
  frontdesk status [flags]               Show index and configuration status
  frontdesk drop [flags] [dataset]       Delete the stored row index for a dataset
  frontdesk init [--force] [path]        Write a config file with default settings
  frontdesk version                      Show version
  frontdesk help                         Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/frontdesk/config.yaml,
                     or ./config.yaml when present; environment and .env override it)
  --output string    Output format: text or json (default: text)

Server Flags:
  --debug            Enable debug logging

Context Flags:
  --server string    Server URL; empty builds the context in-process
  --dataset string   Dataset path (default from config)
  --max-rows int     Sample rows to include (default from config)
  --force            Skip the booking-vocabulary check

Search Flags:
  --server string    Server URL; empty searches in-process
  --dataset string   Dataset path (default from config)
  --limit int        Maximum rows (default from config)

Index Flags:
  --force            Rebuild even when the stored index is current

Examples:
  frontdesk server
  frontdesk context "what room numbers are free tomorrow"
  frontdesk search --output json "queen rooms on 12 june"
  frontdesk index --force ./motel_week_availability.csv
  frontdesk status`)
}
