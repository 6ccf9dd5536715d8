// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/scrubdex"
	"github.com/poiesic/scrubdex/config"
	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/health"
	"github.com/poiesic/scrubdex/ingestion"
	"github.com/poiesic/scrubdex/metrics"
	"github.com/poiesic/scrubdex/source"
	"github.com/poiesic/scrubdex/source/gdrive"
	"github.com/poiesic/scrubdex/vectorize"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "scrubdex",
		Usage: "Redact documents from a remote store and index them for similarity search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"SCRUBDEX_CONFIG"},
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Run the pipeline once in the foreground",
				Action: ingestCommand,
				Flags:  pipelineFlags(),
			},
			{
				Name:   "serve",
				Usage:  "Run the pipeline in the background and serve /health and /metrics",
				Action: serveCommand,
				Flags: append(pipelineFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Health server listen address",
					},
				),
			},
			{
				Name:   "inspect",
				Usage:  "Show document outcomes and index size of a workspace",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "workspace",
						Aliases: []string{"w"},
						Usage:   "Path to workspace directory",
					},
					&cli.BoolFlag{
						Name:  "failed",
						Usage: "List failed documents and their reasons",
					},
				},
			},
		},
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Identifier of the root container to traverse",
		},
		&cli.StringFlag{
			Name:    "workspace",
			Aliases: []string{"w"},
			Usage:   "Path to workspace directory",
		},
		&cli.StringFlag{
			Name:  "sink",
			Usage: "Path of the sanitized text file",
		},
		&cli.BoolFlag{
			Name:  "append",
			Usage: "Append to the sanitized text file instead of truncating it",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of vectors buffered before each index append",
		},
		&cli.StringFlag{
			Name:  "redaction",
			Usage: "Person-name redaction strategy (dictionary, classifier)",
		},
		&cli.StringFlag{
			Name:  "vectorizer",
			Usage: "Vectorization strategy (tfidf, embedding)",
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Embedding dimension",
		},
		&cli.StringFlag{
			Name:  "index",
			Usage: "Search index (flat, hnsw, persistent)",
		},
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "OpenAI-compatible service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "classifier-model",
			Usage: "Classifier model name for name redaction",
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N documents",
			Value: 10,
		},
	}
}

// setup loads the configuration and configures logging. An explicit
// --log-level wins over the configuration file.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg

	level := cfg.Logging.Level
	if c.IsSet("log-level") || c.String("config") == "" {
		level = c.String("log-level")
	}
	return setupLogger(level)
}

func setupLogger(levelStr string) error {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig returns the configuration loaded by setup with command-line
// overrides applied and validated.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, ok := c.App.Metadata[configKey].(config.Config)
	if !ok {
		cfg = config.Default()
	}

	if c.IsSet("root") {
		cfg.Source.Root = c.String("root")
	}
	if c.IsSet("workspace") {
		cfg.Workspace.Dir = c.String("workspace")
	}
	if c.IsSet("sink") {
		cfg.Sink.Path = c.String("sink")
	}
	if c.IsSet("append") {
		cfg.Sink.Append = c.Bool("append")
	}
	if c.IsSet("batch-size") {
		cfg.Index.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("redaction") {
		cfg.Redaction.Strategy = c.String("redaction")
	}
	if c.IsSet("vectorizer") {
		strategy, err := vectorize.ParseStrategy(c.String("vectorizer"))
		if err != nil {
			return cfg, err
		}
		cfg.Vectorizer.Strategy = strategy
	}
	if c.IsSet("dimensions") {
		cfg.Vectorizer.Dimensions = c.Int("dimensions")
	}
	if c.IsSet("index") {
		cfg.Index.Type = c.String("index")
	}
	if c.IsSet("ai-host") {
		cfg.AI.Host = c.String("ai-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("classifier-model") {
		cfg.AI.ClassifierModel = c.String("classifier-model")
	}
	if c.IsSet("addr") {
		cfg.HTTP.Addr = c.String("addr")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newStore connects to Drive with base64 service-account credentials read
// from the configured environment variable.
func newStore(ctx context.Context, cfg config.SourceConfig) (source.Store, error) {
	encoded := os.Getenv(cfg.CredentialsEnv)
	if encoded == "" {
		return nil, fmt.Errorf("environment variable %s is not set", cfg.CredentialsEnv)
	}
	credentials, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", cfg.CredentialsEnv, err)
	}

	return gdrive.New(ctx, credentials, nil,
		gdrive.WithPageSize(cfg.PageSize),
		gdrive.WithChunkSize(cfg.ChunkSize),
		gdrive.WithLogger(slog.Default()))
}

// openPipeline validates the configuration and builds a pipeline over the
// configured store. The caller closes the workspace and releases the pipeline.
func openPipeline(ctx context.Context, c *cli.Context) (config.Config, *scrubdex.Workspace, *ingestion.Pipeline, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return cfg, nil, nil, err
	}
	if cfg.Source.Root == "" {
		return cfg, nil, nil, fmt.Errorf("root container is required (--root or source.root)")
	}

	store, err := newStore(ctx, cfg.Source)
	if err != nil {
		return cfg, nil, nil, err
	}

	ws, err := scrubdex.OpenWorkspace(cfg.Workspace.Dir)
	if err != nil {
		return cfg, nil, nil, err
	}

	p, err := ws.NewPipeline(cfg, store,
		ingestion.WithProgress(os.Stderr, c.Int("report-interval")))
	if err != nil {
		ws.Close()
		return cfg, nil, nil, err
	}

	fmt.Fprintf(os.Stderr, "Root: %s\n", cfg.Source.Root)
	fmt.Fprintf(os.Stderr, "Workspace: %s\n", cfg.Workspace.Dir)
	fmt.Fprintf(os.Stderr, "Vectorizer: %s, index: %s, batch size: %d\n",
		cfg.Vectorizer.Strategy, cfg.Index.Type, cfg.Index.BatchSize)
	fmt.Fprintln(os.Stderr)

	return cfg, ws, p, nil
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	cfg, ws, p, err := openPipeline(ctx, c)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer p.Release()

	report, err := p.Run(ctx, cfg.Source.Root)
	if report != nil {
		printReport(c.App.Writer, report)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	cfg, ws, p, err := openPipeline(ctx, c)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer p.Release()

	g, gctx := errgroup.WithContext(ctx)

	task, err := p.Start(gctx, cfg.Source.Root)
	if err != nil {
		return err
	}

	srv := health.NewServer(cfg.HTTP.Addr, slog.Default())
	srv.SetShutdownTimeout(time.Duration(cfg.HTTP.ShutdownSec) * time.Second)

	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		report, err := task.Wait()
		if report != nil {
			printReport(c.App.Writer, report)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		slog.Info("ingestion finished; serving until interrupted")
		return nil
	})

	return g.Wait()
}

func inspectCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ws, err := scrubdex.OpenWorkspace(cfg.Workspace.Dir)
	if err != nil {
		return err
	}
	defer ws.Close()

	counts, err := ws.Manifest().CountByState(ctx)
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Workspace: %s\n", cfg.Workspace.Dir)
	for s := core.StateDiscovered; s <= core.StateFailed; s++ {
		fmt.Fprintf(w, "  %-12s %d\n", s, counts[s])
	}
	fmt.Fprintf(w, "Index: %d vectors, dimension %d\n", ws.Vectors().Len(), ws.Vectors().Dimension())

	if !c.Bool("failed") {
		return nil
	}

	failed, err := ws.Manifest().ListDocumentRecords(ctx, core.StateFailed)
	if err != nil {
		return fmt.Errorf("list failed documents: %w", err)
	}
	fmt.Fprintln(w)
	for _, rec := range failed {
		fmt.Fprintf(w, "%s\t%s\t%s\n", rec.SourceID, rec.Name, rec.Error)
	}
	return nil
}

func printReport(w io.Writer, r *ingestion.Report) {
	fmt.Fprintf(w, "Documents discovered: %d\n", r.Discovered)
	fmt.Fprintf(w, "  indexed: %d\n", r.Indexed)
	fmt.Fprintf(w, "  empty:   %d\n", r.Empty)
	fmt.Fprintf(w, "  failed:  %d\n", r.Failed)
	fmt.Fprintf(w, "Listing errors: %d\n", r.ListingErrors)
	fmt.Fprintf(w, "Vectors: %d (dimension %d, %d flushes)\n", r.Vectors, r.Dimension, r.Flushes)
	fmt.Fprintf(w, "Elapsed: %s\n", r.Elapsed.Round(time.Millisecond))
}
