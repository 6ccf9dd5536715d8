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

// Package scrubdex wires the ingestion pipeline from a configuration.
package scrubdex

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/scrubdex/ai"
	"github.com/poiesic/scrubdex/ai/openai"
	"github.com/poiesic/scrubdex/config"
	"github.com/poiesic/scrubdex/extract"
	"github.com/poiesic/scrubdex/index"
	"github.com/poiesic/scrubdex/ingestion"
	"github.com/poiesic/scrubdex/metrics"
	"github.com/poiesic/scrubdex/redact"
	"github.com/poiesic/scrubdex/source"
	"github.com/poiesic/scrubdex/storage"
	"github.com/poiesic/scrubdex/storage/badger"
	"github.com/poiesic/scrubdex/vectorize"
)

var _ index.SearchIndex = (*badger.VectorRepository)(nil)

// Workspace owns the manifest and the persistent vector index of one
// deployment, plus the AI provider when the configuration needs one.
type Workspace struct {
	backend  *badger.Backend
	manifest *badger.ManifestRepository
	vectors  *badger.VectorRepository
	provider ai.AIProvider
	ownsAI   bool
	logger   *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	inMemory bool
	provider ai.AIProvider
	logger   *slog.Logger
}

// InMemory opens a throwaway workspace; the directory is ignored.
func InMemory() WorkspaceOption {
	return func(o *workspaceOptions) {
		o.inMemory = true
	}
}

// WithProvider supplies the AI provider instead of creating one from the
// configuration. The caller keeps ownership of p.
func WithProvider(p ai.AIProvider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = p
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.logger = logger
	}
}

// OpenWorkspace opens or creates the workspace stored in dir.
func OpenWorkspace(dir string, opts ...WorkspaceOption) (*Workspace, error) {
	options := &workspaceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	backend, err := badger.OpenBackend(dir, options.inMemory)
	if err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", dir, err)
	}

	vectors, err := badger.NewVectorRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Workspace{
		backend:  backend,
		manifest: badger.NewManifestRepository(backend),
		vectors:  vectors,
		provider: options.provider,
		logger:   options.logger,
	}, nil
}

// Close releases the AI provider, if the workspace created it, and the store.
func (w *Workspace) Close() error {
	if w.ownsAI && w.provider != nil {
		if err := w.provider.Close(); err != nil {
			w.logger.Error("error closing AI provider", "err", err)
		}
	}

	var errs []error
	if err := w.vectors.Close(); err != nil {
		w.logger.Error("error closing vector repository", "err", err)
		errs = append(errs, err)
	}
	if err := w.manifest.Close(); err != nil {
		w.logger.Error("error closing manifest repository", "err", err)
		errs = append(errs, err)
	}
	if err := w.backend.Close(); err != nil {
		w.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Manifest returns the per-document outcome records.
func (w *Workspace) Manifest() storage.ManifestRepository {
	return w.manifest
}

// Vectors returns the persistent index.
func (w *Workspace) Vectors() *badger.VectorRepository {
	return w.vectors
}

// NewPipeline builds a pipeline over store as described by cfg. Extra
// options are applied after the ones derived from cfg.
func (w *Workspace) NewPipeline(cfg config.Config, store source.Store, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.NeedsAI() {
		if err := w.ensureProvider(cfg.AI); err != nil {
			return nil, err
		}
	}

	extractor, err := extract.New(store,
		extract.WithBackoff(extract.Backoff{
			MaxAttempts: cfg.Extract.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Extract.BaseDelayMs) * time.Millisecond,
			MaxDelay:    time.Duration(cfg.Extract.MaxDelayMs) * time.Millisecond,
		}),
		extract.WithMaxSize(int64(cfg.Extract.MaxSizeMB)<<20),
		extract.WithLogger(w.logger))
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	redactor, err := w.newRedactor(cfg.Redaction)
	if err != nil {
		return nil, fmt.Errorf("create redactor: %w", err)
	}

	vectorizer, err := w.newVectorizer(cfg.Vectorizer)
	if err != nil {
		return nil, fmt.Errorf("create vectorizer: %w", err)
	}

	builder, err := index.NewBuilder(w.newIndex(cfg.Index), cfg.Index.BatchSize,
		index.WithFlushObserver(metrics.ObserveFlush),
		index.WithLogger(w.logger))
	if err != nil {
		return nil, fmt.Errorf("create index builder: %w", err)
	}

	base := []ingestion.Option{
		ingestion.WithManifest(w.manifest),
		ingestion.WithSink(cfg.Sink.Path, cfg.Sink.Append),
		ingestion.WithLogger(w.logger),
	}
	return ingestion.NewPipeline(store, extractor, redactor, vectorizer, builder, append(base, opts...)...)
}

func (w *Workspace) ensureProvider(cfg config.AIConfig) error {
	if w.provider != nil {
		return nil
	}

	var opts []ai.ConfigOption
	if cfg.Host != "" {
		opts = append(opts, ai.WithHost(cfg.Host))
	}
	if cfg.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(cfg.EmbeddingModel))
	}
	if cfg.ClassifierModel != "" {
		opts = append(opts, ai.WithClassifierModel(cfg.ClassifierModel))
	}
	if cfg.APIToken != "" {
		opts = append(opts, ai.WithAPIToken(cfg.APIToken))
	}

	provider, err := openai.NewProvider(ai.NewConfig(opts...))
	if err != nil {
		return fmt.Errorf("create AI provider: %w", err)
	}
	w.provider = provider
	w.ownsAI = true
	return nil
}

func (w *Workspace) newRedactor(cfg config.RedactionConfig) (*redact.Redactor, error) {
	var names redact.PersonNameRedactor
	switch cfg.Strategy {
	case config.RedactionClassifier:
		r, err := redact.NewClassifierNameRedactor(w.provider.EntityTagger())
		if err != nil {
			return nil, err
		}
		names = r
	default:
		r, err := redact.NewDictionaryNameRedactor(cfg.Names)
		if err != nil {
			return nil, err
		}
		names = r
	}

	rules := make([]*redact.PatternRule, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		rule, err := redact.NewPatternRule(p.Name, p.Pattern, p.Placeholder)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return redact.New(names,
		redact.WithPatternRules(rules...),
		redact.WithObserver(metrics.ObserveRedactions),
		redact.WithLogger(w.logger))
}

func (w *Workspace) newVectorizer(cfg config.VectorizerConfig) (vectorize.Vectorizer, error) {
	if cfg.Strategy != config.VectorizerEmbedding {
		opts := []vectorize.TFIDFOption{vectorize.WithTFIDFLogger(w.logger)}
		if cfg.Analyzer != "" {
			opts = append(opts, vectorize.WithAnalyzer(cfg.Analyzer))
		}
		return vectorize.NewTFIDF(opts...)
	}

	// A negative cache size disables the cache.
	embedder := w.provider.Embedder()
	if cfg.CacheSize >= 0 {
		cached, err := vectorize.NewCachedEmbedder(embedder, cfg.CacheSize, metrics.ObserveCache)
		if err != nil {
			return nil, err
		}
		embedder = cached
	}
	return vectorize.NewEmbedding(embedder, cfg.Dimensions,
		vectorize.WithNormalization(cfg.Normalize),
		vectorize.WithEmbeddingLogger(w.logger))
}

func (w *Workspace) newIndex(cfg config.IndexConfig) index.SearchIndex {
	switch cfg.Type {
	case config.IndexFlat:
		return index.NewFlatIndex()
	case config.IndexHNSW:
		return index.NewHNSWIndex(index.WithM(cfg.HNSWM), index.WithEfSearch(cfg.HNSWEfSearch))
	default:
		return w.vectors
	}
}
