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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/extract"
	"github.com/poiesic/scrubdex/index"
	"github.com/poiesic/scrubdex/metrics"
	"github.com/poiesic/scrubdex/redact"
	"github.com/poiesic/scrubdex/source"
	"github.com/poiesic/scrubdex/storage"
	"github.com/poiesic/scrubdex/vectorize"
)

// Report summarizes one run.
type Report struct {
	Discovered    int
	Indexed       int
	Empty         int
	Failed        int
	ListingErrors int
	Vectors       int
	Flushes       int
	Dimension     int
	Elapsed       time.Duration
}

func (r *Report) String() string {
	return fmt.Sprintf("discovered=%d indexed=%d empty=%d failed=%d listing_errors=%d vectors=%d flushes=%d dimension=%d elapsed=%s",
		r.Discovered, r.Indexed, r.Empty, r.Failed, r.ListingErrors, r.Vectors, r.Flushes, r.Dimension, r.Elapsed.Round(time.Millisecond))
}

// Pipeline orchestrates one document at a time through extraction,
// redaction, vectorization and indexing.
type Pipeline struct {
	store      source.Store
	extractor  *extract.Extractor
	redactor   *redact.Redactor
	vectorizer vectorize.Vectorizer
	builder    *index.Builder
	manifest   storage.ManifestRepository
	sinkPath   string
	appendSink bool
	progress   io.Writer
	interval   int
	pool       *ants.Pool
	logger     *slog.Logger

	busy atomic.Bool
	mu   sync.Mutex
	task *Task
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithManifest records every document state change in m.
func WithManifest(m storage.ManifestRepository) Option {
	return func(p *Pipeline) error {
		p.manifest = m
		return nil
	}
}

// WithSink sets the sanitized text file. Default is DefaultSinkPath, truncated.
func WithSink(path string, appendMode bool) Option {
	return func(p *Pipeline) error {
		if path == "" {
			path = DefaultSinkPath
		}
		p.sinkPath = path
		p.appendSink = appendMode
		return nil
	}
}

// WithProgress writes progress to w every interval documents.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		p.progress = w
		p.interval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store source.Store,
	extractor *extract.Extractor,
	redactor *redact.Redactor,
	vectorizer vectorize.Vectorizer,
	builder *index.Builder,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if redactor == nil {
		return nil, ErrRedactorRequired
	}
	if vectorizer == nil {
		return nil, ErrVectorizerRequired
	}
	if builder == nil {
		return nil, ErrBuilderRequired
	}

	// A single worker: at most one background run at a time.
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:      store,
		extractor:  extractor,
		redactor:   redactor,
		vectorizer: vectorizer,
		builder:    builder,
		sinkPath:   DefaultSinkPath,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	return p, nil
}

// Run processes every document beneath root and returns when the run ends.
// Per-document failures are recorded and counted; the returned error is
// non-nil only when the run was aborted. The partial Report is returned
// in both cases.
func (p *Pipeline) Run(ctx context.Context, root string) (*Report, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer p.busy.Store(false)
	return p.run(ctx, root)
}

// Start submits a run to the pipeline's worker and returns immediately.
func (p *Pipeline) Start(ctx context.Context, root string) (*Task, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}

	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}

	err := p.pool.Submit(func() {
		report, err := p.run(taskCtx, root)
		cancel()
		p.busy.Store(false)
		t.report, t.err = report, err
		close(t.done)
	})
	if err != nil {
		cancel()
		p.busy.Store(false)
		return nil, fmt.Errorf("submit run: %w", err)
	}

	p.mu.Lock()
	p.task = t
	p.mu.Unlock()
	return t, nil
}

// Release waits for a background run to finish and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.mu.Lock()
	t := p.task
	p.mu.Unlock()

	if t != nil {
		<-t.Done()
	}
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) run(ctx context.Context, root string) (report *Report, err error) {
	if root == "" {
		return nil, ErrRootRequired
	}

	start := time.Now()
	report = &Report{}

	// The index holds exactly what the sink holds: a truncated sink starts
	// from an empty index.
	if p.appendSink {
		if vectorize.RunScoped(p.vectorizer) && p.builder.Dimension() != 0 {
			return report, fmt.Errorf("%w: %s vectors cannot be appended", ErrIndexNotEmpty, p.vectorizer.Name())
		}
	} else if err := p.builder.Reset(ctx); err != nil {
		return report, err
	}

	sink, err := OpenFileSink(p.sinkPath, p.appendSink)
	if err != nil {
		return report, err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = cerr
		}
		report.Flushes = p.builder.Flushes()
		report.Dimension = p.builder.Dimension()
		report.Elapsed = time.Since(start)
	}()

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, p.interval)
		tracker.Start()
		defer tracker.Finish()
	}

	p.logger.Info("starting run", "root", root, "vectorizer", p.vectorizer.Name(), "sink", sink.Path())

	r := &runState{
		Pipeline: p,
		report:   report,
		sink:     sink,
		tracker:  tracker,
		deferred: map[core.ID]*core.DocumentRecord{},
	}

	for doc, walkErr := range walk(ctx, p.store, root, p.logger) {
		if walkErr != nil {
			var lerr *ListingError
			if !errors.As(walkErr, &lerr) || lerr.Root() {
				return report, walkErr
			}
			report.ListingErrors++
			metrics.ListingErrorsTotal.Inc()
			p.logger.Warn("container listing failed", "container", lerr.ContainerID, "depth", lerr.Depth, "err", lerr.Err)
			continue
		}

		report.Discovered++
		if err := r.process(ctx, doc); err != nil {
			p.logger.Error("aborting run", "document", doc.SourceID, "err", err)
			return report, err
		}
	}

	if err := r.finish(ctx); err != nil {
		return report, err
	}

	p.logger.Info("run complete",
		"discovered", report.Discovered,
		"indexed", report.Indexed,
		"empty", report.Empty,
		"failed", report.Failed,
		"listing_errors", report.ListingErrors,
		"vectors", report.Vectors)
	return report, nil
}
