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
	"strings"
	"time"

	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/metrics"
)

// runState holds the state of one Pipeline run.
type runState struct {
	*Pipeline
	report   *Report
	sink     *FileSink
	tracker  *ProgressTracker

	// deferred holds documents whose vectors arrive at Finish.
	deferred map[core.ID]*core.DocumentRecord
}

// process takes one document as far as it can go. A non-nil return aborts
// the run; per-document failures are recorded and return nil.
func (r *runState) process(ctx context.Context, doc core.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	rec := core.NewDocumentRecord(doc)
	if err := r.save(ctx, rec); err != nil {
		return err
	}

	logger := r.logger.With("document", doc.SourceID, "name", doc.Name)

	fail := func(cause error) error {
		if err := rec.Fail(cause); err != nil {
			return err
		}
		r.report.Failed++
		metrics.DocumentsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		if r.tracker != nil {
			r.tracker.Record(true)
		}
		logger.Warn("document failed", "state", rec.State, "err", cause)
		return r.save(ctx, rec)
	}

	if err := r.advance(ctx, rec, core.StateDownloading); err != nil {
		return err
	}
	data, err := r.extractor.Download(ctx, doc)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fail(err)
	}

	if err := r.advance(ctx, rec, core.StateExtracting); err != nil {
		return err
	}
	// Segments are redacted as they are pulled; only the sanitized text
	// accumulates.
	var sanitized strings.Builder
	for seg, err := range r.extractor.Segments(doc, data) {
		if err != nil {
			return fail(err)
		}
		if rec.Segments == 0 {
			if err := r.advance(ctx, rec, core.StateRedacting); err != nil {
				return err
			}
		}
		clean, err := r.redactor.Redact(ctx, seg.Text)
		if err != nil {
			if core.IsFatal(err) {
				return err
			}
			return fail(fmt.Errorf("redact segment %d: %w", seg.Index, err))
		}
		if rec.Segments > 0 {
			sanitized.WriteByte('\n')
		}
		sanitized.WriteString(clean)
		rec.Segments++
		metrics.SegmentsTotal.Inc()
	}
	if rec.Segments == 0 {
		if err := r.advance(ctx, rec, core.StateRedacting); err != nil {
			return err
		}
	}
	text := sanitized.String()

	if err := r.advance(ctx, rec, core.StateVectorizing); err != nil {
		return err
	}

	if strings.TrimSpace(text) == "" {
		if err := r.sink.Write(text); err != nil {
			return err
		}
		r.report.Empty++
		metrics.DocumentsTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
		logger.Debug("document has no text")
		return r.complete(ctx, rec, 0, started)
	}

	vectors, err := r.vectorizer.Vectorize(ctx, doc.ID, text)
	if err != nil {
		if errors.Is(err, core.ErrVectorization) && !core.IsFatal(err) {
			return fail(err)
		}
		return err
	}

	// Nothing reaches the sink that the index would then refuse.
	if dim := r.builder.Dimension(); dim != 0 {
		for _, v := range vectors {
			if len(v.Values) != dim {
				return &core.DimensionMismatchError{Expected: dim, Got: len(v.Values)}
			}
		}
	}

	if err := r.sink.Write(text); err != nil {
		return err
	}

	for _, v := range vectors {
		if err := r.builder.Add(ctx, v); err != nil {
			return err
		}
	}
	r.report.Vectors += len(vectors)

	if len(vectors) == 0 {
		r.deferred[doc.ID] = rec
		logger.Debug("vector deferred until finish")
		return nil
	}

	r.report.Indexed++
	metrics.DocumentsTotal.WithLabelValues(metrics.OutcomeIndexed).Inc()
	return r.complete(ctx, rec, len(vectors), started)
}

// finish collects deferred vectors and flushes the final batch.
func (r *runState) finish(ctx context.Context) error {
	vectors, err := r.vectorizer.Finish(ctx)
	if err != nil {
		return fmt.Errorf("finish %s vectorizer: %w", r.vectorizer.Name(), err)
	}

	counts := make(map[core.ID]int, len(vectors))
	for _, v := range vectors {
		if err := r.builder.Add(ctx, v); err != nil {
			return err
		}
		counts[v.DocumentID]++
	}
	r.report.Vectors += len(vectors)

	if err := r.builder.Flush(ctx); err != nil {
		return err
	}

	for id, rec := range r.deferred {
		n := counts[id]
		if n == 0 {
			if err := rec.Fail(fmt.Errorf("%w: no vector produced", core.ErrVectorization)); err != nil {
				return err
			}
			r.report.Failed++
			metrics.DocumentsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
			if err := r.save(ctx, rec); err != nil {
				return err
			}
			continue
		}
		r.report.Indexed++
		metrics.DocumentsTotal.WithLabelValues(metrics.OutcomeIndexed).Inc()
		if err := r.complete(ctx, rec, n, time.Time{}); err != nil {
			return err
		}
	}
	return nil
}

// complete moves rec to Indexed.
func (r *runState) complete(ctx context.Context, rec *core.DocumentRecord, vectors int, started time.Time) error {
	rec.Vectors = vectors
	if err := r.advance(ctx, rec, core.StateIndexed); err != nil {
		return err
	}
	if !started.IsZero() {
		metrics.DocumentDuration.Observe(time.Since(started).Seconds())
	}
	if r.tracker != nil {
		r.tracker.Record(false)
	}
	return nil
}

func (r *runState) advance(ctx context.Context, rec *core.DocumentRecord, to core.DocumentState) error {
	if err := rec.Advance(to); err != nil {
		return err
	}
	return r.save(ctx, rec)
}

func (r *runState) save(ctx context.Context, rec *core.DocumentRecord) error {
	if r.manifest == nil {
		return nil
	}
	if err := r.manifest.SaveDocumentRecord(ctx, rec); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %w", ErrManifest, rec.SourceID, err)
	}
	return nil
}
