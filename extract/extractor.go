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

package extract

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/source"
)

// DefaultMaxSize bounds a single document download.
const DefaultMaxSize int64 = 256 << 20

// Decoder splits a downloaded document into segments.
type Decoder interface {
	Segments(doc core.Document, data []byte) iter.Seq2[core.Segment, error]
}

// Extractor downloads documents and segments their text.
type Extractor struct {
	store    source.Store
	backoff  Backoff
	maxSize  int64
	decoders map[core.Format]Decoder
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithBackoff sets the per-chunk retry policy.
func WithBackoff(b Backoff) Option {
	return func(e *Extractor) error {
		if b.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		e.backoff = b
		return nil
	}
}

// WithMaxSize limits the number of bytes accepted for one document.
func WithMaxSize(n int64) Option {
	return func(e *Extractor) error {
		if n <= 0 {
			return fmt.Errorf("max size must be positive, got %d", n)
		}
		e.maxSize = n
		return nil
	}
}

// WithDecoder replaces the decoder for a format.
func WithDecoder(format core.Format, d Decoder) Option {
	return func(e *Extractor) error {
		if !format.Supported() {
			return fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, format)
		}
		e.decoders[format] = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		e.logger = logger
		return nil
	}
}

// New creates an Extractor reading from store.
func New(store source.Store, opts ...Option) (*Extractor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	e := &Extractor{
		store:   store,
		backoff: DefaultBackoff,
		maxSize: DefaultMaxSize,
		decoders: map[core.Format]Decoder{
			core.FormatPDF:            PDFDecoder{},
			core.FormatWordProcessing: WordDecoder{},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "extractor")
	return e, nil
}

// Download fetches the full contents of doc. Every failure, including
// exhausted chunk retries, is reported as core.ErrTransfer unless the
// context was cancelled.
func (e *Extractor) Download(ctx context.Context, doc core.Document) ([]byte, error) {
	transfer, err := e.store.Download(ctx, doc.SourceID)
	if err != nil {
		return nil, e.transferError(ctx, doc, err)
	}
	defer transfer.Close()

	var (
		data   []byte
		chunks int
	)
	for done := false; !done; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var chunk []byte
		err := e.backoff.Do(ctx, e.logger, func() error {
			var err error
			chunk, done, err = transfer.NextChunk(ctx)
			return err
		})
		if err != nil {
			return nil, e.transferError(ctx, doc, fmt.Errorf("chunk %d: %w", chunks, err))
		}

		chunks++
		if int64(len(data)+len(chunk)) > e.maxSize {
			return nil, e.transferError(ctx, doc, ErrDocumentTooLarge)
		}
		data = append(data, chunk...)
	}

	e.logger.Debug("downloaded document", "document", doc.SourceID, "bytes", len(data), "chunks", chunks)
	return data, nil
}

func (e *Extractor) transferError(ctx context.Context, doc core.Document, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %s: %w", core.ErrTransfer, doc.SourceID, err)
}

// Segments lazily yields the text segments of a downloaded document in
// source order. Unsupported formats yield nothing.
func (e *Extractor) Segments(doc core.Document, data []byte) iter.Seq2[core.Segment, error] {
	decoder, ok := e.decoders[doc.Format]
	if !ok {
		return func(yield func(core.Segment, error) bool) {}
	}
	return decoder.Segments(doc, data)
}
