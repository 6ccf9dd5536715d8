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

package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/scrubdex/core"
)

// DefaultThreshold is the batch size used when none is configured.
const DefaultThreshold = 100

// FlushObserver is told the size of every batch appended to the index.
type FlushObserver func(vectors int)

// Builder buffers vectors and appends them to a SearchIndex in batches of
// threshold. The buffer never holds more than threshold vectors between calls.
type Builder struct {
	index     SearchIndex
	threshold int
	observer  FlushObserver
	logger    *slog.Logger

	mu      sync.Mutex
	batch   []core.Vector
	flushes int
	added   int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder) error

// WithFlushObserver registers a callback run after each successful flush.
func WithFlushObserver(o FlushObserver) BuilderOption {
	return func(b *Builder) error {
		b.observer = o
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) error {
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a Builder flushing into idx every threshold vectors.
func NewBuilder(idx SearchIndex, threshold int, opts ...BuilderOption) (*Builder, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidThreshold, threshold)
	}

	b := &Builder{
		index:     idx,
		threshold: threshold,
		batch:     make([]core.Vector, 0, threshold),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	b.logger = b.logger.With("component", "builder")
	return b, nil
}

// Add buffers v and flushes when the buffer reaches the threshold.
// A vector whose length disagrees with the index, or with the vectors
// already buffered, is rejected with a *core.DimensionMismatchError.
func (b *Builder) Add(ctx context.Context, v core.Vector) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := core.ValidateVector(&v); err != nil {
		return err
	}

	dim := b.dimensionLocked()
	if dim != 0 && len(v.Values) != dim {
		return &core.DimensionMismatchError{Expected: dim, Got: len(v.Values)}
	}

	b.batch = append(b.batch, v)
	b.added++
	if len(b.batch) >= b.threshold {
		return b.flushLocked(ctx)
	}
	return nil
}

// Flush appends any buffered vectors to the index.
func (b *Builder) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked(ctx)
}

// Reset empties the index and drops any buffered vectors. Counters start
// again from zero.
func (b *Builder) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.index.Reset(ctx); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}
	b.batch = make([]core.Vector, 0, b.threshold)
	b.flushes = 0
	b.added = 0
	return nil
}

// Buffered returns the number of vectors waiting to be flushed.
func (b *Builder) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.batch)
}

// Flushes returns the number of batches appended so far.
func (b *Builder) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushes
}

// Added returns the number of vectors accepted by Add.
func (b *Builder) Added() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.added
}

// Dimension returns the dimension established by the index or, while the
// index is empty, by the first buffered vector.
func (b *Builder) Dimension() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dimensionLocked()
}

func (b *Builder) dimensionLocked() int {
	if dim := b.index.Dimension(); dim != 0 {
		return dim
	}
	if len(b.batch) > 0 {
		return len(b.batch[0].Values)
	}
	return 0
}

// flushLocked keeps the batch when the append fails. Must be called with lock held.
func (b *Builder) flushLocked(ctx context.Context) error {
	if len(b.batch) == 0 {
		return nil
	}

	n := len(b.batch)
	if err := b.index.Append(ctx, b.batch); err != nil {
		return fmt.Errorf("flush %d vectors: %w", n, err)
	}

	// The index may retain the old slice.
	b.batch = make([]core.Vector, 0, b.threshold)
	b.flushes++
	b.logger.Debug("flushed batch", "vectors", n, "flushes", b.flushes)
	if b.observer != nil {
		b.observer(n)
	}
	return nil
}
