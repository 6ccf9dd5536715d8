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

package vectorize

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/scrubdex/ai"
	"github.com/poiesic/scrubdex/core"
)

// Embedding is the per-document strategy: one embedder call, one vector.
type Embedding struct {
	embedder  ai.Embedder
	dim       int
	normalize bool
	logger    *slog.Logger
}

// EmbeddingOption configures an Embedding vectorizer.
type EmbeddingOption func(*Embedding) error

// WithNormalization scales every vector to unit length.
func WithNormalization(enabled bool) EmbeddingOption {
	return func(e *Embedding) error {
		e.normalize = enabled
		return nil
	}
}

// WithEmbeddingLogger sets the logger.
func WithEmbeddingLogger(logger *slog.Logger) EmbeddingOption {
	return func(e *Embedding) error {
		e.logger = logger
		return nil
	}
}

// NewEmbedding creates an embedding vectorizer producing dim-length vectors.
func NewEmbedding(embedder ai.Embedder, dim int, opts ...EmbeddingOption) (*Embedding, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}

	e := &Embedding{
		embedder: embedder,
		dim:      dim,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "embedding")
	return e, nil
}

// Name returns StrategyEmbedding.
func (e *Embedding) Name() string { return StrategyEmbedding }

// Dimension returns the configured dimension.
func (e *Embedding) Dimension() int { return e.dim }

// Vectorize embeds text. A vector of the wrong length is a
// core.DimensionMismatchError, which aborts the run.
func (e *Embedding) Vectorize(ctx context.Context, docID core.ID, text string) ([]core.Vector, error) {
	values, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: document %d: %w", core.ErrVectorization, docID, err)
	}

	if len(values) != e.dim {
		return nil, &core.DimensionMismatchError{Expected: e.dim, Got: len(values)}
	}

	if e.normalize {
		values = Normalize(values)
	}

	vec := core.Vector{DocumentID: docID, Values: values}
	if err := core.ValidateVector(&vec); err != nil {
		return nil, fmt.Errorf("%w: document %d: %w", core.ErrVectorization, docID, err)
	}

	e.logger.Debug("embedded document", "document", docID, "dimension", len(values))
	return []core.Vector{vec}, nil
}

// Finish returns nothing; embedding vectors are never deferred.
func (e *Embedding) Finish(ctx context.Context) ([]core.Vector, error) {
	return nil, nil
}
