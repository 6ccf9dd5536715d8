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
	"slices"
	"sync"

	"github.com/poiesic/scrubdex/core"
)

// FlatIndex keeps vectors in memory and answers queries by exhaustive scan.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors []core.Vector
}

var _ SearchIndex = (*FlatIndex)(nil)

// NewFlatIndex creates an empty FlatIndex.
func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

// Append adds vectors atomically.
func (f *FlatIndex) Append(ctx context.Context, vectors []core.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dim, err := CheckBatch(f.dim, vectors)
	if err != nil {
		return err
	}
	for _, v := range vectors {
		f.vectors = append(f.vectors, core.Vector{
			DocumentID: v.DocumentID,
			Values:     slices.Clone(v.Values),
		})
	}
	f.dim = dim
	return nil
}

// Search returns the exact k nearest neighbors.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]core.Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidQuery
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.dim == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, &core.DimensionMismatchError{Expected: f.dim, Got: len(query)}
	}

	results := make([]core.Neighbor, 0, len(f.vectors))
	for _, v := range f.vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, core.Neighbor{DocumentID: v.DocumentID, Distance: L2(query, v.Values)})
	}
	SortNeighbors(results)

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Dimension returns the fixed vector length, or 0 while empty.
func (f *FlatIndex) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dim
}

// Len returns the number of stored vectors.
func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Reset drops every vector.
func (f *FlatIndex) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = nil
	f.dim = 0
	return nil
}
