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

	"github.com/coder/hnsw"
	"github.com/poiesic/scrubdex/core"
)

// Default HNSW graph parameters.
const (
	DefaultM        = 16
	DefaultEfSearch = 20
)

// HNSWIndex is an approximate index backed by an in-memory HNSW graph
// using Euclidean distance. Nodes are keyed by insertion order so that
// a document can contribute more than one vector.
type HNSWIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	docs  []core.ID
	dim   int
}

var _ SearchIndex = (*HNSWIndex)(nil)

// HNSWOption configures an HNSWIndex.
type HNSWOption func(*HNSWIndex)

// WithM sets the maximum number of neighbors per node.
func WithM(m int) HNSWOption {
	return func(h *HNSWIndex) {
		if m > 0 {
			h.graph.M = m
		}
	}
}

// WithEfSearch sets the candidate list size used while searching.
func WithEfSearch(ef int) HNSWOption {
	return func(h *HNSWIndex) {
		if ef > 0 {
			h.graph.EfSearch = ef
		}
	}
}

// NewHNSWIndex creates an empty HNSWIndex.
func NewHNSWIndex(opts ...HNSWOption) *HNSWIndex {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.EuclideanDistance
	graph.M = DefaultM
	graph.EfSearch = DefaultEfSearch

	h := &HNSWIndex{graph: graph}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Append validates the whole batch before inserting any node.
func (h *HNSWIndex) Append(ctx context.Context, vectors []core.Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	dim, err := CheckBatch(h.dim, vectors)
	if err != nil {
		return err
	}
	for _, v := range vectors {
		key := uint64(len(h.docs))
		h.graph.Add(hnsw.MakeNode(key, slices.Clone(v.Values)))
		h.docs = append(h.docs, v.DocumentID)
	}
	h.dim = dim
	return nil
}

// Search returns up to k approximate nearest neighbors.
func (h *HNSWIndex) Search(ctx context.Context, query []float32, k int) ([]core.Neighbor, error) {
	if k <= 0 {
		return nil, ErrInvalidQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph.Len() == 0 {
		return nil, nil
	}
	if len(query) != h.dim {
		return nil, &core.DimensionMismatchError{Expected: h.dim, Got: len(query)}
	}

	nodes := h.graph.Search(query, k)
	results := make([]core.Neighbor, 0, len(nodes))
	for _, node := range nodes {
		results = append(results, core.Neighbor{
			DocumentID: h.docs[node.Key],
			Distance:   h.graph.Distance(query, node.Value),
		})
	}
	SortNeighbors(results)
	return results, nil
}

// Dimension returns the fixed vector length, or 0 while empty.
func (h *HNSWIndex) Dimension() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dim
}

// Len returns the number of stored vectors.
func (h *HNSWIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.docs)
}

// Reset replaces the graph with an empty one using the same parameters.
func (h *HNSWIndex) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = h.graph.Distance
	graph.M = h.graph.M
	graph.EfSearch = h.graph.EfSearch
	h.graph = graph
	h.docs = nil
	h.dim = 0
	return nil
}
