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
	"math"
	"slices"

	"github.com/poiesic/scrubdex/core"
)

// SearchIndex is an append-only vector index.
// Implementations must be safe for concurrent use.
type SearchIndex interface {
	// Append adds every vector or none of them. A vector whose length
	// differs from the index dimension yields a *core.DimensionMismatchError.
	Append(ctx context.Context, vectors []core.Vector) error

	// Search returns up to k stored vectors nearest to query by L2 distance,
	// closest first.
	Search(ctx context.Context, query []float32, k int) ([]core.Neighbor, error)

	// Dimension returns the fixed vector length, or 0 before the first append.
	Dimension() int

	// Len returns the number of stored vectors.
	Len() int

	// Reset removes every vector and clears the dimension.
	Reset(ctx context.Context) error
}

// CheckBatch validates vectors against dim, or against the first vector
// when dim is 0. It returns the dimension the batch establishes.
func CheckBatch(dim int, vectors []core.Vector) (int, error) {
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0].Values)
	}
	for i := range vectors {
		if err := core.ValidateVector(&vectors[i]); err != nil {
			return 0, err
		}
		if len(vectors[i].Values) != dim {
			return 0, &core.DimensionMismatchError{Expected: dim, Got: len(vectors[i].Values)}
		}
	}
	return dim, nil
}

// L2 returns the Euclidean distance between equal-length vectors.
func L2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

// SortNeighbors orders ns by ascending distance, keeping insertion order
// among ties.
func SortNeighbors(ns []core.Neighbor) {
	slices.SortStableFunc(ns, func(a, b core.Neighbor) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
}
