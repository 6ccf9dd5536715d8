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

package badger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/index"
	"github.com/poiesic/scrubdex/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
// Vectors are stored under a monotonically increasing sequence; the
// dimension is fixed by the first successful Append.
type VectorRepository struct {
	backend *Backend
	idSeq   *badger.Sequence

	mu        sync.RWMutex
	dimension int
	count     int
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a VectorRepository and loads the stored
// dimension and vector count.
func NewVectorRepository(backend *Backend) (*VectorRepository, error) {
	idSeq, err := backend.GetSequence(vectorIDSeq)
	if err != nil {
		return nil, err
	}

	r := &VectorRepository{
		backend: backend,
		idSeq:   idSeq,
	}
	if err := r.load(); err != nil {
		idSeq.Release()
		return nil, err
	}
	return r, nil
}

func (r *VectorRepository) load() error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		dim, err := readValue(tx, []byte(vectorDimensionKey), storage.UnmarshalID)
		switch {
		case err == storage.ErrNotFound:
			return nil
		case err != nil:
			return err
		}
		r.dimension = int(dim)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixOf(vectorRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			r.count++
		}
		return nil
	}, false)
}

// Close releases the ID sequence.
func (r *VectorRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *VectorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Dimension returns the fixed vector length, or 0 while empty.
func (r *VectorRepository) Dimension() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dimension
}

// Len returns the number of stored vectors.
func (r *VectorRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Append writes every vector in a single transaction. Nothing is written
// if any vector is invalid or has the wrong length.
func (r *VectorRepository) Append(ctx context.Context, vectors []core.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dim, err := index.CheckBatch(r.dimension, vectors)
	if err != nil {
		return err
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if r.dimension == 0 {
			if err := tx.Set([]byte(vectorDimensionKey), storage.MarshalID(core.ID(dim))); err != nil {
				return err
			}
		}
		for i := range vectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			seq, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if seq == 0 {
				seq, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			if err := tx.Set(makeVectorKey(seq), storage.MarshalVector(&vectors[i])); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("append %d vectors: %w", len(vectors), err)
	}

	r.dimension = dim
	r.count += len(vectors)
	return nil
}

// Search scans all stored vectors and returns the k nearest by L2 distance.
func (r *VectorRepository) Search(ctx context.Context, query []float32, k int) ([]core.Neighbor, error) {
	if k <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	dim := r.Dimension()
	if dim == 0 {
		return nil, nil
	}
	if len(query) != dim {
		return nil, &core.DimensionMismatchError{Expected: dim, Got: len(query)}
	}

	var results []core.Neighbor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixOf(vectorRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var vec *core.Vector
			err := iter.Item().Value(func(val []byte) error {
				var err error
				vec, err = storage.UnmarshalVector(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(vec.Values) != dim {
				return fmt.Errorf("%w: vector of document %d has %d values, index dimension is %d",
					storage.ErrCorruptIndex, vec.DocumentID, len(vec.Values), dim)
			}
			results = append(results, core.Neighbor{
				DocumentID: vec.DocumentID,
				Distance:   index.L2(query, vec.Values),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	index.SortNeighbors(results)

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Reset deletes every stored vector and the dimension, so the next Append
// fixes a new one.
func (r *VectorRepository) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backend.DropPrefix(prefixOf(vectorRecordPrefix), []byte(vectorDimensionKey)); err != nil {
		return fmt.Errorf("reset vectors: %w", err)
	}
	r.dimension = 0
	r.count = 0
	return nil
}
