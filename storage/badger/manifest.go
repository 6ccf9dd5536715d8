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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/storage"
)

// ManifestRepository implements storage.ManifestRepository for BadgerDB.
type ManifestRepository struct {
	backend *Backend
}

var _ storage.ManifestRepository = (*ManifestRepository)(nil)

// NewManifestRepository creates a new ManifestRepository.
func NewManifestRepository(backend *Backend) *ManifestRepository {
	return &ManifestRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend is owned by the caller.
func (r *ManifestRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ManifestRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveDocumentRecord persists the record, replacing any earlier version.
func (r *ManifestRepository) SaveDocumentRecord(ctx context.Context, record *core.DocumentRecord) error {
	if err := core.ValidateDocumentRecord(record); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		record.UpdatedAt = time.Now().UTC()
		key := makeDocumentRecordKey(record.Id)
		if err := tx.Set(key, storage.MarshalDocumentRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocumentRecord retrieves a record by document ID.
func (r *ManifestRepository) GetDocumentRecord(ctx context.Context, id core.ID) (*core.DocumentRecord, error) {
	var record *core.DocumentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = readValue(tx, makeDocumentRecordKey(id), storage.UnmarshalDocumentRecord)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListDocumentRecords returns records in document-ID order, keeping only
// the requested states when any are given.
func (r *ManifestRepository) ListDocumentRecords(ctx context.Context, states ...core.DocumentState) ([]*core.DocumentRecord, error) {
	wanted := make(map[core.DocumentState]bool, len(states))
	for _, s := range states {
		wanted[s] = true
	}

	var records []*core.DocumentRecord
	err := r.scan(ctx, func(record *core.DocumentRecord) {
		if len(wanted) == 0 || wanted[record.State] {
			records = append(records, record)
		}
	})
	return records, err
}

// CountByState tallies records per state.
func (r *ManifestRepository) CountByState(ctx context.Context) (map[core.DocumentState]int, error) {
	counts := make(map[core.DocumentState]int)
	err := r.scan(ctx, func(record *core.DocumentRecord) {
		counts[record.State]++
	})
	return counts, err
}

func (r *ManifestRepository) scan(ctx context.Context, fn func(*core.DocumentRecord)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefixOf(documentRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record *core.DocumentRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalDocumentRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			fn(record)
		}
		return nil
	}, false)
}
