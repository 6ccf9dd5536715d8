package storage

import (
	"context"

	"github.com/poiesic/scrubdex/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// ManifestRepository records the per-document outcome of ingestion runs.
type ManifestRepository interface {
	Repository

	// SaveDocumentRecord inserts or replaces the record keyed by its Id.
	// Sets UpdatedAt automatically.
	SaveDocumentRecord(ctx context.Context, record *core.DocumentRecord) error

	// GetDocumentRecord retrieves a record by document ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetDocumentRecord(ctx context.Context, id core.ID) (*core.DocumentRecord, error)

	// ListDocumentRecords returns every record, optionally restricted to
	// the given states, ordered by document ID.
	ListDocumentRecords(ctx context.Context, states ...core.DocumentState) ([]*core.DocumentRecord, error)

	// CountByState tallies records per state.
	CountByState(ctx context.Context) (map[core.DocumentState]int, error)
}

// VectorRepository is a persistent, append-only L2 search index.
type VectorRepository interface {
	Repository

	// Append stores all vectors in one transaction or none of them.
	// Returns a *core.DimensionMismatchError if any vector's length
	// differs from the stored dimension.
	Append(ctx context.Context, vectors []core.Vector) error

	// Search returns up to k vectors closest to query by L2 distance.
	Search(ctx context.Context, query []float32, k int) ([]core.Neighbor, error)

	// Dimension returns the fixed vector length, or 0 while empty.
	Dimension() int

	// Len returns the number of stored vectors.
	Len() int

	// Reset deletes every stored vector and the stored dimension.
	Reset(ctx context.Context) error
}
