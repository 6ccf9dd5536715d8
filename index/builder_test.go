package index

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/scrubdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(id core.ID, values ...float32) core.Vector {
	return core.Vector{DocumentID: id, Values: values}
}

// failingIndex rejects every append.
type failingIndex struct {
	FlatIndex
	calls int
}

func (f *failingIndex) Append(ctx context.Context, vectors []core.Vector) error {
	f.calls++
	return errors.New("disk full")
}

func TestNewBuilder_Validation(t *testing.T) {
	_, err := NewBuilder(nil, 3)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewBuilder(NewFlatIndex(), 0)
	assert.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestBuilder_FlushBoundary(t *testing.T) {
	const k = 3
	ctx := context.Background()

	tests := []struct {
		name         string
		inserts      int
		wantBuffered int
		wantFlushes  int
		wantIndexed  int
	}{
		{"below threshold", k - 1, k - 1, 0, 0},
		{"exactly threshold", k, 0, 1, k},
		{"one past threshold", k + 1, 1, 1, k},
		{"two batches", 2 * k, 0, 2, 2 * k},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewFlatIndex()
			var flushed []int
			b, err := NewBuilder(idx, k, WithFlushObserver(func(n int) { flushed = append(flushed, n) }))
			require.NoError(t, err)

			for i := range tt.inserts {
				require.NoError(t, b.Add(ctx, vec(core.ID(i+1), float32(i), 1)))
			}

			assert.Equal(t, tt.wantBuffered, b.Buffered())
			assert.Equal(t, tt.wantFlushes, b.Flushes())
			assert.Equal(t, tt.wantIndexed, idx.Len())
			assert.Len(t, flushed, tt.wantFlushes)
			assert.Equal(t, tt.inserts, b.Added())
		})
	}
}

func TestBuilder_FinalFlush(t *testing.T) {
	ctx := context.Background()
	idx := NewFlatIndex()
	b, err := NewBuilder(idx, 10)
	require.NoError(t, err)

	require.NoError(t, b.Add(ctx, vec(1, 1, 2)))
	require.NoError(t, b.Add(ctx, vec(2, 3, 4)))
	require.NoError(t, b.Flush(ctx))

	assert.Equal(t, 0, b.Buffered())
	assert.Equal(t, 1, b.Flushes())
	assert.Equal(t, 2, idx.Len())

	// Flushing an empty buffer is a no-op.
	require.NoError(t, b.Flush(ctx))
	assert.Equal(t, 1, b.Flushes())
}

func TestBuilder_DimensionMismatch(t *testing.T) {
	ctx := context.Background()

	t.Run("against buffered vectors", func(t *testing.T) {
		b, err := NewBuilder(NewFlatIndex(), 10)
		require.NoError(t, err)
		require.NoError(t, b.Add(ctx, vec(1, 1, 2, 3)))

		err = b.Add(ctx, vec(2, 1, 2))
		require.ErrorIs(t, err, core.ErrIndexDimensionMismatch)
		assert.Equal(t, 1, b.Buffered())
		assert.Equal(t, 3, b.Dimension())
	})

	t.Run("against the index", func(t *testing.T) {
		idx := NewFlatIndex()
		b, err := NewBuilder(idx, 1)
		require.NoError(t, err)
		require.NoError(t, b.Add(ctx, vec(1, 1, 2)))
		require.Equal(t, 2, idx.Dimension())

		err = b.Add(ctx, vec(2, 1, 2, 3))
		var dm *core.DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 2, dm.Expected)
		assert.Equal(t, 3, dm.Got)
		assert.Equal(t, 1, idx.Len())
	})
}

func TestBuilder_InvalidVector(t *testing.T) {
	b, err := NewBuilder(NewFlatIndex(), 2)
	require.NoError(t, err)

	err = b.Add(context.Background(), core.Vector{DocumentID: 1})
	assert.ErrorIs(t, err, core.ErrEmptyVector)
	assert.Equal(t, 0, b.Buffered())
}

func TestBuilder_FlushFailureKeepsBatch(t *testing.T) {
	ctx := context.Background()
	idx := &failingIndex{}
	b, err := NewBuilder(idx, 2)
	require.NoError(t, err)

	require.NoError(t, b.Add(ctx, vec(1, 1)))
	err = b.Add(ctx, vec(2, 2))
	require.Error(t, err)

	assert.Equal(t, 1, idx.calls)
	assert.Equal(t, 2, b.Buffered())
	assert.Equal(t, 0, b.Flushes())
}

func TestBuilder_Reset(t *testing.T) {
	ctx := context.Background()
	idx := NewFlatIndex()
	b, err := NewBuilder(idx, 2)
	require.NoError(t, err)

	for i := range 3 {
		require.NoError(t, b.Add(ctx, vec(core.ID(i), 1, 2, 3)))
	}
	require.Equal(t, 1, b.Buffered())
	require.Equal(t, 1, b.Flushes())

	require.NoError(t, b.Reset(ctx))
	assert.Equal(t, 0, b.Buffered())
	assert.Equal(t, 0, b.Flushes())
	assert.Equal(t, 0, b.Added())
	assert.Equal(t, 0, b.Dimension())
	assert.Equal(t, 0, idx.Len())

	// The old dimension no longer applies.
	require.NoError(t, b.Add(ctx, vec(9, 1)))
	assert.Equal(t, 1, b.Dimension())
}
