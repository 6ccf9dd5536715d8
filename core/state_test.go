package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from DocumentState
		to   DocumentState
		want bool
	}{
		{"discovered to downloading", StateDiscovered, StateDownloading, true},
		{"downloading to extracting", StateDownloading, StateExtracting, true},
		{"extracting to redacting", StateExtracting, StateRedacting, true},
		{"redacting to vectorizing", StateRedacting, StateVectorizing, true},
		{"vectorizing to indexed", StateVectorizing, StateIndexed, true},
		{"skip a state", StateDiscovered, StateExtracting, false},
		{"backwards", StateRedacting, StateExtracting, false},
		{"fail from discovered", StateDiscovered, StateFailed, true},
		{"fail from vectorizing", StateVectorizing, StateFailed, true},
		{"indexed is terminal", StateIndexed, StateFailed, false},
		{"failed is terminal", StateFailed, StateDownloading, false},
		{"unknown state", DocumentState(42), StateFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestDocumentRecord_Lifecycle(t *testing.T) {
	rec := NewDocumentRecord(Document{ID: 7, SourceID: "x", Format: FormatPDF})
	require.Equal(t, StateDiscovered, rec.State)

	for _, s := range []DocumentState{StateDownloading, StateExtracting, StateRedacting, StateVectorizing, StateIndexed} {
		require.NoError(t, rec.Advance(s))
	}
	assert.Equal(t, StateIndexed, rec.State)

	err := rec.Fail(errors.New("late"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDocumentRecord_Fail(t *testing.T) {
	rec := NewDocumentRecord(Document{ID: 7, SourceID: "x", Format: FormatWordProcessing})
	require.NoError(t, rec.Advance(StateDownloading))
	require.NoError(t, rec.Fail(ErrTransfer))

	assert.Equal(t, StateFailed, rec.State)
	assert.Equal(t, ErrTransfer.Error(), rec.Error)
}

func TestParseDocumentState(t *testing.T) {
	for s := StateDiscovered; s <= StateFailed; s++ {
		got, err := ParseDocumentState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseDocumentState("bogus")
	assert.ErrorIs(t, err, ErrInvalidState)
}
