package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_Truncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	sink, err := OpenFileSink(path, false)
	require.NoError(t, err)
	require.NoError(t, sink.Write("first"))
	require.NoError(t, sink.Write(""))
	require.NoError(t, sink.Write("line one\nline two"))
	assert.Equal(t, 3, sink.Written())
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\n\nline one\nline two\n", string(data))
}

func TestFileSink_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("kept\n"), 0o644))

	sink, err := OpenFileSink(path, true)
	require.NoError(t, err)
	require.NoError(t, sink.Write("added"))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "kept\nadded\n", string(data))
}

func TestFileSink_Closed(t *testing.T) {
	sink, err := OpenFileSink(filepath.Join(t.TempDir(), "out.txt"), false)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close(), "second close is a no-op")

	assert.ErrorIs(t, sink.Write("late"), ErrSink)
}

func TestFileSink_OpenError(t *testing.T) {
	_, err := OpenFileSink(filepath.Join(t.TempDir(), "missing", "out.txt"), false)
	assert.ErrorIs(t, err, ErrSink)
}
