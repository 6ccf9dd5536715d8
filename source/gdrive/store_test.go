package gdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeDrive serves the subset of the Drive v3 REST API the store uses.
type fakeDrive struct {
	pages map[string][]map[string]any // folder id -> pages
	blobs map[string]string

	// cutAfter truncates the first download of a blob after that many bytes.
	cutAfter    map[string]int
	ignoreRange bool

	mu     sync.Mutex
	ranges []string
}

func (f *fakeDrive) rangesSeen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.ranges)
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/files"):
		q := r.URL.Query().Get("q")
		folder := strings.SplitN(strings.TrimPrefix(q, "'"), "'", 2)[0]
		pages := f.pages[folder]
		idx := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			idx = int(tok[0] - '0')
		}
		if idx >= len(pages) {
			json.NewEncoder(w).Encode(map[string]any{"files": []any{}})
			return
		}
		json.NewEncoder(w).Encode(pages[idx])
	case strings.Contains(r.URL.Path, "/files/"):
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		body, ok := f.blobs[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":404,"message":"File not found"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		if n, ok := f.cutAfter[id]; ok {
			// Declared length exceeds what is sent, so the client sees a
			// truncated body.
			delete(f.cutAfter, id)
			w.Header().Set("Content-Length", strconv.Itoa(len(body)))
			w.Write([]byte(body[:n]))
			return
		}
		rng := r.Header.Get("Range")
		f.ranges = append(f.ranges, rng)
		if rng != "" && !f.ignoreRange {
			var from int
			fmt.Sscanf(rng, "bytes=%d-", &from)
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", from, len(body)-1, len(body)))
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte(body[from:]))
			return
		}
		w.Write([]byte(body))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestStore(t *testing.T, fake *fakeDrive, opts ...Option) *Store {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), nil, []option.ClientOption{
		option.WithEndpoint(srv.URL + "/"),
		option.WithHTTPClient(srv.Client()),
	}, opts...)
	require.NoError(t, err)
	return store
}

func TestStore_ListFollowsPages(t *testing.T) {
	fake := &fakeDrive{
		pages: map[string][]map[string]any{
			"root": {
				{
					"nextPageToken": "1",
					"files": []map[string]string{
						{"id": "a", "name": "a.pdf", "mimeType": core.MIMETypePDF},
					},
				},
				{
					"files": []map[string]string{
						{"id": "sub", "name": "sub", "mimeType": core.MIMETypeContainer},
					},
				},
			},
		},
	}
	store := newTestStore(t, fake)

	entries, err := store.List(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, core.FormatPDF, entries[0].Format())
	assert.Equal(t, core.FormatContainer, entries[1].Format())
}

func TestStore_DownloadChunks(t *testing.T) {
	fake := &fakeDrive{blobs: map[string]string{"doc": "0123456789"}}
	store := newTestStore(t, fake, WithChunkSize(4))

	tr, err := store.Download(context.Background(), "doc")
	require.NoError(t, err)
	defer tr.Close()

	var got []string
	for {
		chunk, done, err := tr.NextChunk(context.Background())
		require.NoError(t, err)
		got = append(got, string(chunk))
		if done {
			break
		}
	}
	assert.Equal(t, "0123456789", strings.Join(got, ""))
	assert.Equal(t, "0123", got[0])
}

func readAll(t *testing.T, tr source.Transfer) (string, int) {
	t.Helper()
	var got strings.Builder
	failures := 0
	for range 10 {
		chunk, done, err := tr.NextChunk(context.Background())
		if err != nil {
			failures++
			continue
		}
		got.Write(chunk)
		if done {
			return got.String(), failures
		}
	}
	t.Fatal("transfer did not finish")
	return "", 0
}

func TestStore_DownloadResumes(t *testing.T) {
	tests := []struct {
		name        string
		ignoreRange bool
	}{
		{"partial content", false},
		{"range ignored", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDrive{
				blobs:       map[string]string{"doc": "0123456789"},
				cutAfter:    map[string]int{"doc": 6},
				ignoreRange: tt.ignoreRange,
			}
			store := newTestStore(t, fake, WithChunkSize(4))

			tr, err := store.Download(context.Background(), "doc")
			require.NoError(t, err)
			defer tr.Close()

			got, failures := readAll(t, tr)
			assert.Equal(t, "0123456789", got)
			assert.Equal(t, 1, failures, "the truncated body is reported, not accepted")
			assert.Equal(t, []string{"bytes=4-"}, fake.rangesSeen())
		})
	}
}

func TestStore_DownloadMissing(t *testing.T) {
	store := newTestStore(t, &fakeDrive{})

	tr, err := store.Download(context.Background(), "nope")
	require.NoError(t, err)
	defer tr.Close()

	_, _, err = tr.NextChunk(context.Background())
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestOptions_Validate(t *testing.T) {
	_, err := NewWithService(nil, WithChunkSize(0))
	assert.Error(t, err)

	_, err = NewWithService(nil, WithPageSize(5000))
	assert.Error(t, err)
}

func TestEscapeQuery(t *testing.T) {
	assert.Equal(t, `it\'s`, escapeQuery("it's"))
}
