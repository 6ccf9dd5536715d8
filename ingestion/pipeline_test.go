package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	aimock "github.com/poiesic/scrubdex/ai/mock"
	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/extract"
	"github.com/poiesic/scrubdex/index"
	"github.com/poiesic/scrubdex/redact"
	storemock "github.com/poiesic/scrubdex/source/mock"
	"github.com/poiesic/scrubdex/storage/badger"
	"github.com/poiesic/scrubdex/vectorize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageDecoder treats form feeds as page breaks, standing in for a PDF parser.
type pageDecoder struct{}

func (pageDecoder) Segments(doc core.Document, data []byte) iter.Seq2[core.Segment, error] {
	return func(yield func(core.Segment, error) bool) {
		for i, page := range strings.Split(string(data), "\f") {
			if strings.TrimSpace(page) == "" {
				continue
			}
			if !yield(core.Segment{DocumentID: doc.ID, Index: i, Text: page}, nil) {
				return
			}
		}
	}
}

// buildDocx assembles a minimal word-processing package from paragraph texts.
func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		if p == "" {
			body.WriteString(`<w:p/>`)
			continue
		}
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`<w:sectPr/></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// scenarioStore is root R holding PDF P and container S, which holds W.
func scenarioStore(t *testing.T) *storemock.Store {
	store := storemock.NewStore()
	store.AddContainer("", "R", "root")
	store.AddDocument("R", "P", "contact.pdf", core.MIMETypePDF,
		[]byte("Contact John at john@x.com, phone 5551234567"))
	store.AddContainer("R", "S", "sub")
	store.AddDocument("S", "W", "employment.docx", core.MIMETypeWordProcessing,
		buildDocx(t, "", "Works at Acme Corp."))
	return store
}

type fixture struct {
	store    *storemock.Store
	index    *index.FlatIndex
	builder  *index.Builder
	manifest *badger.ManifestRepository
	sinkPath string
	pipeline *Pipeline
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	vectorizer vectorize.Vectorizer
	threshold  int
	appendSink bool
	index      *index.FlatIndex
}

func withVectorizer(v vectorize.Vectorizer) fixtureOption {
	return func(c *fixtureConfig) { c.vectorizer = v }
}

func withThreshold(k int) fixtureOption {
	return func(c *fixtureConfig) { c.threshold = k }
}

func withAppend() fixtureOption {
	return func(c *fixtureConfig) { c.appendSink = true }
}

func withIndex(idx *index.FlatIndex) fixtureOption {
	return func(c *fixtureConfig) { c.index = idx }
}

func newFixture(t *testing.T, store *storemock.Store, opts ...fixtureOption) *fixture {
	t.Helper()

	cfg := fixtureConfig{threshold: 10, index: index.NewFlatIndex()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.vectorizer == nil {
		v, err := vectorize.NewEmbedding(aimock.NewMockEmbedderWithDimension(8), 8)
		require.NoError(t, err)
		cfg.vectorizer = v
	}

	manifest, vectors, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		vectors.Close()
		backend.Close()
	})

	extractor, err := extract.New(store,
		extract.WithDecoder(core.FormatPDF, pageDecoder{}),
		extract.WithBackoff(extract.Backoff{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}))
	require.NoError(t, err)

	names, err := redact.NewDictionaryNameRedactor(redact.DefaultNames)
	require.NoError(t, err)
	redactor, err := redact.New(names)
	require.NoError(t, err)

	builder, err := index.NewBuilder(cfg.index, cfg.threshold)
	require.NoError(t, err)

	sinkPath := filepath.Join(t.TempDir(), "cleaned.txt")
	p, err := NewPipeline(store, extractor, redactor, cfg.vectorizer, builder,
		WithManifest(manifest),
		WithSink(sinkPath, cfg.appendSink))
	require.NoError(t, err)
	t.Cleanup(p.Release)

	return &fixture{
		store:    store,
		index:    cfg.index,
		builder:  builder,
		manifest: manifest,
		sinkPath: sinkPath,
		pipeline: p,
	}
}

func (f *fixture) sink(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.sinkPath)
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) record(t *testing.T, sourceID string) *core.DocumentRecord {
	t.Helper()
	rec, err := f.manifest.GetDocumentRecord(context.Background(), core.IDFromContent(sourceID))
	require.NoError(t, err)
	return rec
}

func TestNewPipeline_Validation(t *testing.T) {
	_, err := NewPipeline(nil, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewPipeline(storemock.NewStore(), nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrExtractorRequired)
}

func TestPipeline_Scenario(t *testing.T) {
	f := newFixture(t, scenarioStore(t), withThreshold(1))

	report, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, "Contact [NAME] at [EMAIL], phone [PHONE]\n\nWorks at [COMPANY]\n", f.sink(t))

	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, report.Vectors)
	assert.Equal(t, 2, report.Flushes)
	assert.Equal(t, 8, report.Dimension)
	assert.Equal(t, 2, f.index.Len())

	for _, id := range []string{"P", "W"} {
		rec := f.record(t, id)
		assert.Equal(t, core.StateIndexed, rec.State, id)
		assert.Equal(t, 1, rec.Vectors, id)
	}
	assert.Equal(t, 2, f.record(t, "W").Segments)
}

func TestPipeline_TFIDF(t *testing.T) {
	tfidf, err := vectorize.NewTFIDF()
	require.NoError(t, err)
	f := newFixture(t, scenarioStore(t), withVectorizer(tfidf), withThreshold(10))

	report, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 2, report.Vectors)
	assert.Equal(t, 1, report.Flushes)
	assert.Equal(t, tfidf.Dimension(), report.Dimension)
	assert.Positive(t, report.Dimension)
	assert.Equal(t, 2, f.index.Len())
	assert.Equal(t, core.StateIndexed, f.record(t, "P").State)
	assert.Equal(t, core.StateIndexed, f.record(t, "W").State)
}

func TestPipeline_BatchBoundary(t *testing.T) {
	const k = 3
	tests := []struct {
		name         string
		documents    int
		wantFlushes  int
		wantIndexLen int
	}{
		{"exactly K", k, 1, k},
		{"K plus one", k + 1, 2, k + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storemock.NewStore()
			store.AddContainer("", "R", "root")
			for i := range tt.documents {
				id := string(rune('a' + i))
				store.AddDocument("R", id, id+".pdf", core.MIMETypePDF, []byte("page text "+id))
			}
			f := newFixture(t, store, withThreshold(k))

			report, err := f.pipeline.Run(context.Background(), "R")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlushes, report.Flushes)
			assert.Equal(t, tt.wantIndexLen, f.index.Len())
			assert.Equal(t, 0, f.builder.Buffered())
		})
	}
}

func TestPipeline_PerDocumentFailures(t *testing.T) {
	store := scenarioStore(t)
	store.AddDocument("R", "broken", "broken.docx", core.MIMETypeWordProcessing, []byte("not a zip"))
	store.AddDocument("R", "flaky", "flaky.pdf", core.MIMETypePDF, []byte("never arrives"))
	store.FailChunks["flaky"] = 100
	store.AddDocument("R", "last", "last.pdf", core.MIMETypePDF, []byte("Jane wrote this"))

	f := newFixture(t, store)
	report, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, 5, report.Discovered)
	assert.Equal(t, 3, report.Indexed)
	assert.Equal(t, 2, report.Failed)

	broken := f.record(t, "broken")
	assert.Equal(t, core.StateFailed, broken.State)
	assert.Contains(t, broken.Error, core.ErrExtraction.Error())

	flaky := f.record(t, "flaky")
	assert.Equal(t, core.StateFailed, flaky.State)
	assert.Contains(t, flaky.Error, core.ErrTransfer.Error())

	sink := f.sink(t)
	assert.NotContains(t, sink, "never arrives")
	assert.True(t, strings.HasSuffix(sink, "[NAME] wrote this\n"))
}

func TestPipeline_UnsupportedIsNotFailure(t *testing.T) {
	store := scenarioStore(t)
	store.AddDocument("R", "img", "photo.png", "image/png", []byte{0x89})

	f := newFixture(t, store)
	report, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Discovered)
	assert.Equal(t, 0, report.Failed)
	_, err = f.manifest.GetDocumentRecord(context.Background(), core.IDFromContent("img"))
	assert.Error(t, err)
}

func TestPipeline_EmptyDocument(t *testing.T) {
	store := storemock.NewStore()
	store.AddContainer("", "R", "root")
	store.AddDocument("R", "blank", "blank.docx", core.MIMETypeWordProcessing, buildDocx(t, "", ""))

	f := newFixture(t, store)
	report, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Empty)
	assert.Equal(t, 0, report.Vectors)
	assert.Equal(t, 0, f.index.Len())
	assert.Equal(t, "\n\n", f.sink(t))

	rec := f.record(t, "blank")
	assert.Equal(t, core.StateIndexed, rec.State)
	assert.Equal(t, 0, rec.Vectors)
}

func TestPipeline_VectorizationFailureWritesNothing(t *testing.T) {
	store := storemock.NewStore()
	store.AddContainer("", "R", "root")
	store.AddDocument("R", "stop", "stop.pdf", core.MIMETypePDF, []byte("... -- !!"))
	store.AddDocument("R", "real", "real.pdf", core.MIMETypePDF, []byte("quarterly figures"))

	tfidf, err := vectorize.NewTFIDF()
	require.NoError(t, err)
	f := newFixture(t, store, withVectorizer(tfidf))

	report, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, "quarterly figures\n", f.sink(t))
	assert.Equal(t, core.StateFailed, f.record(t, "stop").State)
}

func TestPipeline_StopWordsAreIndexed(t *testing.T) {
	store := storemock.NewStore()
	store.AddContainer("", "R", "root")
	store.AddDocument("R", "P", "hamlet.pdf", core.MIMETypePDF, []byte("To be or not to be"))

	tfidf, err := vectorize.NewTFIDF()
	require.NoError(t, err)
	f := newFixture(t, store, withVectorizer(tfidf))

	report, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, "To be or not to be\n", f.sink(t))
	assert.Equal(t, 1, f.index.Len())
	assert.Equal(t, core.StateIndexed, f.record(t, "P").State)
}

func TestPipeline_ListingErrors(t *testing.T) {
	t.Run("nested", func(t *testing.T) {
		store := scenarioStore(t)
		store.FailList["S"] = errors.New("permission denied")

		f := newFixture(t, store)
		report, err := f.pipeline.Run(context.Background(), "R")
		require.NoError(t, err)
		assert.Equal(t, 1, report.ListingErrors)
		assert.Equal(t, 1, report.Indexed)
	})

	t.Run("root", func(t *testing.T) {
		store := scenarioStore(t)
		store.FailList["R"] = errors.New("quota exceeded")

		f := newFixture(t, store)
		report, err := f.pipeline.Run(context.Background(), "R")
		require.ErrorIs(t, err, core.ErrListing)
		assert.Equal(t, 0, report.Discovered)
	})
}

func TestPipeline_DimensionMismatchIsFatal(t *testing.T) {
	t.Run("embedder disagrees with configuration", func(t *testing.T) {
		v, err := vectorize.NewEmbedding(aimock.NewMockEmbedderWithDimension(4), 8)
		require.NoError(t, err)
		f := newFixture(t, scenarioStore(t), withVectorizer(v))

		report, err := f.pipeline.Run(context.Background(), "R")
		require.ErrorIs(t, err, core.ErrIndexDimensionMismatch)
		assert.Equal(t, 1, report.Discovered, "run stops at the first document")
		assert.Empty(t, f.sink(t))
	})

	t.Run("index already holds another dimension", func(t *testing.T) {
		idx := index.NewFlatIndex()
		require.NoError(t, idx.Append(context.Background(), []core.Vector{{DocumentID: 1, Values: []float32{1, 2, 3}}}))
		f := newFixture(t, scenarioStore(t), withIndex(idx), withAppend())

		_, err := f.pipeline.Run(context.Background(), "R")
		var dm *core.DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 8, dm.Got)
		assert.Equal(t, 1, idx.Len())
		assert.Empty(t, f.sink(t), "the rejected document is not written")
	})
}

func TestPipeline_AppendSink(t *testing.T) {
	f := newFixture(t, scenarioStore(t), withAppend())
	require.NoError(t, os.WriteFile(f.sinkPath, []byte("previous run\n"), 0o644))

	_, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.sink(t), "previous run\nContact [NAME]"))
}

func TestPipeline_TruncateStartsFromEmptyIndex(t *testing.T) {
	ctx := context.Background()
	idx := index.NewFlatIndex()
	require.NoError(t, idx.Append(ctx, []core.Vector{{DocumentID: 1, Values: []float32{1, 2, 3}}}))
	f := newFixture(t, scenarioStore(t), withIndex(idx), withThreshold(1))

	for range 2 {
		report, err := f.pipeline.Run(ctx, "R")
		require.NoError(t, err)
		assert.Equal(t, 2, report.Indexed)
		assert.Equal(t, 2, report.Flushes)
		assert.Equal(t, 8, report.Dimension)
		assert.Equal(t, 2, idx.Len(), "index holds what the sink holds")
	}
	assert.Equal(t, "Contact [NAME] at [EMAIL], phone [PHONE]\n\nWorks at [COMPANY]\n", f.sink(t))
}

func TestPipeline_TFIDFRunsDoNotMix(t *testing.T) {
	ctx := context.Background()
	idx := index.NewFlatIndex()

	runs := []struct {
		text    string
		wantDim int
	}{
		{"alpha beta gamma", 3},
		{"delta epsilon zeta", 3},
		{"one two", 2},
	}
	for _, run := range runs {
		store := storemock.NewStore()
		store.AddContainer("", "R", "root")
		store.AddDocument("R", "P", "p.pdf", core.MIMETypePDF, []byte(run.text))
		tfidf, err := vectorize.NewTFIDF()
		require.NoError(t, err)
		f := newFixture(t, store, withVectorizer(tfidf), withIndex(idx))

		report, err := f.pipeline.Run(ctx, "R")
		require.NoError(t, err, run.text)
		assert.Equal(t, 1, report.Indexed)
		assert.Equal(t, 1, idx.Len(), run.text)
		assert.Equal(t, run.wantDim, idx.Dimension(), run.text)
		assert.Equal(t, run.text+"\n", f.sink(t))
	}
}

func TestPipeline_TFIDFAppendRejected(t *testing.T) {
	idx := index.NewFlatIndex()
	require.NoError(t, idx.Append(context.Background(), []core.Vector{{DocumentID: 1, Values: []float32{1, 0}}}))

	tfidf, err := vectorize.NewTFIDF()
	require.NoError(t, err)
	f := newFixture(t, scenarioStore(t), withVectorizer(tfidf), withIndex(idx), withAppend())
	require.NoError(t, os.WriteFile(f.sinkPath, []byte("previous run\n"), 0o644))

	_, err = f.pipeline.Run(context.Background(), "R")
	require.ErrorIs(t, err, ErrIndexNotEmpty)
	assert.Equal(t, "previous run\n", f.sink(t))
	assert.Equal(t, 1, idx.Len())
}

func TestPipeline_SegmentsRedactedAsPulled(t *testing.T) {
	store := storemock.NewStore()
	store.AddContainer("", "R", "root")
	store.AddDocument("R", "P", "p.pdf", core.MIMETypePDF, []byte("mail jane@x.com\fcall 5551234567\f \fJohn"))

	f := newFixture(t, store)
	report, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, "mail [EMAIL]\ncall [PHONE]\n[NAME]\n", f.sink(t))

	rec := f.record(t, "P")
	assert.Equal(t, 3, rec.Segments)
	assert.Equal(t, core.StateIndexed, rec.State)
}

func TestPipeline_RootRequired(t *testing.T) {
	f := newFixture(t, scenarioStore(t))

	_, err := f.pipeline.Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrRootRequired)

	_, err = f.pipeline.Start(context.Background(), "")
	assert.ErrorIs(t, err, ErrRootRequired)
}

func TestPipeline_StartAndWait(t *testing.T) {
	f := newFixture(t, scenarioStore(t))

	task, err := f.pipeline.Start(context.Background(), "R")
	require.NoError(t, err)

	report, err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)

	select {
	case <-task.Done():
	default:
		t.Fatal("Done should be closed after Wait returns")
	}

	// The worker is free again.
	task, err = f.pipeline.Start(context.Background(), "R")
	require.NoError(t, err)
	_, err = task.Wait()
	require.NoError(t, err)
}

func TestPipeline_CancelTask(t *testing.T) {
	started := make(chan struct{})
	emb := aimock.NewMockEmbedderWithDimension(8)
	emb.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	v, err := vectorize.NewEmbedding(emb, 8)
	require.NoError(t, err)
	f := newFixture(t, scenarioStore(t), withVectorizer(v))

	task, err := f.pipeline.Start(context.Background(), "R")
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not reach the vectorizer")
	}

	_, err = f.pipeline.Start(context.Background(), "R")
	assert.ErrorIs(t, err, ErrRunInProgress)
	_, err = f.pipeline.Run(context.Background(), "R")
	assert.ErrorIs(t, err, ErrRunInProgress)

	task.Cancel()
	report, err := task.Wait()
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, report.Indexed)
	assert.Equal(t, core.StateVectorizing, f.record(t, "P").State)
}

func TestPipeline_Progress(t *testing.T) {
	var buf bytes.Buffer
	f := newFixture(t, scenarioStore(t))
	require.NoError(t, WithProgress(&buf, 1)(f.pipeline))

	_, err := f.pipeline.Run(context.Background(), "R")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Progress: 2 documents (2 ok, 0 failed)")
}
