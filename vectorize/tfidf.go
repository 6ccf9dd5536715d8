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

package vectorize

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/poiesic/scrubdex/core"
)

// termCounts holds the raw term frequencies of one fitting unit.
type termCounts struct {
	id     core.ID
	counts map[string]int
}

// TFIDF is the corpus-statistical strategy. Each document is one fitting
// unit; vectors have one component per vocabulary term, in sorted term order.
type TFIDF struct {
	analyzer analysis.Analyzer
	logger   *slog.Logger

	mu       sync.Mutex
	units    []termCounts
	df       map[string]int
	dim      int
	finished bool
}

// TFIDFOption configures a TFIDF vectorizer.
type TFIDFOption func(*TFIDF) error

// PlainAnalyzer splits on unicode word boundaries and lowercases. It keeps
// stop words, so every document with a word in it has at least one term.
const PlainAnalyzer = "plain"

// analyzerMapping returns a mapping with PlainAnalyzer defined next to
// bleve's registered analyzers.
func analyzerMapping() (*mapping.IndexMappingImpl, error) {
	m := mapping.NewIndexMapping()
	err := m.AddCustomAnalyzer(PlainAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("define %s analyzer: %w", PlainAnalyzer, err)
	}
	return m, nil
}

// WithAnalyzer selects PlainAnalyzer or a registered bleve analyzer by name.
func WithAnalyzer(name string) TFIDFOption {
	return func(t *TFIDF) error {
		m, err := analyzerMapping()
		if err != nil {
			return err
		}
		a := m.AnalyzerNamed(name)
		if a == nil {
			return fmt.Errorf("%w: %s", ErrUnknownAnalyzer, name)
		}
		t.analyzer = a
		return nil
	}
}

// WithTFIDFLogger sets the logger.
func WithTFIDFLogger(logger *slog.Logger) TFIDFOption {
	return func(t *TFIDF) error {
		t.logger = logger
		return nil
	}
}

// NewTFIDF creates a TFIDF vectorizer using PlainAnalyzer unless
// WithAnalyzer says otherwise.
func NewTFIDF(opts ...TFIDFOption) (*TFIDF, error) {
	t := &TFIDF{
		df:     make(map[string]int),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	if t.analyzer == nil {
		if err := WithAnalyzer(PlainAnalyzer)(t); err != nil {
			return nil, err
		}
	}
	t.logger = t.logger.With("component", "tfidf")
	return t, nil
}

// Name returns StrategyTFIDF.
func (t *TFIDF) Name() string { return StrategyTFIDF }

// Dimension is the vocabulary size after Finish, 0 before.
func (t *TFIDF) Dimension() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dim
}

// Documents returns the number of fitting units accumulated so far.
func (t *TFIDF) Documents() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.units)
}

// Vectorize tokenizes text and records its term counts. It always returns
// no vectors; they are produced by Finish.
func (t *TFIDF) Vectorize(ctx context.Context, docID core.ID, text string) ([]core.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, tok := range t.analyzer.Analyze([]byte(text)) {
		counts[string(tok.Term)]++
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: document %d has no terms", core.ErrVectorization, docID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return nil, ErrFinished
	}
	for term := range counts {
		t.df[term]++
	}
	t.units = append(t.units, termCounts{id: docID, counts: counts})
	return nil, nil
}

// Finish fits the vocabulary and emits one L2-normalized vector per
// document, in the order documents were given. Term weight is the raw
// count times the smoothed inverse document frequency ln((1+n)/(1+df))+1.
func (t *TFIDF) Finish(ctx context.Context) ([]core.Vector, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return nil, ErrFinished
	}
	t.finished = true

	if len(t.units) == 0 {
		return nil, nil
	}

	vocab := make([]string, 0, len(t.df))
	for term := range t.df {
		vocab = append(vocab, term)
	}
	slices.Sort(vocab)

	n := float64(len(t.units))
	column := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		column[term] = i
		idf[i] = math.Log((1+n)/(1+float64(t.df[term]))) + 1
	}
	t.dim = len(vocab)

	vectors := make([]core.Vector, 0, len(t.units))
	row := make([]float64, len(vocab))
	for _, unit := range t.units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clear(row)
		for term, c := range unit.counts {
			j := column[term]
			row[j] = float64(c) * idf[j]
		}
		normalize64(row)

		values := make([]float32, len(row))
		for j, w := range row {
			values[j] = float32(w)
		}
		vectors = append(vectors, core.Vector{DocumentID: unit.id, Values: values})
	}

	t.logger.Info("fitted vocabulary", "documents", len(t.units), "terms", t.dim)
	t.units = nil
	t.df = nil
	return vectors, nil
}
