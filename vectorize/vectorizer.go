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
	"strings"

	"github.com/poiesic/scrubdex/core"
)

// Strategy names accepted by ParseStrategy.
const (
	StrategyTFIDF     = "tfidf"
	StrategyEmbedding = "embedding"
)

// Vectorizer converts sanitized text into vectors.
// Implementations are not required to be safe for concurrent use.
type Vectorizer interface {
	// Vectorize consumes one document's text. It may return the document's
	// vector immediately or defer it to Finish.
	// Failures specific to the document wrap core.ErrVectorization.
	Vectorize(ctx context.Context, docID core.ID, text string) ([]core.Vector, error)

	// Finish returns any deferred vectors. It is called once, after the
	// last document.
	Finish(ctx context.Context) ([]core.Vector, error)

	// Dimension is the vector length, or 0 while it is not yet known.
	Dimension() int

	// Name identifies the strategy.
	Name() string
}

// RunScoped reports whether v's vectors are only comparable with vectors
// from the same run.
func RunScoped(v Vectorizer) bool {
	return v.Name() == StrategyTFIDF
}

// ParseStrategy normalizes a strategy name.
func ParseStrategy(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case StrategyTFIDF, "corpus", "tf-idf":
		return StrategyTFIDF, nil
	case StrategyEmbedding, "embed", "embeddings":
		return StrategyEmbedding, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}
