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

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/scrubdex/ai"
	"github.com/poiesic/scrubdex/core"
)

// DefaultCacheSize is the number of embeddings a CachedEmbedder keeps.
const DefaultCacheSize = 1024

// CacheObserver is told whether each lookup was a hit.
type CacheObserver func(hit bool)

// CachedEmbedder wraps an ai.Embedder with an LRU cache.
// Identical texts share one key, the content ID of the text.
type CachedEmbedder struct {
	inner    ai.Embedder
	cache    *lru.Cache[core.ID, []float32]
	observer CacheObserver
}

var _ ai.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder caches up to size embeddings. A non-positive size
// selects DefaultCacheSize.
func NewCachedEmbedder(inner ai.Embedder, size int, observer CacheObserver) (*CachedEmbedder, error) {
	if inner == nil {
		return nil, ErrEmbedderRequired
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[core.ID, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache, observer: observer}, nil
}

// EmbedText returns a cached embedding or computes and stores one.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := core.IDFromContent(text)
	if vec, ok := c.cache.Get(key); ok {
		c.observe(true)
		return vec, nil
	}
	c.observe(false)

	vec, err := c.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// EmbedTexts embeds only the texts missing from the cache, in one batch.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missing []int
	var missingTexts []string

	for i, text := range texts {
		if vec, ok := c.cache.Get(core.IDFromContent(text)); ok {
			c.observe(true)
			results[i] = vec
			continue
		}
		c.observe(false)
		missing = append(missing, i)
		missingTexts = append(missingTexts, text)
	}

	if len(missingTexts) == 0 {
		return results, nil
	}

	embedded, err := c.inner.EmbedTexts(ctx, missingTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missingTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(missingTexts))
	}

	for j, i := range missing {
		results[i] = embedded[j]
		c.cache.Add(core.IDFromContent(texts[i]), embedded[j])
	}
	return results, nil
}

// Len returns the number of cached embeddings.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func (c *CachedEmbedder) observe(hit bool) {
	if c.observer != nil {
		c.observer(hit)
	}
}
