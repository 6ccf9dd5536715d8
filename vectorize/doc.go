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

// Package vectorize turns sanitized document text into fixed-dimension vectors.
//
// Two strategies are provided and a run uses exactly one of them:
//
//   - TFIDF fits a term-weighting model over the whole corpus. Vectorize only
//     accumulates term counts; every vector is emitted by Finish, once the
//     vocabulary is known.
//   - Embedding asks an ai.Embedder for one vector per document. Vectors are
//     returned immediately and Finish emits nothing.
//
// CachedEmbedder wraps any ai.Embedder with an LRU cache keyed by content ID.
package vectorize
