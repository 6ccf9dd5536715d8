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

import "errors"

var (
	// ErrEmbedderRequired indicates an embedding vectorizer without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidDimension indicates a non-positive configured dimension.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrFinished indicates use of a TFIDF vectorizer after Finish.
	ErrFinished = errors.New("vectorizer already finished")

	// ErrUnknownAnalyzer indicates a bleve analyzer name that is not registered.
	ErrUnknownAnalyzer = errors.New("unknown analyzer")

	// ErrUnknownStrategy indicates an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("unknown vectorization strategy")
)
