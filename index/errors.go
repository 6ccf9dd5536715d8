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

package index

import "errors"

var (
	// ErrIndexRequired indicates a Builder without a SearchIndex.
	ErrIndexRequired = errors.New("search index is required")

	// ErrInvalidThreshold indicates a non-positive batch threshold.
	ErrInvalidThreshold = errors.New("batch threshold must be positive")

	// ErrInvalidQuery indicates a non-positive neighbor count.
	ErrInvalidQuery = errors.New("k must be positive")
)
