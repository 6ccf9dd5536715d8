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

package extract

import "errors"

var (
	// ErrStoreRequired indicates a nil document store.
	ErrStoreRequired = errors.New("document store is required")

	// ErrInvalidMaxAttempts indicates a retry policy with no attempts.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrDocumentTooLarge indicates a download exceeded the size limit.
	ErrDocumentTooLarge = errors.New("document exceeds size limit")

	// ErrMissingPart indicates a word-processing package without a main document part.
	ErrMissingPart = errors.New("word/document.xml not found")
)
