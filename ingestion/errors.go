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

package ingestion

import (
	"errors"
	"fmt"

	"github.com/poiesic/scrubdex/core"
)

var (
	// ErrStoreRequired is returned when a document store is not provided.
	ErrStoreRequired = errors.New("document store required")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrRedactorRequired is returned when a redactor is not provided.
	ErrRedactorRequired = errors.New("redactor required")

	// ErrVectorizerRequired is returned when a vectorizer is not provided.
	ErrVectorizerRequired = errors.New("vectorizer required")

	// ErrBuilderRequired is returned when an index builder is not provided.
	ErrBuilderRequired = errors.New("index builder required")

	// ErrRootRequired is returned when a run is started without a root container.
	ErrRootRequired = errors.New("root container required")

	// ErrRunInProgress is returned when a run is started while another is active.
	ErrRunInProgress = errors.New("ingestion run already in progress")

	// ErrIndexNotEmpty is returned when a run would append run-scoped
	// vectors to an index that already holds vectors.
	ErrIndexNotEmpty = errors.New("index already holds vectors from an earlier run")

	// ErrSink indicates a failure writing sanitized text.
	ErrSink = errors.New("sink write failed")

	// ErrManifest indicates a failure recording document state.
	ErrManifest = errors.New("manifest write failed")
)

// ListingError reports a container that could not be listed.
// It matches core.ErrListing.
type ListingError struct {
	ContainerID string
	Depth       int
	Err         error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("%s: container %s (depth %d): %v", core.ErrListing, e.ContainerID, e.Depth, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

func (e *ListingError) Is(target error) bool {
	return target == core.ErrListing
}

// Root reports whether the failed container is the traversal root.
func (e *ListingError) Root() bool {
	return e.Depth == 0
}
