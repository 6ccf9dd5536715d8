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

// Package source defines the document store the pipeline reads from.
//
// A Store lists the children of a container and opens chunked transfers
// for documents. Implementations:
//
//   - source/gdrive: Google Drive v3
//   - source/mock: in-memory tree with failure injection, for tests
//
// Stores are passed explicitly to the components that need them; there is
// no package-level client.
package source

import (
	"context"
	"errors"

	"github.com/poiesic/scrubdex/core"
)

// ErrNotFound indicates an unknown container or document ID.
var ErrNotFound = errors.New("no such object in store")

// Store is a hierarchical remote file store.
// Implementations must be safe for concurrent use.
type Store interface {
	// List returns the direct children of a container in store order.
	List(ctx context.Context, containerID string) ([]core.Entry, error)

	// Download opens a chunked transfer of a document's bytes.
	Download(ctx context.Context, documentID string) (Transfer, error)
}

// Transfer is an in-progress download.
type Transfer interface {
	// NextChunk returns the next piece of the document. done is true once
	// the final chunk (possibly empty) has been returned. A failed call may
	// be retried; the transfer resumes where it left off.
	NextChunk(ctx context.Context) (chunk []byte, done bool, err error)

	// Close releases the transfer.
	Close() error
}
