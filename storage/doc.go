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


// Package storage provides the persistence layer for scrubdex.
//
// This package defines repository interfaces that decouple storage implementation
// from pipeline logic:
//
//   - ManifestRepository: per-document outcome records (state, error, counts)
//   - VectorRepository: append-only persistent L2 search index
//
// Records are serialized with mus-go primitives (see serialization.go). The
// BadgerDB implementation lives in the badger subpackage.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/workspace", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	manifest := badger.NewManifestRepository(backend)
//	vectors, err := badger.NewVectorRepository(backend)
//
// Use in tests with in-memory storage:
//
//	backend, err := badger.OpenBackend("", true)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
