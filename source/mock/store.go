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

// Package mock provides an in-memory source.Store for tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/source"
)

// Store is an in-memory document tree. Containers and documents are added
// with AddContainer and AddDocument; failures are injected with the Fail*
// fields.
type Store struct {
	// ChunkSize is the number of bytes returned per NextChunk call.
	ChunkSize int

	// FailList makes List return an error for the given container IDs.
	FailList map[string]error

	// FailChunks makes the first N NextChunk calls of a document fail.
	FailChunks map[string]int

	mu         sync.Mutex
	children   map[string][]core.Entry
	blobs      map[string][]byte
	listCalls  map[string]int
	chunkCalls map[string]int
}

var _ source.Store = (*Store)(nil)

// NewStore creates an empty store with a small chunk size.
func NewStore() *Store {
	return &Store{
		ChunkSize:  16,
		FailList:   map[string]error{},
		FailChunks: map[string]int{},
		children:   map[string][]core.Entry{},
		blobs:      map[string][]byte{},
		listCalls:  map[string]int{},
		chunkCalls: map[string]int{},
	}
}

// AddContainer lists child as a folder inside parent.
func (s *Store) AddContainer(parent, id, name string) {
	s.add(parent, core.Entry{ID: id, Name: name, MIMEType: core.MIMETypeContainer})
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.children[id]; !ok {
		s.children[id] = nil
	}
}

// AddDocument lists a document inside parent with the given contents.
func (s *Store) AddDocument(parent, id, name, mimeType string, data []byte) {
	s.add(parent, core.Entry{ID: id, Name: name, MIMEType: mimeType})
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[id] = data
}

// Link lists an existing entry under another parent as well, which may
// introduce cycles.
func (s *Store) Link(parent string, e core.Entry) {
	s.add(parent, e)
}

func (s *Store) add(parent string, e core.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children[parent] = append(s.children[parent], e)
}

// List returns the children of a container in insertion order.
func (s *Store) List(ctx context.Context, containerID string) ([]core.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls[containerID]++
	if err, ok := s.FailList[containerID]; ok {
		return nil, err
	}
	entries, ok := s.children[containerID]
	if !ok {
		return nil, fmt.Errorf("%w: container %s", source.ErrNotFound, containerID)
	}
	return append([]core.Entry(nil), entries...), nil
}

// ListCalls returns how often List was called for a container.
func (s *Store) ListCalls(containerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls[containerID]
}

// ChunkCalls returns how often NextChunk was called for a document.
func (s *Store) ChunkCalls(documentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunkCalls[documentID]
}

// Download opens a transfer over the stored bytes.
func (s *Store) Download(ctx context.Context, documentID string) (source.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", source.ErrNotFound, documentID)
	}
	return &transfer{store: s, id: documentID, data: data}, nil
}

type transfer struct {
	store  *Store
	id     string
	data   []byte
	offset int
	closed bool
}

func (t *transfer) NextChunk(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if t.closed {
		return nil, false, fmt.Errorf("transfer %s closed", t.id)
	}

	t.store.mu.Lock()
	t.store.chunkCalls[t.id]++
	if n := t.store.FailChunks[t.id]; n > 0 {
		t.store.FailChunks[t.id] = n - 1
		t.store.mu.Unlock()
		return nil, false, fmt.Errorf("simulated network error on %s", t.id)
	}
	size := t.store.ChunkSize
	t.store.mu.Unlock()

	end := min(t.offset+size, len(t.data))
	chunk := t.data[t.offset:end]
	t.offset = end
	return chunk, t.offset >= len(t.data), nil
}

func (t *transfer) Close() error {
	t.closed = true
	return nil
}
