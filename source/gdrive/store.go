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

// Package gdrive implements source.Store on the Google Drive v3 API.
package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/source"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// DefaultChunkSize is the number of bytes returned per NextChunk call.
	DefaultChunkSize = 1 << 20
	// DefaultPageSize is the listing page size requested from Drive.
	DefaultPageSize = 100

	listFields = "nextPageToken, files(id, name, mimeType)"
)

// Store lists and downloads files through a Drive service.
type Store struct {
	svc       *drive.Service
	chunkSize int
	pageSize  int64
	logger    *slog.Logger
}

var _ source.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithChunkSize sets the transfer chunk size in bytes.
func WithChunkSize(n int) Option {
	return func(s *Store) error {
		if n < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", n)
		}
		s.chunkSize = n
		return nil
	}
}

// WithPageSize sets the listing page size.
func WithPageSize(n int) Option {
	return func(s *Store) error {
		if n < 1 || n > 1000 {
			return fmt.Errorf("page size must be between 1 and 1000, got %d", n)
		}
		s.pageSize = int64(n)
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// New creates a read-only Drive store from service-account credentials.
// clientOpts are passed through to the Drive client (endpoint, HTTP client).
func New(ctx context.Context, credentialsJSON []byte, clientOpts []option.ClientOption, opts ...Option) (*Store, error) {
	if len(credentialsJSON) > 0 {
		clientOpts = append([]option.ClientOption{
			option.WithCredentialsJSON(credentialsJSON),
			option.WithScopes(drive.DriveReadonlyScope),
		}, clientOpts...)
	}
	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return NewWithService(svc, opts...)
}

// NewWithService wraps an existing Drive service.
func NewWithService(svc *drive.Service, opts ...Option) (*Store, error) {
	s := &Store{
		svc:       svc,
		chunkSize: DefaultChunkSize,
		pageSize:  DefaultPageSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "gdrive")
	return s, nil
}

// List returns the non-trashed children of a folder, following pagination.
func (s *Store) List(ctx context.Context, containerID string) ([]core.Entry, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(containerID))
	call := s.svc.Files.List().
		Q(query).
		Fields(listFields).
		PageSize(s.pageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)

	var entries []core.Entry
	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			entries = append(entries, core.Entry{
				ID:       f.Id,
				Name:     f.Name,
				MIMEType: f.MimeType,
			})
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.logger.Debug("listed folder", "folder", containerID, "entries", len(entries))
	return entries, nil
}

// Download opens a chunked media download. The HTTP request is issued on
// the first NextChunk call.
func (s *Store) Download(ctx context.Context, documentID string) (source.Transfer, error) {
	if documentID == "" {
		return nil, source.ErrNotFound
	}
	return &transfer{
		store: s,
		id:    documentID,
		buf:   make([]byte, s.chunkSize),
	}, nil
}

// transfer streams a file body. After a read error the body is dropped and
// the next call re-requests the remaining bytes with a Range header.
type transfer struct {
	store  *Store
	id     string
	offset int64
	body   io.ReadCloser
	buf    []byte
	done   bool
}

func (t *transfer) open(ctx context.Context) error {
	call := t.store.svc.Files.Get(t.id).SupportsAllDrives(true).Context(ctx)
	if t.offset > 0 {
		call.Header().Set("Range", fmt.Sprintf("bytes=%d-", t.offset))
	}
	resp, err := call.Download()
	if err != nil {
		return mapError(err)
	}

	// A server that ignores Range answers 200 with the whole body.
	if t.offset > 0 && resp.StatusCode != http.StatusPartialContent {
		t.store.logger.Debug("range ignored, skipping received bytes", "id", t.id, "offset", t.offset, "status", resp.StatusCode)
		if _, err := io.CopyN(io.Discard, resp.Body, t.offset); err != nil {
			resp.Body.Close()
			return fmt.Errorf("skip %d received bytes: %w", t.offset, err)
		}
	}
	t.body = resp.Body
	return nil
}

// fill reads until buf is full or the body ends. io.EOF is returned only
// for a body that ended cleanly.
func fill(r io.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (t *transfer) NextChunk(ctx context.Context) ([]byte, bool, error) {
	if t.done {
		return nil, true, nil
	}
	if t.body == nil {
		if err := t.open(ctx); err != nil {
			return nil, false, err
		}
	}

	n, err := fill(t.body, t.buf)
	switch {
	case err == nil:
	case err == io.EOF:
		t.done = true
	default:
		// Partial bytes are discarded and re-requested from offset.
		t.body.Close()
		t.body = nil
		return nil, false, err
	}

	t.offset += int64(n)
	chunk := make([]byte, n)
	copy(chunk, t.buf[:n])
	return chunk, t.done, nil
}

func (t *transfer) Close() error {
	if t.body == nil {
		return nil
	}
	err := t.body.Close()
	t.body = nil
	return err
}

// escapeQuery quotes an ID for use inside a Drive query string literal.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func mapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %w", source.ErrNotFound, err)
	}
	return err
}
