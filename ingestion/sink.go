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
	"fmt"
	"os"
	"sync"
)

// DefaultSinkPath is the sanitized text file used when none is configured.
const DefaultSinkPath = "cleaned_documents.txt"

// FileSink appends each document's sanitized text to one UTF-8 file,
// followed by a newline.
type FileSink struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	written int
	bytes   int64
}

// OpenFileSink opens path for writing. With appendMode the existing contents
// are kept; otherwise the file is truncated.
func OpenFileSink(path string, appendMode bool) (*FileSink, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrSink, path, err)
	}
	return &FileSink{file: f, path: path}, nil
}

// Write stores text and a trailing newline in a single write.
func (s *FileSink) Write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("%w: %s is closed", ErrSink, s.path)
	}

	buf := make([]byte, 0, len(text)+1)
	buf = append(buf, text...)
	buf = append(buf, '\n')
	n, err := s.file.Write(buf)
	s.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSink, s.path, err)
	}
	s.written++
	return nil
}

// Written returns the number of documents written.
func (s *FileSink) Written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Path returns the file path.
func (s *FileSink) Path() string {
	return s.path
}

// Close syncs and closes the file. Closing twice is a no-op.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	f := s.file
	s.file = nil

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrSink, s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrSink, s.path, err)
	}
	return nil
}
