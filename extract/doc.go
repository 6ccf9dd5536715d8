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

// Package extract downloads documents from a source.Store and turns them
// into ordered text segments.
//
// Downloads run the store's chunked transfer to completion, retrying each
// failed chunk with exponential backoff. Segmentation is lazy: callers pull
// one segment at a time through an iter.Seq2.
//
//   - PDF: one segment per page that has extractable text
//   - WordProcessing: one segment per body paragraph, empty ones included
package extract
