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

// Package index accumulates vectors into a similarity-search index.
//
// Within a run a SearchIndex only grows: vectors are appended in atomic
// batches and queried by L2 distance. Its dimension is fixed by the first
// append and cleared only by Reset.
// Builder sits in front of a SearchIndex and buffers vectors so that at most
// one batch is held in memory.
package index
