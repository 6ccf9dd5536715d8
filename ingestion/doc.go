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

// Package ingestion drives documents from a remote store through
// extraction, redaction, vectorization and indexing.
//
// Walk discovers documents depth-first beneath a root container. Pipeline
// processes them one at a time, appends each document's sanitized text to a
// sink file and feeds vectors to an index.Builder. A run can be executed in
// the foreground with Run or as a cancellable background Task with Start.
package ingestion
