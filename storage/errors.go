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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidQuery indicates invalid search parameters.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed indicates a record or vector could not be
	// encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates a stored value ended before its declared length.
	ErrTruncatedData = errors.New("truncated data")

	// ErrCorruptIndex indicates persisted vectors disagree on dimension.
	ErrCorruptIndex = errors.New("corrupt vector index")
)
