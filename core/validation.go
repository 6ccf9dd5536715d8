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

package core

import (
	"fmt"
	"math"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - SourceID must not be empty
//   - Format must be supported (PDF or WordProcessing)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceID)
	}

	if !doc.Format.Supported() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidDocument, ErrUnsupportedFormat, doc.Format)
	}

	return nil
}

// ValidateVector checks that a vector is non-empty and finite.
func ValidateVector(v *Vector) error {
	if v == nil {
		return fmt.Errorf("%w: vector is nil", ErrInvalidVector)
	}

	if len(v.Values) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidVector, ErrEmptyVector)
	}

	for i, x := range v.Values {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: non-finite value at %d", ErrInvalidVector, i)
		}
	}

	return nil
}

// ValidateDocumentRecord validates a manifest record.
func ValidateDocumentRecord(record *DocumentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidDocument)
	}

	if record.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceID)
	}

	if !record.State.Valid() {
		return fmt.Errorf("%w: value %d", ErrInvalidState, record.State)
	}

	return nil
}
