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
	"context"
	"errors"
	"fmt"
)

// Pipeline error taxonomy
var (
	// ErrListing indicates a container could not be listed.
	ErrListing = errors.New("container listing failed")

	// ErrTransfer indicates a chunked download failed after retries.
	ErrTransfer = errors.New("transfer failed")

	// ErrUnsupportedFormat indicates an entry the pipeline does not process.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates a document could not be parsed.
	ErrExtraction = errors.New("extraction failed")

	// ErrRedactionRule indicates a malformed redaction rule.
	ErrRedactionRule = errors.New("invalid redaction rule")

	// ErrVectorization indicates a document could not be turned into a vector.
	ErrVectorization = errors.New("vectorization failed")

	// ErrIndexDimensionMismatch indicates a vector of the wrong length.
	ErrIndexDimensionMismatch = errors.New("index dimension mismatch")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidVector indicates a Vector failed validation.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrEmptySourceID indicates the SourceID field is empty.
	ErrEmptySourceID = errors.New("source id cannot be empty")

	// ErrEmptyVector indicates a vector without values.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrInvalidState indicates an unknown DocumentState.
	ErrInvalidState = errors.New("invalid document state")

	// ErrInvalidTransition indicates an illegal state change.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// DimensionMismatchError reports the expected and offending vector lengths.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrIndexDimensionMismatch, e.Expected, e.Got)
}

// Is makes errors.Is(err, ErrIndexDimensionMismatch) match.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrIndexDimensionMismatch
}

// IsFatal reports whether err must abort the whole run rather than fail a
// single document.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrIndexDimensionMismatch),
		errors.Is(err, ErrRedactionRule),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}
