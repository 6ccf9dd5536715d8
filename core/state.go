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
	"time"
)

// DocumentState is the position of a document in the pipeline.
type DocumentState int

const (
	StateDiscovered DocumentState = iota + 1
	StateDownloading
	StateExtracting
	StateRedacting
	StateVectorizing
	StateIndexed
	StateFailed
)

var stateNames = map[DocumentState]string{
	StateDiscovered:  "discovered",
	StateDownloading: "downloading",
	StateExtracting:  "extracting",
	StateRedacting:   "redacting",
	StateVectorizing: "vectorizing",
	StateIndexed:     "indexed",
	StateFailed:      "failed",
}

func (s DocumentState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseDocumentState is the inverse of String.
func ParseDocumentState(name string) (DocumentState, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidState, name)
}

// Terminal reports whether no further transitions are allowed.
func (s DocumentState) Terminal() bool {
	return s == StateIndexed || s == StateFailed
}

// Valid reports whether s is a known state.
func (s DocumentState) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// CanTransition reports whether from -> to is a legal step.
// States advance strictly in order; Failed is reachable from any
// non-terminal state.
func CanTransition(from, to DocumentState) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return to == from+1
}

// Advance moves the record to the next state.
func (r *DocumentRecord) Advance(to DocumentState) error {
	if !CanTransition(r.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, to)
	}
	r.State = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail moves the record to Failed and keeps the reason.
func (r *DocumentRecord) Fail(cause error) error {
	if err := r.Advance(StateFailed); err != nil {
		return err
	}
	if cause != nil {
		r.Error = cause.Error()
	}
	return nil
}
