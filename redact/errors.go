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

package redact

import "errors"

var (
	// ErrNameRedactorRequired indicates a Redactor without a name rule.
	ErrNameRedactorRequired = errors.New("person name redactor is required")

	// ErrTaggerRequired indicates a classifier redactor without a tagger.
	ErrTaggerRequired = errors.New("entity tagger is required")
)
