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

// Package redact replaces personally identifiable information in text with
// fixed placeholder labels.
//
// A Redactor applies an ordered list of rules. The built-in pattern rules
// (email, phone, company) always run first, followed by any extra pattern
// rules and finally exactly one PersonNameRedactor:
//
//   - DictionaryNameRedactor: case-insensitive, word-bounded lookup list
//   - ClassifierNameRedactor: delegates to an ai.EntityTagger
//
// Redaction is idempotent: no placeholder matches any rule, so running a
// Redactor over its own output changes nothing. Rules that would break this
// are rejected at construction with core.ErrRedactionRule.
package redact
