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

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/scrubdex/ai"
	"github.com/poiesic/scrubdex/core"
)

// DefaultNames is the built-in dictionary for DictionaryNameRedactor.
var DefaultNames = []string{"John", "Jane", "Michael", "Sarah", "David", "Emily"}

// PersonNameRedactor is the final rule of every Redactor.
type PersonNameRedactor interface {
	Rule
}

// DictionaryNameRedactor replaces whole-word, case-insensitive occurrences
// of a fixed list of names with [NAME].
type DictionaryNameRedactor struct {
	re    *regexp.Regexp
	names []string
}

var _ PersonNameRedactor = (*DictionaryNameRedactor)(nil)

// NewDictionaryNameRedactor builds a redactor for names. An empty list uses
// DefaultNames. Entries that would match a placeholder label are rejected.
func NewDictionaryNameRedactor(names []string) (*DictionaryNameRedactor, error) {
	if len(names) == 0 {
		names = DefaultNames
	}

	alternatives := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: name: empty dictionary entry", core.ErrRedactionRule)
		}
		entry, err := regexp.Compile(`(?i)` + wordBounded(name))
		if err != nil {
			return nil, fmt.Errorf("%w: name: %w", core.ErrRedactionRule, err)
		}
		if matchesPlaceholder(entry) {
			return nil, fmt.Errorf("%w: name: entry %q collides with a placeholder", core.ErrRedactionRule, name)
		}
		alternatives = append(alternatives, regexp.QuoteMeta(name))
	}
	// Longer entries first so "Jane Doe" wins over "Jane".
	slices.SortStableFunc(alternatives, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})

	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("%w: name: %w", core.ErrRedactionRule, err)
	}
	return &DictionaryNameRedactor{re: re, names: slices.Clone(names)}, nil
}

func (d *DictionaryNameRedactor) Name() string {
	return "name"
}

// Names returns the dictionary entries.
func (d *DictionaryNameRedactor) Names() []string {
	return slices.Clone(d.names)
}

func (d *DictionaryNameRedactor) Apply(_ context.Context, text string) (string, int, error) {
	count := 0
	out := d.re.ReplaceAllStringFunc(text, func(string) string {
		count++
		return PlaceholderName
	})
	return out, count, nil
}

// ClassifierNameRedactor asks an entity tagger for person and organization
// names and replaces each tagged surface form. People become [NAME],
// organizations become [COMPANY].
type ClassifierNameRedactor struct {
	tagger ai.EntityTagger
}

var _ PersonNameRedactor = (*ClassifierNameRedactor)(nil)

// NewClassifierNameRedactor wraps tagger.
func NewClassifierNameRedactor(tagger ai.EntityTagger) (*ClassifierNameRedactor, error) {
	if tagger == nil {
		return nil, ErrTaggerRequired
	}
	return &ClassifierNameRedactor{tagger: tagger}, nil
}

func (c *ClassifierNameRedactor) Name() string {
	return "classifier"
}

// Apply replaces tagged entities longest first so that a full name is
// redacted before any shorter entity it contains.
func (c *ClassifierNameRedactor) Apply(ctx context.Context, text string) (string, int, error) {
	if strings.TrimSpace(text) == "" {
		return text, 0, nil
	}

	entities, err := c.tagger.TagEntities(ctx, text)
	if err != nil {
		return "", 0, fmt.Errorf("tag entities: %w", err)
	}

	entities = slices.DeleteFunc(slices.Clone(entities), func(e ai.Entity) bool {
		return strings.TrimSpace(e.Text) == "" || strings.ContainsAny(e.Text, "[]")
	})
	slices.SortStableFunc(entities, func(a, b ai.Entity) int {
		return utf8.RuneCountInString(b.Text) - utf8.RuneCountInString(a.Text)
	})

	total := 0
	for _, e := range entities {
		label := PlaceholderName
		if e.Category == ai.CategoryOrganization {
			label = PlaceholderCompany
		}
		re, err := regexp.Compile(wordBounded(e.Text))
		if err != nil {
			return "", 0, fmt.Errorf("entity %q: %w", e.Text, err)
		}
		if matchesPlaceholder(re) {
			continue
		}
		text = re.ReplaceAllStringFunc(text, func(string) string {
			total++
			return label
		})
	}
	return text, total, nil
}

// wordBounded anchors s at word boundaries where its ends are word characters.
func wordBounded(s string) string {
	pattern := regexp.QuoteMeta(s)
	if first, _ := utf8.DecodeRuneInString(s); isWordRune(first) {
		pattern = `\b` + pattern
	}
	if last, _ := utf8.DecodeLastRuneInString(s); isWordRune(last) {
		pattern += `\b`
	}
	return pattern
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// matchesPlaceholder reports whether re would rewrite any label.
func matchesPlaceholder(re *regexp.Regexp) bool {
	for _, label := range Placeholders {
		if re.MatchString(label) {
			return true
		}
	}
	return false
}
