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

	"github.com/poiesic/scrubdex/core"
)

// Placeholder labels substituted for redacted spans.
const (
	PlaceholderEmail   = "[EMAIL]"
	PlaceholderPhone   = "[PHONE]"
	PlaceholderCompany = "[COMPANY]"
	PlaceholderName    = "[NAME]"
)

// Placeholders lists every built-in label.
var Placeholders = []string{
	PlaceholderEmail,
	PlaceholderPhone,
	PlaceholderCompany,
	PlaceholderName,
}

// Built-in patterns, applied in this order.
const (
	EmailPattern   = `[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`
	PhonePattern   = `\b\d{10,12}\b`
	CompanyPattern = `\b\w+\s+(?:Inc|Corp|Ltd)\.`
)

// Rule rewrites text, replacing the spans it recognizes.
type Rule interface {
	// Name identifies the rule in logs and metrics.
	Name() string

	// Apply returns text with matched spans replaced and the number of
	// replacements made.
	Apply(ctx context.Context, text string) (string, int, error)
}

// PatternRule replaces every match of a regular expression with a label.
type PatternRule struct {
	name        string
	re          *regexp.Regexp
	placeholder string
}

// NewPatternRule compiles pattern and checks that neither the placeholder
// nor any built-in label is matched by it.
func NewPatternRule(name, pattern, placeholder string) (*PatternRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrRedactionRule, name, err)
	}
	if placeholder == "" {
		return nil, fmt.Errorf("%w: %s: empty placeholder", core.ErrRedactionRule, name)
	}
	for _, label := range append([]string{placeholder}, Placeholders...) {
		if re.MatchString(label) {
			return nil, fmt.Errorf("%w: %s: pattern matches placeholder %s", core.ErrRedactionRule, name, label)
		}
	}
	return &PatternRule{name: name, re: re, placeholder: placeholder}, nil
}

// MustPatternRule is NewPatternRule for patterns known to be valid.
func MustPatternRule(name, pattern, placeholder string) *PatternRule {
	r, err := NewPatternRule(name, pattern, placeholder)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *PatternRule) Name() string {
	return r.name
}

func (r *PatternRule) Apply(_ context.Context, text string) (string, int, error) {
	count := 0
	out := r.re.ReplaceAllStringFunc(text, func(string) string {
		count++
		return r.placeholder
	})
	return out, count, nil
}

// DefaultPatternRules returns the email, phone and company rules.
func DefaultPatternRules() []Rule {
	return []Rule{
		MustPatternRule("email", EmailPattern, PlaceholderEmail),
		MustPatternRule("phone", PhonePattern, PlaceholderPhone),
		MustPatternRule("company", CompanyPattern, PlaceholderCompany),
	}
}
