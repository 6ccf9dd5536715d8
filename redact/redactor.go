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
	"errors"
	"fmt"
	"log/slog"
)

// Observer receives the number of replacements each rule made.
type Observer func(rule string, replacements int)

// Redactor applies its rules in order.
type Redactor struct {
	rules    []Rule
	observer Observer
	logger   *slog.Logger
}

// Option configures a Redactor.
type Option func(*Redactor) error

// WithPatternRules appends pattern rules after the built-in ones.
func WithPatternRules(rules ...*PatternRule) Option {
	return func(r *Redactor) error {
		for _, rule := range rules {
			if rule == nil {
				return errors.New("nil pattern rule")
			}
			r.rules = append(r.rules, rule)
		}
		return nil
	}
}

// WithObserver registers a callback for replacement counts.
func WithObserver(o Observer) Option {
	return func(r *Redactor) error {
		r.observer = o
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Redactor) error {
		r.logger = logger
		return nil
	}
}

// New creates a Redactor that runs the email, phone and company rules,
// then any extra pattern rules, then names.
func New(names PersonNameRedactor, opts ...Option) (*Redactor, error) {
	if names == nil {
		return nil, ErrNameRedactorRequired
	}

	r := &Redactor{
		rules:  DefaultPatternRules(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.rules = append(r.rules, names)
	r.logger = r.logger.With("component", "redactor")
	return r, nil
}

// Rules returns the rule names in application order.
func (r *Redactor) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name()
	}
	return names
}

// Redact returns text with every recognized span replaced by its label.
func (r *Redactor) Redact(ctx context.Context, text string) (string, error) {
	for _, rule := range r.rules {
		out, n, err := rule.Apply(ctx, text)
		if err != nil {
			return "", fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		if n > 0 {
			r.logger.Debug("redacted spans", "rule", rule.Name(), "count", n)
			if r.observer != nil {
				r.observer(rule.Name(), n)
			}
		}
		text = out
	}
	return text, nil
}
