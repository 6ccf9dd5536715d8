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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/scrubdex/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const maxParseAttempts = 3

// EntityTagger implements ai.EntityTagger using OpenAI-compatible chat APIs.
type EntityTagger struct {
	client llms.Model
	logger *slog.Logger
}

// entity is an internal type used for JSON unmarshaling.
// It matches the structure expected by the LLM.
type entity struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// tagging is the wrapper structure for the LLM's JSON response.
type tagging struct {
	Entities []entity `json:"entities"`
}

// newEntityTagger is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEntityTagger(config *ai.Config) (*EntityTagger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ClassifierHost),
		openai.WithToken(config.APIToken),
		openai.WithModel(config.ClassifierModel),
	)
	if err != nil {
		return nil, err
	}

	return &EntityTagger{
		client: client,
		logger: slog.Default().With("component", "openai-tagger"),
	}, nil
}

// NewEntityTagger creates a new entity tagger using the provided configuration.
//
// Returns ai.EntityTagger interface to enforce abstraction.
func NewEntityTagger(config *ai.Config) (ai.EntityTagger, error) {
	return newEntityTagger(config)
}

// TagEntities asks the model for person and organization names in text.
// Entities that are not verbatim substrings of text or carry an unknown
// category are dropped.
func (t *EntityTagger) TagEntities(ctx context.Context, text string) ([]ai.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return []ai.Entity{}, nil
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result tagging
	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := t.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			t.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			t.logger.Debug("no choices returned from model")
			return []ai.Entity{}, nil
		}

		responseText := cleanResponse(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			t.logger.Warn("error parsing tagger response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		t.logger.Error("failed to parse tagger response after retries", "err", lastErr)
		return nil, lastErr
	}

	entities := filterEntities(text, result.Entities)
	t.logger.Debug("tagged entities",
		"total", len(result.Entities),
		"kept", len(entities))
	return entities, nil
}

// cleanResponse strips markdown code fences and repairs common JSON issues.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return repairJSON(strings.TrimSpace(s))
}

// filterEntities keeps entities that occur verbatim in text with a known
// category, dropping duplicates.
func filterEntities(text string, raw []entity) []ai.Entity {
	seen := make(map[ai.Entity]bool, len(raw))
	out := make([]ai.Entity, 0, len(raw))
	for _, e := range raw {
		candidate := ai.Entity{
			Text:     strings.TrimSpace(e.Text),
			Category: ai.EntityCategory(strings.ToUpper(strings.TrimSpace(e.Category))),
		}
		if candidate.Text == "" || !candidate.Category.Valid() {
			continue
		}
		if !strings.Contains(text, candidate.Text) || seen[candidate] {
			continue
		}
		seen[candidate] = true
		out = append(out, candidate)
	}
	return out
}
