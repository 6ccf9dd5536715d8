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

package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/scrubdex/ai"
)

// MockEntityTagger is a test double for ai.EntityTagger.
// It allows custom behavior injection via function fields.
type MockEntityTagger struct {
	// TagEntitiesFunc is called by TagEntities if set.
	// If nil, tags every Known entry that occurs in the text.
	TagEntitiesFunc func(ctx context.Context, text string) ([]ai.Entity, error)

	// Known maps surface forms to categories for the default behavior.
	Known map[string]ai.EntityCategory

	mu        sync.Mutex
	callCount int
}

// NewMockEntityTagger creates a mock tagger that recognizes the given entities.
// Note: Returns concrete type to allow test assertions via GetMockTagger().
func NewMockEntityTagger(known map[string]ai.EntityCategory) *MockEntityTagger {
	if known == nil {
		known = map[string]ai.EntityCategory{}
	}
	return &MockEntityTagger{Known: known}
}

// TagEntities returns the Known entries found in text, in lexical order.
func (m *MockEntityTagger) TagEntities(ctx context.Context, text string) ([]ai.Entity, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.TagEntitiesFunc != nil {
		return m.TagEntitiesFunc(ctx, text)
	}

	entities := []ai.Entity{}
	for surface, category := range m.Known {
		if strings.Contains(text, surface) {
			entities = append(entities, ai.Entity{Text: surface, Category: category})
		}
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Text < entities[j].Text
	})
	return entities, nil
}

// CallCount returns the number of times TagEntities was called.
func (m *MockEntityTagger) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockEntityTagger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.TagEntitiesFunc = nil
}
