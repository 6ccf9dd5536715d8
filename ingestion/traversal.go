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

package ingestion

import (
	"context"
	"iter"
	"log/slog"
	"slices"

	"github.com/poiesic/scrubdex/core"
	"github.com/poiesic/scrubdex/source"
)

// pending is an entry waiting on the traversal stack.
type pending struct {
	entry core.Entry
	depth int
}

// Walk yields every supported document beneath rootID, depth-first in
// listing order. Each container is listed at most once, so cyclic container
// graphs terminate, and a document reachable by several paths is yielded once.
//
// A nested container that cannot be listed is yielded as a *ListingError and
// traversal continues. If the root cannot be listed, the *ListingError is the
// only value yielded. Cancelling ctx yields ctx.Err() and stops.
//
// Each call starts a fresh traversal.
func Walk(ctx context.Context, store source.Store, rootID string) iter.Seq2[core.Document, error] {
	return walk(ctx, store, rootID, slog.Default())
}

func walk(ctx context.Context, store source.Store, rootID string, logger *slog.Logger) iter.Seq2[core.Document, error] {
	logger = logger.With("component", "traversal")

	return func(yield func(core.Document, error) bool) {
		visited := map[string]struct{}{}
		seen := map[string]struct{}{}
		stack := []pending{{entry: core.Entry{ID: rootID, MIMEType: core.MIMETypeContainer}}}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				yield(core.Document{}, err)
				return
			}

			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			switch top.entry.Format() {
			case core.FormatContainer:
				if _, ok := visited[top.entry.ID]; ok {
					logger.Debug("container already visited", "container", top.entry.ID)
					continue
				}
				visited[top.entry.ID] = struct{}{}

				entries, err := store.List(ctx, top.entry.ID)
				if err != nil {
					if ctx.Err() != nil {
						yield(core.Document{}, ctx.Err())
						return
					}
					lerr := &ListingError{ContainerID: top.entry.ID, Depth: top.depth, Err: err}
					if !yield(core.Document{}, lerr) || lerr.Root() {
						return
					}
					continue
				}

				// Reverse so the first listed entry is popped first.
				for _, e := range slices.Backward(entries) {
					stack = append(stack, pending{entry: e, depth: top.depth + 1})
				}

			case core.FormatPDF, core.FormatWordProcessing:
				if _, ok := seen[top.entry.ID]; ok {
					continue
				}
				seen[top.entry.ID] = struct{}{}
				if !yield(core.NewDocument(top.entry), nil) {
					return
				}

			default:
				logger.Debug("skipping unsupported entry", "id", top.entry.ID, "name", top.entry.Name, "mime", top.entry.MIMEType)
			}
		}
	}
}
