// Copyright 2025 Kadir Pekel
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

package search

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	bmquery "bmindex/pkg/query"
	"bmindex/pkg/store"
)

// FederatedHit is one Hit merged across indexes, carrying the set of
// indexes it was found in (spec.md §4.G).
type FederatedHit struct {
	Hit
	OriginIndexes []string
}

// Federate runs a query concurrently across the named indexes, merges
// hits by URL keeping the highest score, and returns the top `limit`
// results sorted by score descending (spec.md §4.G).
//
// Missing names and partitions whose Search call errors are both
// skipped with a logged warning rather than failing the whole
// federated query: a downed reader fails open and simply contributes
// zero hits (spec.md §5 join-all policy).
func Federate(
	ctx context.Context,
	indexes map[string]*store.Index,
	names []string,
	items []bmquery.Item,
	filters Filters,
	limit int,
) ([]FederatedHit, error) {
	type perIndexHit struct {
		indexName string
		hit       Hit
	}

	var (
		mu      sync.Mutex
		results []perIndexHit
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		idx, ok := indexes[name]
		if !ok {
			slog.Warn("search: federated query references unknown index, skipping", "index", name)
			continue
		}

		name, idx := name, idx
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			hits, err := Search(idx, items, filters, maxLimit)
			if err != nil {
				slog.Warn("search: federated partition failed, contributing zero hits", "index", name, "error", err)
				return nil
			}

			mu.Lock()
			for _, h := range hits {
				results = append(results, perIndexHit{indexName: name, hit: h})
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	byURL := make(map[string]*FederatedHit, len(results))
	var order []string
	for _, r := range results {
		existing, ok := byURL[r.hit.URL]
		if !ok {
			fh := &FederatedHit{Hit: r.hit, OriginIndexes: []string{r.indexName}}
			byURL[r.hit.URL] = fh
			order = append(order, r.hit.URL)
			continue
		}

		existing.OriginIndexes = appendUnique(existing.OriginIndexes, r.indexName)
		if r.hit.Score > existing.Score {
			existing.Hit = r.hit
		}
	}

	merged := make([]FederatedHit, 0, len(order))
	for _, u := range order {
		merged = append(merged, *byURL[u])
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	clamped := ClampLimit(limit)
	if len(merged) > clamped {
		merged = merged[:clamped]
	}
	return merged, nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
