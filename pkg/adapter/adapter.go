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

// Package adapter exposes the query-adapter surface of spec.md §6 as
// plain library functions: search_fulltext, get_bookmark_content,
// get_bookmark_content_range, get_indexing_status. It is consumed by
// an external MCP bridge, which this package deliberately knows
// nothing about.
package adapter

import (
	"context"
	"time"

	"bmindex/pkg/errs"
	"bmindex/pkg/ledger"
	"bmindex/pkg/metrics"
	"bmindex/pkg/query"
	"bmindex/pkg/search"
	"bmindex/pkg/snippet"
	"bmindex/pkg/store"
)

// Service resolves index names to open store.Index handles; cmd/bmindexd
// wires the concrete implementation (a name-to-Index map backed by the
// same handles the Ingestion Service uses).
type Service struct {
	BaseDir string
	Indexes func(names []string) (map[string]*store.Index, error)

	// Metrics is optional; a nil registry disables instrumentation.
	Metrics *metrics.Registry
}

// SearchResult is the search_fulltext response shape (spec.md §6).
type SearchResult struct {
	Hits           []HitWithSnippets         `json:"hits"`
	IndexingStatus map[string]IndexingStatus `json:"indexing_status"`
}

// HitWithSnippets is one ranked result plus its extracted snippets.
type HitWithSnippets struct {
	DocID          string            `json:"id"`
	URL            string            `json:"url"`
	Title          string            `json:"title"`
	Score          float64           `json:"score"`
	ContentType    string            `json:"content_type"`
	PageCount      int               `json:"page_count,omitempty"`
	FolderPath     []string          `json:"folder_path,omitempty"`
	Snippets       []snippet.Snippet `json:"snippets"`
	HasFullContent bool              `json:"has_full_content"`
	OriginIndexes  []string          `json:"origin_indexes"`
}

// IndexingStatus is get_indexing_status's result shape.
type IndexingStatus struct {
	DocCount    uint64  `json:"doc_count"`
	LastUpdated float64 `json:"last_updated"`
}

// SearchFulltext implements spec.md §6's search_fulltext: parse the
// query, federate across the named indexes, and attach scored
// snippets to each hit.
func (s *Service) SearchFulltext(ctx context.Context, indexNames []string, rawQuery string, limit, maxSnippetLength int, filters search.Filters) (*SearchResult, error) {
	started := time.Now()
	items := query.Parse(rawQuery)

	indexes, err := s.Indexes(indexNames)
	if err != nil {
		return nil, err
	}

	var hits []search.FederatedHit
	if len(items) > 0 {
		hits, err = search.Federate(ctx, indexes, indexNames, items, filters, limit)
		if err != nil {
			return nil, err
		}
	}

	terms := flattenTerms(items)

	out := make([]HitWithSnippets, 0, len(hits))
	for _, h := range hits {
		pageOf := snippet.PageOfFunc(h.PageOffsets)
		snippets := snippet.Extract(h.Content, terms, maxSnippetLength, pageOf)
		out = append(out, HitWithSnippets{
			DocID:          h.DocID,
			URL:            h.URL,
			Title:          h.Title,
			Score:          h.Score,
			ContentType:    h.ContentType,
			PageCount:      h.PageCount,
			FolderPath:     h.FolderPath,
			Snippets:       snippets,
			HasFullContent: h.Content != "",
			OriginIndexes:  h.OriginIndexes,
		})
	}

	status := make(map[string]IndexingStatus, len(indexNames))
	for _, name := range indexNames {
		idx, ok := indexes[name]
		if !ok {
			continue
		}
		count, _ := idx.Bleve().DocCount()
		led, err := ledger.Load(s.BaseDir, name)
		lastUpdated := 0.0
		if err == nil {
			lastUpdated = led.LastUpdated()
		}
		status[name] = IndexingStatus{DocCount: count, LastUpdated: lastUpdated}
	}

	s.recordQueryMetrics(indexNames, len(out), time.Since(started))
	return &SearchResult{Hits: out, IndexingStatus: status}, nil
}

func (s *Service) recordQueryMetrics(indexNames []string, hitCount int, elapsed time.Duration) {
	if s.Metrics == nil {
		return
	}
	label := "federated"
	if len(indexNames) == 1 {
		label = indexNames[0]
	}
	s.Metrics.QueriesTotal.WithLabelValues(label).Inc()
	s.Metrics.QueryDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	s.Metrics.QueryResultLen.WithLabelValues(label).Observe(float64(hitCount))
}

func flattenTerms(items []query.Item) []string {
	var terms []string
	for _, it := range items {
		terms = append(terms, it.Terms()...)
	}
	return terms
}

// GetBookmarkContent returns the full stored content text for a
// document id (spec.md §6).
func (s *Service) GetBookmarkContent(ctx context.Context, indexName, docID string) (string, error) {
	indexes, err := s.Indexes([]string{indexName})
	if err != nil {
		return "", err
	}
	idx, ok := indexes[indexName]
	if !ok {
		return "", errs.NotFound(docID)
	}

	doc, err := fetchDocument(idx, docID)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// GetBookmarkContentRange implements get_bookmark_content_range
// (spec.md §4.I, §6).
func (s *Service) GetBookmarkContentRange(ctx context.Context, indexName, docID string, fromPage, toPage int) (text string, advisoryWarning bool, err error) {
	indexes, err := s.Indexes([]string{indexName})
	if err != nil {
		return "", false, err
	}
	idx, ok := indexes[indexName]
	if !ok {
		return "", false, errs.NotFound(docID)
	}

	doc, err := fetchDocument(idx, docID)
	if err != nil {
		return "", false, err
	}

	return snippet.ContentRange(docID, doc.Content, doc.ContentType, doc.PageOffsets, doc.PageCount, fromPage, toPage)
}

// GetIndexingStatus implements get_indexing_status (spec.md §6).
func (s *Service) GetIndexingStatus(ctx context.Context, indexName string) (IndexingStatus, error) {
	indexes, err := s.Indexes([]string{indexName})
	if err != nil {
		return IndexingStatus{}, err
	}
	idx, ok := indexes[indexName]
	if !ok {
		return IndexingStatus{}, errs.NotFound(indexName)
	}

	count, err := idx.Bleve().DocCount()
	if err != nil {
		return IndexingStatus{}, errs.Internal("failed to read doc count", err)
	}

	led, err := ledger.Load(s.BaseDir, indexName)
	if err != nil {
		return IndexingStatus{}, errs.Internal("failed to load ledger", err)
	}

	return IndexingStatus{DocCount: count, LastUpdated: led.LastUpdated()}, nil
}
