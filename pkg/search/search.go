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

// Package search implements the Searcher (spec.md §4.F): a boosted
// multi-field boolean query over title/url/content, plus optional
// folder/domain/content_type filters.
package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	bsearch "github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	bmquery "bmindex/pkg/query"
	"bmindex/pkg/schema"
	"bmindex/pkg/store"
)

// Filters are the optional boolean-MUST filter clauses of spec.md
// §4.F.
type Filters struct {
	Folder      string
	Domain      string
	ContentType string
}

// Hit is one ranked result, carrying the stored content copy the
// Snippet Scorer consumes — never returned to the caller verbatim.
type Hit struct {
	DocID       string
	Score       float64
	URL         string
	Title       string
	ContentType string
	PageCount   int
	PageOffsets []int
	FolderPath  []string
	Content     string
}

const defaultLimit = 20
const maxLimit = 100

// ClampLimit applies the default/clamp rule of spec.md §3 (Query
// entity): default 20, clamp 1-100.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// Search runs a parsed query against one index, applying field boosts
// and optional filters, and returns hits ordered by score.
//
// Reader freshness: idx.Bleve() always observes the latest committed
// generation, since bleve's Index.Search acquires a new reader
// internally per call — the reload() step of spec.md §4.F is
// therefore implicit rather than a separate API call.
func Search(idx *store.Index, items []bmquery.Item, filters Filters, limit int) ([]Hit, error) {
	if len(items) == 0 {
		return nil, nil
	}

	must := make([]query.Query, 0, len(items))
	for _, item := range items {
		must = append(must, fieldQuery(item))
	}
	for _, f := range filterQueries(filters) {
		must = append(must, f)
	}

	boolQuery := bleve.NewConjunctionQuery(must...)

	req := bleve.NewSearchRequest(boolQuery)
	req.Size = ClampLimit(limit)
	req.Fields = []string{"url", "title", "content_type", "page_count", "page_offsets", "folder_path", "content"}

	bidx := idx.Bleve()
	if bidx == nil {
		return nil, fmt.Errorf("search: index %q is closed", idx.Name())
	}

	result, err := bidx.Search(req)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, dm := range result.Hits {
		hits = append(hits, hitFromMatch(dm))
	}
	return hits, nil
}

// fieldQuery builds the per-item query spanning title/url/content,
// weighted by the field boosts of spec.md §4.A, combined by bleve's
// own disjunction scoring (sum-of-scores across matching fields).
func fieldQuery(item bmquery.Item) query.Query {
	disjuncts := []query.Query{
		boosted(termOrPhraseQuery(item, "title"), schema.BoostTitle),
		boosted(termOrPhraseQuery(item, "url"), schema.BoostURL),
		boosted(termOrPhraseQuery(item, "content"), schema.BoostContent),
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}

func termOrPhraseQuery(item bmquery.Item, field string) query.Query {
	if item.Kind == bmquery.KindPhrase {
		mq := bleve.NewMatchPhraseQuery(item.Text)
		mq.SetField(field)
		return mq
	}
	mq := bleve.NewMatchQuery(item.Text)
	mq.SetField(field)
	return mq
}

func boosted(q query.Query, boost float64) query.Query {
	if bq, ok := q.(query.BoostableQuery); ok {
		bq.SetBoost(boost)
	}
	return q
}

func filterQueries(f Filters) []query.Query {
	var out []query.Query
	if f.Folder != "" {
		pq := bleve.NewMatchPhraseQuery(f.Folder)
		pq.SetField("folder_path")
		out = append(out, pq)
	}
	if f.Domain != "" {
		tq := bleve.NewTermQuery(f.Domain)
		tq.SetField("domain")
		out = append(out, tq)
	}
	if f.ContentType != "" {
		tq := bleve.NewTermQuery(f.ContentType)
		tq.SetField("content_type")
		out = append(out, tq)
	}
	return out
}

func hitFromMatch(dm *bsearch.DocumentMatch) Hit {
	h := Hit{DocID: dm.ID, Score: dm.Score}
	if v, ok := dm.Fields["url"].(string); ok {
		h.URL = v
	}
	if v, ok := dm.Fields["title"].(string); ok {
		h.Title = v
	}
	if v, ok := dm.Fields["content_type"].(string); ok {
		h.ContentType = v
	}
	if v, ok := dm.Fields["content"].(string); ok {
		h.Content = v
	}
	if v, ok := dm.Fields["page_count"].(float64); ok {
		h.PageCount = int(v)
	}
	switch v := dm.Fields["page_offsets"].(type) {
	case []interface{}:
		for _, raw := range v {
			if f, ok := raw.(float64); ok {
				h.PageOffsets = append(h.PageOffsets, int(f))
			}
		}
	case float64:
		h.PageOffsets = []int{int(v)}
	}
	switch v := dm.Fields["folder_path"].(type) {
	case []interface{}:
		for _, seg := range v {
			if s, ok := seg.(string); ok {
				h.FolderPath = append(h.FolderPath, s)
			}
		}
	case string:
		h.FolderPath = []string{v}
	}
	return h
}
