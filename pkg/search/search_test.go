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
	"testing"

	"github.com/stretchr/testify/require"

	bmquery "bmindex/pkg/query"
	"bmindex/pkg/schema"
	"bmindex/pkg/store"
)

func newTestIndex(t *testing.T) *store.Index {
	t.Helper()
	idx, err := store.OpenOrCreate(t.TempDir(), "bookmarks")
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func indexDocs(t *testing.T, idx *store.Index, docs ...schema.Document) {
	t.Helper()
	w, err := idx.Writer(0)
	require.NoError(t, err)
	defer w.Close()
	for _, d := range docs {
		require.NoError(t, w.Upsert(d))
	}
	require.NoError(t, w.Commit())
}

func TestSearchMatchesTitleAboveContent(t *testing.T) {
	idx := newTestIndex(t)
	indexDocs(t, idx,
		schema.Document{ID: "1", URL: "https://a.example/one", Title: "golang concurrency", Content: "unrelated text", ContentType: "html"},
		schema.Document{ID: "2", URL: "https://b.example/two", Title: "cooking recipes", Content: "discusses golang in passing", ContentType: "html"},
	)

	hits, err := Search(idx, []bmquery.Item{{Kind: bmquery.KindTerm, Text: "golang"}}, Filters{}, 20)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "1", hits[0].DocID)
}

func TestSearchContentTypeFilter(t *testing.T) {
	idx := newTestIndex(t)
	indexDocs(t, idx,
		schema.Document{ID: "1", URL: "https://a.example", Title: "a report", Content: "quarterly numbers", ContentType: "pdf"},
		schema.Document{ID: "2", URL: "https://b.example", Title: "a page", Content: "quarterly numbers", ContentType: "html"},
	)

	hits, err := Search(idx, []bmquery.Item{{Kind: bmquery.KindTerm, Text: "quarterly"}}, Filters{ContentType: "pdf"}, 20)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "1", hits[0].DocID)
}

func TestSearchEmptyItemsReturnsNoHits(t *testing.T) {
	idx := newTestIndex(t)
	hits, err := Search(idx, nil, Filters{}, 20)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestClampLimitDefaultsAndClamps(t *testing.T) {
	require.Equal(t, 20, ClampLimit(0))
	require.Equal(t, 1, ClampLimit(1))
	require.Equal(t, 100, ClampLimit(500))
}
