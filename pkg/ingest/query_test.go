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

package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"bmindex/pkg/adapter"
	"bmindex/pkg/store"
)

func newServerWithQueryService(t *testing.T) *Server {
	t.Helper()
	s := NewServer(t.TempDir(), 50, 0, nil)
	t.Cleanup(s.Close)

	svc := &adapter.Service{
		BaseDir: t.TempDir(),
		Indexes: func(names []string) (map[string]*store.Index, error) {
			out := make(map[string]*store.Index, len(names))
			for _, name := range names {
				idx, err := s.OpenIndex(name)
				if err != nil {
					return nil, err
				}
				out[name] = idx
			}
			return out, nil
		},
	}
	s.AttachQueryService(svc, nil)
	return s
}

func TestDispatchSearchFulltextBeforeAttachFails(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	defer s.Close()

	params, _ := json.Marshal(map[string]interface{}{"indexes": []string{"bookmarks"}, "query": "golang"})
	_, err := s.Dispatch("search_fulltext", params)
	require.Error(t, err)
}

func TestDispatchSearchFulltextReturnsHits(t *testing.T) {
	s := newServerWithQueryService(t)

	_, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "golang concurrency patterns"))
	require.NoError(t, err)

	params, err := json.Marshal(map[string]interface{}{
		"indexes": []string{"bookmarks"},
		"query":   "golang",
	})
	require.NoError(t, err)

	result, err := s.Dispatch("search_fulltext", params)
	require.NoError(t, err)
	sr := result.(*adapter.SearchResult)
	require.Len(t, sr.Hits, 1)
	require.Equal(t, "1", sr.Hits[0].DocID)
}

func TestDispatchGetBookmarkContent(t *testing.T) {
	s := newServerWithQueryService(t)

	_, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "full body text"))
	require.NoError(t, err)

	params, err := json.Marshal(map[string]string{"index_name": "bookmarks", "id": "1"})
	require.NoError(t, err)

	result, err := s.Dispatch("get_bookmark_content", params)
	require.NoError(t, err)
	m := result.(map[string]string)
	require.Equal(t, "full body text", m["content"])
}

func TestDispatchGetIndexingStatus(t *testing.T) {
	s := newServerWithQueryService(t)

	_, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "content"))
	require.NoError(t, err)

	params, err := json.Marshal(map[string]string{"index_name": "bookmarks"})
	require.NoError(t, err)

	result, err := s.Dispatch("get_indexing_status", params)
	require.NoError(t, err)
	status := result.(adapter.IndexingStatus)
	require.EqualValues(t, 1, status.DocCount)
}
