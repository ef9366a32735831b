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
)

func TestDispatchPing(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	result, err := s.Dispatch("ping", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"status": "ok", "version": Version}, result)
}

func TestDispatchUnknownMethod(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	_, err := s.Dispatch("nonexistent_method", nil)
	require.Error(t, err)
}

func indexBookmarkParams(t *testing.T, indexName, id, content string) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"index_name":    indexName,
		"id":            id,
		"url":           "https://example.com/" + id,
		"title":         "Title " + id,
		"content":       content,
		"date_added":    1.0,
		"date_modified": 1.0,
	})
	require.NoError(t, err)
	return data
}

func TestDispatchIndexBookmarkThenGetStats(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	defer s.Close()

	result, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "hello world"))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"status": "indexed"}, result)

	statsParams, err := json.Marshal(map[string]string{"index_name": "bookmarks"})
	require.NoError(t, err)
	stats, err := s.Dispatch("get_stats", statsParams)
	require.NoError(t, err)
	statsMap := stats.(map[string]interface{})
	require.EqualValues(t, 1, statsMap["doc_count"])
}

func TestDispatchIndexBookmarkSkipsUnchanged(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	defer s.Close()

	params := indexBookmarkParams(t, "bookmarks", "1", "stable content")
	_, err := s.Dispatch("index_bookmark", params)
	require.NoError(t, err)

	result, err := s.Dispatch("index_bookmark", params)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"status": "skipped"}, result)
}

func TestDispatchIndexBookmarkReturnsErrorOnUpsertFailure(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 1, nil) // 1-byte heap: every Upsert aborts
	defer s.Close()

	result, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "hello world"))
	require.Error(t, err)
	require.Nil(t, result)
}

func TestDispatchIndexBookmarksBatch(t *testing.T) {
	s := NewServer(t.TempDir(), 2, 0, nil)
	defer s.Close()

	params, err := json.Marshal(map[string]interface{}{
		"index_name": "bookmarks",
		"bookmarks": []map[string]interface{}{
			{"id": "1", "url": "https://a.example", "title": "a", "content": "alpha", "date_added": 1, "date_modified": 1},
			{"id": "2", "url": "https://b.example", "title": "b", "content": "beta", "date_added": 1, "date_modified": 1},
			{"id": "3", "url": "https://c.example", "title": "c", "content": "gamma", "date_added": 1, "date_modified": 1},
		},
	})
	require.NoError(t, err)

	result, err := s.Dispatch("index_bookmarks_batch", params)
	require.NoError(t, err)
	batchResult := result.(*BatchResult)
	require.Equal(t, 3, batchResult.Indexed)
	require.Zero(t, batchResult.Failed)
}

func TestDispatchCheckForUpdates(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	defer s.Close()

	_, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "known content"))
	require.NoError(t, err)

	params, err := json.Marshal(map[string]interface{}{
		"index_name": "bookmarks",
		"bookmarks": []map[string]interface{}{
			{"id": "1", "date_modified": 1.0},
			{"id": "2", "date_modified": 1.0},
		},
	})
	require.NoError(t, err)

	result, err := s.Dispatch("check_for_updates", params)
	require.NoError(t, err)
	m := result.(map[string]interface{})
	require.Equal(t, []string{"2"}, m["new_bookmarks"])
	require.Equal(t, []string{"1"}, m["unchanged_bookmarks"])
}

func TestDispatchListIndexes(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	defer s.Close()

	_, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "content"))
	require.NoError(t, err)

	result, err := s.Dispatch("list_indexes", nil)
	require.NoError(t, err)
	m := result.(map[string]interface{})
	require.NotEmpty(t, m["indexes"])
}

func TestLegacyBatchStartAddEndReplaysBatchAlgorithm(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	defer s.Close()

	startParams, err := json.Marshal(map[string]string{"index_name": "bookmarks"})
	require.NoError(t, err)
	_, err = s.Dispatch("index_bookmarks_batch_start", startParams)
	require.NoError(t, err)

	addParams, err := json.Marshal(map[string]interface{}{
		"index_name": "bookmarks",
		"bookmarks": []map[string]interface{}{
			{"id": "1", "url": "https://a.example", "title": "a", "content": "alpha", "date_added": 1, "date_modified": 1},
		},
	})
	require.NoError(t, err)
	_, err = s.Dispatch("index_bookmarks_batch_add", addParams)
	require.NoError(t, err)

	endParams, err := json.Marshal(map[string]string{"index_name": "bookmarks"})
	require.NoError(t, err)
	result, err := s.Dispatch("index_bookmarks_batch_end", endParams)
	require.NoError(t, err)
	batchResult := result.(*BatchResult)
	require.Equal(t, 1, batchResult.Indexed)
}

func TestDispatchClearIndexRemovesDocsAndLedger(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	defer s.Close()

	_, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "hello world"))
	require.NoError(t, err)

	clearParams, err := json.Marshal(map[string]string{"index_name": "bookmarks"})
	require.NoError(t, err)
	result, err := s.Dispatch("clear_index", clearParams)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"status": "cleared"}, result)

	// A fresh index re-created after clearing has no documents left.
	statsParams, err := json.Marshal(map[string]string{"index_name": "bookmarks"})
	require.NoError(t, err)
	stats, err := s.Dispatch("get_stats", statsParams)
	require.NoError(t, err)
	statsMap := stats.(map[string]interface{})
	require.EqualValues(t, 0, statsMap["doc_count"])
}

func TestDispatchClearAllIndexesClearsEveryIndex(t *testing.T) {
	s := NewServer(t.TempDir(), 50, 0, nil)
	defer s.Close()

	_, err := s.Dispatch("index_bookmark", indexBookmarkParams(t, "work", "1", "alpha"))
	require.NoError(t, err)
	_, err = s.Dispatch("index_bookmark", indexBookmarkParams(t, "personal", "1", "beta"))
	require.NoError(t, err)

	result, err := s.Dispatch("clear_all_indexes", nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"status": "cleared"}, result)

	listResult, err := s.Dispatch("list_indexes", nil)
	require.NoError(t, err)
	indexes := listResult.(map[string]interface{})["indexes"].([]map[string]interface{})
	require.Empty(t, indexes)
}

func TestDispatchIndexBookmarkFailsFastWhenWriterBusy(t *testing.T) {
	baseDir := t.TempDir()
	s1 := NewServer(baseDir, 50, 0, nil)
	defer s1.Close()

	idx, err := s1.openIndex("bookmarks")
	require.NoError(t, err)
	w, err := idx.Writer(0)
	require.NoError(t, err)
	defer w.Close()

	s2 := NewServer(baseDir, 50, 0, nil)
	defer s2.Close()
	_, err = s2.Dispatch("index_bookmark", indexBookmarkParams(t, "bookmarks", "1", "content"))
	require.Error(t, err)
}
