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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bmindex/pkg/adapter"
	"bmindex/pkg/control"
	"bmindex/pkg/errs"
	"bmindex/pkg/search"
)

func invalidParamsErr(method string, cause error) error {
	return errs.InvalidParams(fmt.Sprintf("malformed %s params: %s", method, cause))
}

func methodUnavailable(method string) error {
	return errs.InvalidParams(fmt.Sprintf("%s unavailable: query service not attached", method))
}

// AttachQueryService wires the §6 query-adapter surface into this
// server's own JSON-RPC dispatch table, so a single bmindexd process
// can serve both ingestion and queries over the same stdio channel.
// An external MCP bridge may instead embed adapter.Service directly and
// skip this entirely (spec.md §1 Non-goals) — both paths share the same
// Service instance and its index handles.
func (s *Server) AttachQueryService(svc *adapter.Service, ql *control.QueryLog) {
	s.queryService = svc
	s.queryLog = ql
}

// SearchFulltextParams is the search_fulltext request body (spec.md §6).
type SearchFulltextParams struct {
	Indexes          []string `json:"indexes"`
	Query            string   `json:"query"`
	Limit            int      `json:"limit,omitempty"`
	MaxSnippetLength int      `json:"max_snippet_length,omitempty"`
	Folder           string   `json:"folder,omitempty"`
	Domain           string   `json:"domain,omitempty"`
	ContentType      string   `json:"content_type,omitempty"`
}

func (s *Server) handleSearchFulltext(params json.RawMessage) (interface{}, error) {
	var p SearchFulltextParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParamsErr("search_fulltext", err)
	}
	if s.queryService == nil {
		return nil, methodUnavailable("search_fulltext")
	}

	maxSnippet := p.MaxSnippetLength
	if maxSnippet <= 0 {
		maxSnippet = 600
	}

	started := time.Now()
	result, err := s.queryService.SearchFulltext(context.Background(), p.Indexes, p.Query, p.Limit, maxSnippet, search.Filters{
		Folder:      p.Folder,
		Domain:      p.Domain,
		ContentType: p.ContentType,
	})
	if err != nil {
		return nil, err
	}

	if s.queryLog != nil {
		for _, name := range p.Indexes {
			_ = s.queryLog.Record(context.Background(), name, p.Query, len(result.Hits), time.Since(started).Milliseconds(), time.Now().Unix())
		}
	}

	return result, nil
}

// GetBookmarkContentParams is the get_bookmark_content request body.
type GetBookmarkContentParams struct {
	IndexName string `json:"index_name"`
	ID        string `json:"id"`
}

func (s *Server) handleGetBookmarkContent(params json.RawMessage) (interface{}, error) {
	var p GetBookmarkContentParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParamsErr("get_bookmark_content", err)
	}
	if s.queryService == nil {
		return nil, methodUnavailable("get_bookmark_content")
	}

	text, err := s.queryService.GetBookmarkContent(context.Background(), p.IndexName, p.ID)
	if err != nil {
		return nil, err
	}
	return map[string]string{"content": text}, nil
}

// GetBookmarkContentRangeParams is the get_bookmark_content_range
// request body.
type GetBookmarkContentRangeParams struct {
	IndexName string `json:"index_name"`
	ID        string `json:"id"`
	FromPage  int    `json:"from_page"`
	ToPage    int    `json:"to_page"`
}

func (s *Server) handleGetBookmarkContentRange(params json.RawMessage) (interface{}, error) {
	var p GetBookmarkContentRangeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParamsErr("get_bookmark_content_range", err)
	}
	if s.queryService == nil {
		return nil, methodUnavailable("get_bookmark_content_range")
	}

	text, warning, err := s.queryService.GetBookmarkContentRange(context.Background(), p.IndexName, p.ID, p.FromPage, p.ToPage)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"content":          text,
		"advisory_warning": warning,
	}, nil
}

// GetIndexingStatusParams is the get_indexing_status request body.
type GetIndexingStatusParams struct {
	IndexName string `json:"index_name"`
}

func (s *Server) handleGetIndexingStatus(params json.RawMessage) (interface{}, error) {
	var p GetIndexingStatusParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParamsErr("get_indexing_status", err)
	}
	if s.queryService == nil {
		return nil, methodUnavailable("get_indexing_status")
	}

	status, err := s.queryService.GetIndexingStatus(context.Background(), p.IndexName)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// GetRecentQueriesParams is the get_recent_queries request body.
type GetRecentQueriesParams struct {
	IndexName string `json:"index_name"`
	Limit     int    `json:"limit,omitempty"`
}

func (s *Server) handleGetRecentQueries(params json.RawMessage) (interface{}, error) {
	var p GetRecentQueriesParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, invalidParamsErr("get_recent_queries", err)
	}
	if s.queryLog == nil {
		return nil, methodUnavailable("get_recent_queries")
	}

	recent, err := s.queryLog.GetRecentQueries(context.Background(), p.IndexName, p.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"queries": recent}, nil
}
