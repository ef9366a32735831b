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
	"net/url"
	"strings"

	"bmindex/pkg/schema"
)

// PageInfo mirrors the page_info object index_bookmark/batch accepts
// (spec.md §4.D): present only for paginated (PDF) documents.
type PageInfo struct {
	PageCount   int    `json:"page_count"`
	PageOffsets []int  `json:"page_offsets"`
	ContentType string `json:"content_type"`
}

// BookmarkParam is one document as received over the wire.
type BookmarkParam struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	FolderPath       []string  `json:"folder_path"`
	DateAdded        float64   `json:"date_added"`
	DateModified     float64   `json:"date_modified"`
	ContentType      string    `json:"content_type,omitempty"`
	PageInfo         *PageInfo `json:"page_info,omitempty"`
	SkipIfUnchanged  *bool     `json:"skip_if_unchanged,omitempty"`
}

// skipIfUnchanged defaults to true when the caller omits the field
// (spec.md §4.D step 3.b).
func (b BookmarkParam) skipIfUnchanged() bool {
	if b.SkipIfUnchanged == nil {
		return true
	}
	return *b.SkipIfUnchanged
}

// toDocument builds the indexed schema.Document for this bookmark,
// deriving domain from the URL host (spec.md §4.A).
func (b BookmarkParam) toDocument() schema.Document {
	doc := schema.Document{
		ID:           b.ID,
		URL:          b.URL,
		Title:        b.Title,
		Content:      b.Content,
		FolderPath:   b.FolderPath,
		Domain:       domainOf(b.URL),
		DateAdded:    b.DateAdded,
		DateModified: b.DateModified,
		ContentType:  b.ContentType,
	}
	if b.ContentType == "" {
		doc.ContentType = "html"
	}
	if b.PageInfo != nil {
		doc.PageCount = b.PageInfo.PageCount
		doc.PageOffsets = b.PageInfo.PageOffsets
		doc.ContentType = "pdf"
	}
	return doc
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IndexBookmarkParams is the index_bookmark request body.
type IndexBookmarkParams struct {
	IndexName string `json:"index_name"`
	BookmarkParam
}

// IndexBookmarksBatchParams is the index_bookmarks_batch request body.
type IndexBookmarksBatchParams struct {
	IndexName string          `json:"index_name"`
	Bookmarks []BookmarkParam `json:"bookmarks"`
}

// CheckForUpdatesParams is the check_for_updates request body.
type CheckForUpdatesParams struct {
	IndexName string `json:"index_name"`
	Bookmarks []struct {
		ID           string  `json:"id"`
		DateModified float64 `json:"date_modified"`
	} `json:"bookmarks"`
}

// GetStatsParams is the get_stats request body.
type GetStatsParams struct {
	IndexName string `json:"index_name"`
}

// ClearIndexParams is the clear_index request body (spec.md §4.J).
type ClearIndexParams struct {
	IndexName string `json:"index_name"`
}

// FailedDoc is one per-document failure recorded in a batch result
// (spec.md §4.D step 3.d).
type FailedDoc struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult is the index_bookmarks_batch / legacy _end result shape.
type BatchResult struct {
	Indexed    int         `json:"indexed"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	Errors     []FailedDoc `json:"errors,omitempty"`
	DurationMs int64       `json:"duration_ms"`
}
