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

package adapter

import (
	"github.com/blevesearch/bleve/v2"

	"bmindex/pkg/errs"
	"bmindex/pkg/store"
)

// fetchedDocument is the subset of stored fields get_bookmark_content
// and get_bookmark_content_range need.
type fetchedDocument struct {
	Content     string
	ContentType string
	PageCount   int
	PageOffsets []int
}

// fetchDocument looks up a document by its primary key via bleve's
// DocID query, returning NotFound when it does not exist (spec.md
// §4.I step 1).
func fetchDocument(idx *store.Index, docID string) (fetchedDocument, error) {
	q := bleve.NewDocIDQuery([]string{docID})
	req := bleve.NewSearchRequest(q)
	req.Fields = []string{"content", "content_type", "page_count", "page_offsets"}
	req.Size = 1

	result, err := idx.Bleve().Search(req)
	if err != nil {
		return fetchedDocument{}, errs.Internal("failed to fetch document", err)
	}
	if len(result.Hits) == 0 {
		return fetchedDocument{}, errs.NotFound(docID)
	}

	hit := result.Hits[0]
	doc := fetchedDocument{}
	if v, ok := hit.Fields["content"].(string); ok {
		doc.Content = v
	}
	if v, ok := hit.Fields["content_type"].(string); ok {
		doc.ContentType = v
	}
	if v, ok := hit.Fields["page_count"].(float64); ok {
		doc.PageCount = int(v)
	}
	switch v := hit.Fields["page_offsets"].(type) {
	case []interface{}:
		for _, raw := range v {
			if f, ok := raw.(float64); ok {
				doc.PageOffsets = append(doc.PageOffsets, int(f))
			}
		}
	case float64:
		doc.PageOffsets = []int{int(v)}
	}

	return doc, nil
}
