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

package snippet

import (
	"sort"

	"bmindex/pkg/errs"
)

// PageOf returns the 1-based page number containing character position
// p, given page_offsets = [o_0=0, o_1, ..., o_{n-1}] (spec.md §4.I): the
// largest k (1-based) such that offsets[k-1] <= p. ok is false when
// offsets is empty, meaning the document has no page map.
func PageOf(offsets []int, p int) (page int, ok bool) {
	if len(offsets) == 0 {
		return 0, false
	}
	// sort.Search finds the first index where offsets[i] > p; the page
	// containing p is the one before that.
	idx := sort.Search(len(offsets), func(i int) bool { return offsets[i] > p })
	if idx == 0 {
		return 1, true
	}
	return idx, true
}

// PageOfFunc adapts PageOf to the pageOf callback Extract expects.
func PageOfFunc(offsets []int) func(int) (int, bool) {
	return func(p int) (int, bool) {
		return PageOf(offsets, p)
	}
}

const contentRangeWarnThreshold = 100_000

// ContentRange implements get_bookmark_content_range's body once the
// caller has already looked up the document by id (spec.md §4.I):
// validates pagination is available and the range is in bounds, then
// slices content at the page offsets (character positions) with
// [PAGE:n] markers stripped.
//
// NotFound is the caller's responsibility, since this function never
// sees the lookup miss case.
func ContentRange(docID string, content string, contentType string, pageOffsets []int, pageCount int, fromPage, toPage int) (text string, advisoryWarning bool, err error) {
	if contentType != "pdf" || len(pageOffsets) == 0 {
		return "", false, errs.NotPaginated(docID)
	}
	if fromPage < 1 || fromPage > toPage || toPage > pageCount {
		return "", false, errs.PageOutOfRange(docID, fromPage, toPage, pageCount)
	}

	runes := []rune(content)
	start := pageOffsets[fromPage-1]
	end := len(runes)
	if toPage < pageCount {
		end = pageOffsets[toPage]
	}

	sliced := stripMarkers(string(runes[start:end]))
	return sliced, len(sliced) > contentRangeWarnThreshold, nil
}
