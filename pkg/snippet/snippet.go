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

// Package snippet implements the Snippet Scorer (spec.md §4.H):
// sentence-bounded, query-term-density-ranked excerpts of a document's
// content, with page locality resolved through the Page Map (§4.I).
package snippet

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const defaultMaxLength = 600
const minSentenceLength = 10

// Snippet is a contextual excerpt (spec.md §3).
type Snippet struct {
	Text         string  `json:"text"`
	PageNumber   int     `json:"page_number,omitempty"` // 0 means absent
	DensityScore float64 `json:"density_score"`
}

type sentence struct {
	text  string
	start int // byte offset in content ([PAGE:n] markers included)
	end   int
}

var sentenceBoundary = regexp.MustCompile(`[.!?。！？\n](\s|$)`)

// splitSentences breaks content into sentences at
// [.!?。！？\n] followed by whitespace or EOF, then merges any
// sentence shorter than minSentenceLength into the one that follows
// it (spec.md §4.H step 1).
func splitSentences(content string) []sentence {
	var raw []sentence
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(content, -1) {
		// include the boundary punctuation (one rune, possibly
		// multi-byte), not the trailing space
		_, size := utf8.DecodeRuneInString(content[loc[0]:])
		end := loc[0] + size
		if end <= last {
			continue
		}
		raw = append(raw, sentence{text: content[last:end], start: last, end: end})
		last = end
	}
	if last < len(content) {
		raw = append(raw, sentence{text: content[last:], start: last, end: len(content)})
	}

	var merged []sentence
	for _, s := range raw {
		if len(merged) > 0 && len([]rune(merged[len(merged)-1].text)) < minSentenceLength {
			prev := merged[len(merged)-1]
			merged[len(merged)-1] = sentence{
				text:  prev.text + s.text,
				start: prev.start,
				end:   s.end,
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// density computes (query-term matches / sqrt(sentence length in
// characters)), case-insensitive (spec.md §4.H step 2).
func density(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matches := 0
	for _, term := range terms {
		t := strings.ToLower(term)
		if t == "" {
			continue
		}
		matches += strings.Count(lower, t)
	}
	if matches == 0 {
		return 0
	}
	length := float64(len([]rune(text)))
	if length == 0 {
		return 0
	}
	return float64(matches) / math.Sqrt(length)
}

var pageMarker = regexp.MustCompile(`\[PAGE:\d+\]`)

// stripMarkers removes [PAGE:n] markers from text; the scorer never
// emits them in output (spec.md §4.H).
func stripMarkers(text string) string {
	return pageMarker.ReplaceAllString(text, "")
}

// Extract returns up to 3 ranked snippets from content for the given
// flattened query terms, each resolved to a page number via pageOf
// (spec.md §4.H, §4.I). maxLength <= 0 uses the default of 600.
func Extract(content string, terms []string, maxLength int, pageOf func(pos int) (int, bool)) []Snippet {
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	sentences := splitSentences(content)

	type scored struct {
		idx     int
		density float64
	}
	var candidates []scored
	for i, s := range sentences {
		d := density(s.text, terms)
		if d > 0 {
			candidates = append(candidates, scored{idx: i, density: d})
		}
	}

	if len(candidates) == 0 {
		return []Snippet{fallbackSnippet(content, maxLength, pageOf)}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].density != candidates[j].density {
			return candidates[i].density > candidates[j].density
		}
		return sentences[candidates[i].idx].start < sentences[candidates[j].idx].start
	})

	if len(candidates) > 3 {
		candidates = candidates[:3]
	}

	snippets := make([]Snippet, 0, len(candidates))
	for _, c := range candidates {
		snippets = append(snippets, buildWindow(sentences, c.idx, c.density, maxLength, pageOf))
	}
	return snippets
}

// buildWindow extends the selected sentence forward, appending whole
// following sentences while the total stays within maxLength, never
// splitting a sentence or a multi-byte rune (spec.md §4.H step 4).
func buildWindow(sentences []sentence, startIdx int, density float64, maxLength int, pageOf func(int) (int, bool)) Snippet {
	start := sentences[startIdx].start
	end := sentences[startIdx].end

	for i := startIdx + 1; i < len(sentences); i++ {
		candidateEnd := sentences[i].end
		if candidateEnd-start > maxLength {
			break
		}
		end = candidateEnd
	}

	text := stripMarkers(joinSentenceRange(sentences, startIdx, end))

	page := 0
	if pageOf != nil {
		// pageOf takes a character position; start is a byte offset.
		pos := 0
		for _, s := range sentences[:startIdx] {
			pos += utf8.RuneCountInString(s.text)
		}
		if p, ok := pageOf(pos); ok {
			page = p
		}
	}

	return Snippet{Text: strings.TrimSpace(text), PageNumber: page, DensityScore: density}
}

func joinSentenceRange(sentences []sentence, startIdx int, end int) string {
	var b strings.Builder
	for i := startIdx; i < len(sentences); i++ {
		if sentences[i].start >= end {
			break
		}
		b.WriteString(sentences[i].text)
		if sentences[i].end >= end {
			break
		}
	}
	return b.String()
}

// fallbackSnippet returns the first maxLength characters of content
// with a leading ellipsis omitted (spec.md only requires the ellipsis
// when content is longer than the budget), at page 1 if paginated
// (spec.md §4.H step 7).
func fallbackSnippet(content string, maxLength int, pageOf func(int) (int, bool)) Snippet {
	stripped := stripMarkers(content)
	runes := []rune(stripped)

	text := stripped
	if len(runes) > maxLength {
		text = string(runes[:maxLength])
	}

	page := 0
	if pageOf != nil {
		if p, ok := pageOf(0); ok {
			page = p
		}
	}

	return Snippet{Text: strings.TrimSpace(text), PageNumber: page, DensityScore: 0}
}
