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

// Package tokenize implements the CJK-aware analyzer contract of
// spec.md §4.A: runs of CJK characters are morphologically segmented
// with a dictionary-based tokenizer (kagome, IPA dictionary), Latin and
// numeric runs are lowercased and split on non-alphanumeric boundaries,
// and the two paths are interleaved in document order so that a query
// mixing Japanese and English tokens matches correctly.
//
// Grounded in the Latin-run tokenizers of
// other_examples/50edb207_madstone-tech-mdstn-kb-mcp__internal-search-engine.go.go
// and other_examples/4260607d_aosen-search__searchengine.go.go, which
// both lowercase and split on unicode.IsLetter/IsDigit boundaries; the
// CJK half is new, backed by github.com/ikawaha/kagome/v2.
package tokenize

import (
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Token is one analyzed token with its byte offsets in the original
// input, handed to bleve for indexing by pkg/schema's analyzer adapter.
type Token struct {
	Term     string
	Start    int
	End      int
	Position int
}

var (
	kagomeOnce sync.Once
	kagomeTok  *tokenizer.Tokenizer
	kagomeErr  error
)

func kagomeTokenizer() (*tokenizer.Tokenizer, error) {
	kagomeOnce.Do(func() {
		kagomeTok, kagomeErr = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	})
	return kagomeTok, kagomeErr
}

// isCJK reports whether r belongs to a CJK/Hiragana/Katakana/Hangul
// block, i.e. a script the Latin whitespace/punctuation splitter would
// mis-segment.
func isCJK(r rune) bool {
	switch {
	case r >= 0x4E00 && r <= 0x9FFF: // CJK Unified Ideographs
		return true
	case r >= 0x3400 && r <= 0x4DBF: // CJK Extension A
		return true
	case r >= 0x3040 && r <= 0x309F: // Hiragana
		return true
	case r >= 0x30A0 && r <= 0x30FF: // Katakana
		return true
	case r >= 0xAC00 && r <= 0xD7A3: // Hangul syllables
		return true
	case r >= 0xFF65 && r <= 0xFF9F: // halfwidth katakana
		return true
	default:
		return false
	}
}

// isLatinWord reports whether r can be part of a Latin/numeric token.
func isLatinWord(r rune) bool {
	return !isCJK(r) && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// Tokenize analyzes text into an ordered token stream, position-numbered
// from 0, interleaving CJK segmentation and Latin lowercasing/splitting
// in the order runs appear in the source text. Stop-word filtering is
// off; tokens are never stemmed (spec.md §4.A).
func Tokenize(text string) []Token {
	runes := []rune(text)
	n := len(runes)

	var tokens []Token
	position := 0
	i := 0

	// byteOffset maps a rune index back to a byte offset in text.
	byteOffsets := make([]int, n+1)
	bo := 0
	for idx, r := range runes {
		byteOffsets[idx] = bo
		bo += len(string(r))
	}
	byteOffsets[n] = bo

	for i < n {
		r := runes[i]
		switch {
		case isCJK(r):
			j := i
			for j < n && isCJK(runes[j]) {
				j++
			}
			segStart := byteOffsets[i]
			segEnd := byteOffsets[j]
			segText := text[segStart:segEnd]
			cjkTokens, err := segmentCJK(segText, segStart)
			if err != nil || len(cjkTokens) == 0 {
				// Fall back to whole-run token on segmentation failure.
				tokens = append(tokens, Token{Term: segText, Start: segStart, End: segEnd, Position: position})
				position++
			} else {
				for _, t := range cjkTokens {
					t.Position = position
					tokens = append(tokens, t)
					position++
				}
			}
			i = j

		case isLatinWord(r):
			j := i
			for j < n && isLatinWord(runes[j]) {
				j++
			}
			segStart := byteOffsets[i]
			segEnd := byteOffsets[j]
			term := strings.ToLower(text[segStart:segEnd])
			tokens = append(tokens, Token{Term: term, Start: segStart, End: segEnd, Position: position})
			position++
			i = j

		default:
			i++
		}
	}

	return tokens
}

// segmentCJK runs dictionary-based morphological segmentation over a
// contiguous CJK run, offsetting byte positions by baseOffset so the
// returned tokens are positioned relative to the full input.
func segmentCJK(segment string, baseOffset int) ([]Token, error) {
	tok, err := kagomeTokenizer()
	if err != nil {
		return nil, err
	}

	morphs := tok.Analyze(segment, tokenizer.Normal)

	var tokens []Token
	byteOffset := 0
	for _, m := range morphs {
		surface := m.Surface
		if surface == "" {
			continue
		}
		idx := strings.Index(segment[byteOffset:], surface)
		start := byteOffset
		if idx >= 0 {
			start = byteOffset + idx
		}
		end := start + len(surface)
		tokens = append(tokens, Token{
			Term:  surface,
			Start: baseOffset + start,
			End:   baseOffset + end,
		})
		byteOffset = end
	}
	return tokens, nil
}
