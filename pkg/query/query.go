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

// Package query implements the quoted-phrase-aware query parser of
// spec.md §4.E: an ordered mix of Term and Phrase items, no boolean
// operator syntax.
package query

import "strings"

// ItemKind distinguishes a bare term from a quoted phrase.
type ItemKind int

const (
	KindTerm ItemKind = iota
	KindPhrase
)

// Item is one parsed query element, in the order it appeared.
type Item struct {
	Kind ItemKind
	Text string
}

// Terms returns the individual whitespace-split words making up the
// item: itself for a Term, or the phrase's constituent words for a
// Phrase. Used by the Snippet Scorer (§4.H), which flattens phrases to
// their terms for density scoring.
func (it Item) Terms() []string {
	return strings.Fields(it.Text)
}

// Parse splits an arbitrary query string into an ordered list of Term
// and Phrase items (spec.md §4.E). Empty input yields an empty list.
//
// A `"` toggles phrase mode; the text between a matched pair becomes
// one Phrase with no escape handling. A lone trailing `"` is treated
// as if its closing quote were the end of the string. Outside phrase
// mode, runs of non-whitespace form a Term.
func Parse(raw string) []Item {
	var items []Item

	inPhrase := false
	var buf strings.Builder

	flushTerm := func() {
		if buf.Len() > 0 {
			items = append(items, Item{Kind: KindTerm, Text: buf.String()})
			buf.Reset()
		}
	}
	flushPhrase := func() {
		items = append(items, Item{Kind: KindPhrase, Text: buf.String()})
		buf.Reset()
	}

	for _, r := range raw {
		switch {
		case r == '"':
			if inPhrase {
				flushPhrase()
				inPhrase = false
			} else {
				flushTerm()
				inPhrase = true
			}

		case isSpace(r) && !inPhrase:
			flushTerm()

		default:
			buf.WriteRune(r)
		}
	}

	if inPhrase {
		// Lone trailing quote: its closer is treated as end-of-string.
		flushPhrase()
	} else {
		flushTerm()
	}

	return items
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
