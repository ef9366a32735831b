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

package tokenize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func terms(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Term
	}
	return out
}

func TestTokenizeLatinLowercasesAndSplits(t *testing.T) {
	tokens := Tokenize("Hello, World! Go1.24")
	require.Equal(t, []string{"hello", "world", "go1", "24"}, terms(tokens))
}

func TestTokenizePositionsAreSequential(t *testing.T) {
	tokens := Tokenize("alpha beta gamma")
	for i, tok := range tokens {
		require.Equal(t, i, tok.Position)
	}
}

func TestTokenizeOffsetsRoundTrip(t *testing.T) {
	text := "find bookmark"
	tokens := Tokenize(text)
	for _, tok := range tokens {
		require.Equal(t, tok.Term, text[tok.Start:tok.End])
	}
}

// TestTokenizeMixedJapaneseEnglish is the analyzer-parity fixture of
// spec.md §8: a title mixing an English brand token with a Japanese
// clause must surface tokens from both scripts, each with valid
// non-overlapping byte offsets, in document order.
func TestTokenizeMixedJapaneseEnglish(t *testing.T) {
	text := "Golang 入門ガイドを読む"
	tokens := Tokenize(text)
	require.NotEmpty(t, tokens)

	require.Equal(t, "golang", tokens[0].Term)

	last := -1
	for _, tok := range tokens {
		require.True(t, tok.Start >= last, "tokens must not overlap")
		require.True(t, tok.End > tok.Start)
		last = tok.End
	}

	var sawCJK bool
	for _, tok := range tokens[1:] {
		for _, r := range tok.Term {
			if isCJK(r) {
				sawCJK = true
			}
		}
	}
	require.True(t, sawCJK, "expected at least one CJK-segmented token")
}

func TestTokenizeEmptyInput(t *testing.T) {
	require.Empty(t, Tokenize(""))
}

func TestIsCJKBoundaries(t *testing.T) {
	require.True(t, isCJK('日'))
	require.True(t, isCJK('ひ'))
	require.True(t, isCJK('ド'))
	require.False(t, isCJK('a'))
	require.False(t, isCJK('5'))
}
