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

package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	bmquery "bmindex/pkg/query"
	"bmindex/pkg/schema"
	"bmindex/pkg/store"
)

func TestFederateDedupesByURLKeepingHigherScore(t *testing.T) {
	idxA, err := store.OpenOrCreate(t.TempDir(), "work")
	require.NoError(t, err)
	defer idxA.Close()
	idxB, err := store.OpenOrCreate(t.TempDir(), "personal")
	require.NoError(t, err)
	defer idxB.Close()

	indexDocs(t, idxA, schema.Document{ID: "1", URL: "https://shared.example/page", Title: "golang golang golang", ContentType: "html"})
	indexDocs(t, idxB, schema.Document{ID: "1", URL: "https://shared.example/page", Title: "golang", ContentType: "html"})

	hits, err := Federate(context.Background(), map[string]*store.Index{
		"work":     idxA,
		"personal": idxB,
	}, []string{"work", "personal"}, []bmquery.Item{{Kind: bmquery.KindTerm, Text: "golang"}}, Filters{}, 20)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.ElementsMatch(t, []string{"work", "personal"}, hits[0].OriginIndexes)
}

func TestFederateSkipsMissingIndexNames(t *testing.T) {
	idxA, err := store.OpenOrCreate(t.TempDir(), "work")
	require.NoError(t, err)
	defer idxA.Close()
	indexDocs(t, idxA, schema.Document{ID: "1", URL: "https://a.example", Title: "golang", ContentType: "html"})

	hits, err := Federate(context.Background(), map[string]*store.Index{
		"work": idxA,
	}, []string{"work", "nonexistent"}, []bmquery.Item{{Kind: bmquery.KindTerm, Text: "golang"}}, Filters{}, 20)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestFederateFailsOpenWhenOnePartitionErrors(t *testing.T) {
	idxA, err := store.OpenOrCreate(t.TempDir(), "work")
	require.NoError(t, err)
	defer idxA.Close()
	indexDocs(t, idxA, schema.Document{ID: "1", URL: "https://a.example", Title: "golang", ContentType: "html"})

	idxB, err := store.OpenOrCreate(t.TempDir(), "personal")
	require.NoError(t, err)
	indexDocs(t, idxB, schema.Document{ID: "2", URL: "https://b.example", Title: "golang", ContentType: "html"})
	require.NoError(t, idxB.Close()) // closed handle: its Search call errors

	hits, err := Federate(context.Background(), map[string]*store.Index{
		"work":     idxA,
		"personal": idxB,
	}, []string{"work", "personal"}, []bmquery.Item{{Kind: bmquery.KindTerm, Text: "golang"}}, Filters{}, 20)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "https://a.example", hits[0].URL)
}

func TestFederateSortsByScoreDescending(t *testing.T) {
	idxA, err := store.OpenOrCreate(t.TempDir(), "work")
	require.NoError(t, err)
	defer idxA.Close()
	indexDocs(t, idxA,
		schema.Document{ID: "1", URL: "https://a.example", Title: "golang", ContentType: "html"},
		schema.Document{ID: "2", URL: "https://b.example", Title: "golang golang golang", ContentType: "html"},
	)

	hits, err := Federate(context.Background(), map[string]*store.Index{"work": idxA},
		[]string{"work"}, []bmquery.Item{{Kind: bmquery.KindTerm, Text: "golang"}}, Filters{}, 20)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.True(t, hits[0].Score >= hits[1].Score)
}
