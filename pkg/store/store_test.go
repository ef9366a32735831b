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

package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"bmindex/pkg/errs"
	"bmindex/pkg/schema"
)

func TestOpenOrCreateBuildsFreshIndex(t *testing.T) {
	idx, err := OpenOrCreate(t.TempDir(), "bookmarks")
	require.NoError(t, err)
	defer idx.Close()

	count, err := idx.Bleve().DocCount()
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestWriterUpsertAndCommitIsVisible(t *testing.T) {
	idx, err := OpenOrCreate(t.TempDir(), "bookmarks")
	require.NoError(t, err)
	defer idx.Close()

	w, err := idx.Writer(0)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Upsert(schema.Document{ID: "1", URL: "https://example.com", Title: "Example"}))
	require.NoError(t, w.Commit())

	count, err := idx.Bleve().DocCount()
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestWriterExclusiveLockReturnsIndexBusy(t *testing.T) {
	idx, err := OpenOrCreate(t.TempDir(), "bookmarks")
	require.NoError(t, err)
	defer idx.Close()

	w1, err := idx.Writer(0)
	require.NoError(t, err)
	defer w1.Close()

	_, err = idx.Writer(0)
	require.Error(t, err)

	var coreErr *errs.CoreError
	require.True(t, errors.As(err, &coreErr))
	require.Equal(t, errs.CodeIndexBusy, coreErr.Code)
}

func TestWriterCloseReleasesLock(t *testing.T) {
	idx, err := OpenOrCreate(t.TempDir(), "bookmarks")
	require.NoError(t, err)
	defer idx.Close()

	w1, err := idx.Writer(0)
	require.NoError(t, err)
	w1.Close()

	w2, err := idx.Writer(0)
	require.NoError(t, err)
	defer w2.Close()
}

func TestUpsertHeapExhaustedAbortsBatch(t *testing.T) {
	idx, err := OpenOrCreate(t.TempDir(), "bookmarks")
	require.NoError(t, err)
	defer idx.Close()

	w, err := idx.Writer(8) // tiny heap budget
	require.NoError(t, err)
	defer w.Close()

	err = w.Upsert(schema.Document{ID: "1", Content: "far more content than the heap budget allows"})
	require.Error(t, err)

	var coreErr *errs.CoreError
	require.True(t, errors.As(err, &coreErr))
	require.Equal(t, errs.CodeHeapExhausted, coreErr.Code)
	require.Zero(t, w.Staged())
}

func TestDeleteByIDThenCommitRemovesDocument(t *testing.T) {
	idx, err := OpenOrCreate(t.TempDir(), "bookmarks")
	require.NoError(t, err)
	defer idx.Close()

	w, err := idx.Writer(0)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Upsert(schema.Document{ID: "1", Title: "doomed"}))
	require.NoError(t, w.Commit())

	w.DeleteByID("1")
	require.NoError(t, w.Commit())

	count, err := idx.Bleve().DocCount()
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestListReportsDocCount(t *testing.T) {
	base := t.TempDir()
	idx, err := OpenOrCreate(base, "bookmarks")
	require.NoError(t, err)

	w, err := idx.Writer(0)
	require.NoError(t, err)
	require.NoError(t, w.Upsert(schema.Document{ID: "1", Title: "one"}))
	require.NoError(t, w.Commit())
	w.Close()
	idx.Close()

	infos, err := List(base)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "bookmarks", infos[0].Name)
	require.EqualValues(t, 1, infos[0].DocCount)
}

func TestClearRemovesDirectory(t *testing.T) {
	base := t.TempDir()
	idx, err := OpenOrCreate(base, "bookmarks")
	require.NoError(t, err)
	idx.Close()

	require.NoError(t, Clear(base, "bookmarks"))

	infos, err := List(base)
	require.NoError(t, err)
	require.Empty(t, infos)
}
