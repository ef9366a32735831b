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

// Package store implements the Index Store (spec.md §4.B): one
// on-disk bleve index per logical index name, opened with the single
// schema of pkg/schema, single-writer/multi-reader, with atomic
// upsert-by-delete-then-add batching.
//
// Mutex-guarded, name-addressed open/close lifecycle around bleve's
// own Index/Batch API.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"bmindex/pkg/errs"
	"bmindex/pkg/schema"
)

// Info describes one index directory for list_indexes / get_stats
// (spec.md §4.B, §4.J).
type Info struct {
	Name     string
	DocCount uint64
	SizeBytes int64
}

// registry tracks indexes this process currently has open for writing,
// so a second concurrent writer() call on the same name fails fast
// with IndexBusy before ever touching bleve's own on-disk lock.
var registry = struct {
	mu      sync.Mutex
	writers map[string]bool
}{writers: make(map[string]bool)}

// Index is a handle on one opened bleve index directory.
type Index struct {
	name string
	path string

	mu  sync.RWMutex
	idx bleve.Index
}

// OpenOrCreate opens the index at <baseDir>/<name>, creating the
// directory and schema mapping if it does not yet exist.
func OpenOrCreate(baseDir, name string) (*Index, error) {
	if err := schema.RegisterAnalyzers(); err != nil {
		return nil, errs.Internal("analyzer registration failed", err)
	}

	path := filepath.Join(baseDir, name)

	var bidx bleve.Index
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errs.Internal("failed to create index base directory", err)
		}
		mapping, err := schema.BuildMapping()
		if err != nil {
			return nil, errs.Internal("failed to build schema mapping", err)
		}
		bidx, err = bleve.New(path, mapping)
		if err != nil {
			return nil, errs.IndexCorrupt(name, err)
		}
	} else {
		bidx, err = bleve.Open(path)
		if err != nil {
			return nil, errs.IndexCorrupt(name, err)
		}
	}

	return &Index{name: name, path: path, idx: bidx}, nil
}

// Name returns the index's logical name.
func (x *Index) Name() string { return x.name }

// Path returns the index's on-disk directory.
func (x *Index) Path() string { return x.path }

// Bleve exposes the underlying index for the Searcher (§4.F), which
// needs direct access to run bleve.SearchRequest queries.
func (x *Index) Bleve() bleve.Index {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.idx
}

// Close releases the bleve index handle.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.idx == nil {
		return nil
	}
	err := x.idx.Close()
	x.idx = nil
	return err
}

// Writer is the exclusive batch-staging handle spec.md §4.B describes:
// upsert/delete calls stage into an in-flight batch, commit() flushes
// it as one generation, and heapBytes bounds how much staged content
// is allowed to accumulate before a batch is forced to abort.
type Writer struct {
	index     *Index
	heapBytes int

	mu         sync.Mutex
	batch      *bleve.Batch
	staged     int
	stagedSize int
}

// Writer acquires the exclusive writer lock for this index. A second
// concurrent call for the same index name within this process fails
// with IndexBusy via the registry map. The check is in-process only: a
// writer held by another process is not reported as IndexBusy, and
// OpenOrCreate reports any failure to open a directory as IndexCorrupt.
func (x *Index) Writer(heapBytes int) (*Writer, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.writers[x.name] {
		return nil, errs.IndexBusy(x.name)
	}
	registry.writers[x.name] = true

	return &Writer{index: x, heapBytes: heapBytes, batch: x.idx.NewBatch()}, nil
}

// Close releases the writer lock without committing any staged batch.
func (w *Writer) Close() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.writers, w.index.name)
}

// Upsert stages an atomic delete-by-id + add within the current batch
// (spec.md §4.B). It does not touch disk until Commit.
func (w *Writer) Upsert(doc schema.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	size := approxDocSize(doc)
	if w.heapBytes > 0 && w.stagedSize+size > w.heapBytes {
		w.abortLocked()
		return errs.HeapExhausted(w.index.name, fmt.Errorf("staged batch would exceed %d bytes", w.heapBytes))
	}

	w.batch.Delete(doc.ID)
	if err := w.batch.Index(doc.ID, doc); err != nil {
		return errs.Internal("failed to stage document", err)
	}
	w.staged++
	w.stagedSize += size
	return nil
}

// DeleteByID stages a delete for id; a Commit must follow to make it
// visible to readers (spec.md §4.B).
func (w *Writer) DeleteByID(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch.Delete(id)
	w.staged++
}

// Staged reports how many operations are pending in the current batch.
func (w *Writer) Staged() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.staged
}

// Commit flushes the staged batch as one new generation. Readers only
// observe documents after Commit returns successfully.
func (w *Writer) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.staged == 0 {
		return nil
	}

	if err := w.index.idx.Batch(w.batch); err != nil {
		w.resetLocked()
		return errs.Internal(fmt.Sprintf("commit failed for index %q", w.index.name), err)
	}

	w.resetLocked()
	return nil
}

// abortLocked discards the in-flight batch without committing it, used
// on a heap-exhaustion abort (spec.md §4.B Failure semantics).
func (w *Writer) abortLocked() {
	w.resetLocked()
}

func (w *Writer) resetLocked() {
	w.batch = w.index.idx.NewBatch()
	w.staged = 0
	w.stagedSize = 0
}

func approxDocSize(doc schema.Document) int {
	size := len(doc.ID) + len(doc.URL) + len(doc.Title) + len(doc.Content) + len(doc.Domain) + len(doc.ContentType)
	for _, seg := range doc.FolderPath {
		size += len(seg)
	}
	size += len(doc.PageOffsets) * 8
	return size
}

// List enumerates every index directory under baseDir, reporting name,
// document count, and on-disk size (spec.md §4.B).
func List(baseDir string) ([]Info, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Internal("failed to list base directory", err)
	}

	var infos []Info
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		path := filepath.Join(baseDir, name)

		idx, err := bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
		if err != nil {
			continue
		}
		count, _ := idx.DocCount()
		size, _ := dirSize(path)
		idx.Close()

		infos = append(infos, Info{Name: name, DocCount: count, SizeBytes: size})
	}
	return infos, nil
}

// Clear destroys an index directory entirely. Callers are responsible
// for also clearing the associated Metadata Ledger (spec.md §4.B).
func Clear(baseDir, name string) error {
	registry.mu.Lock()
	busy := registry.writers[name]
	registry.mu.Unlock()
	if busy {
		return errs.IndexBusy(name)
	}

	path := filepath.Join(baseDir, name)
	if err := os.RemoveAll(path); err != nil {
		return errs.Internal(fmt.Sprintf("failed to clear index %q", name), err)
	}
	return nil
}

// DirSize reports the on-disk size of an already-open index's
// directory, without reopening the bleve index itself (get_stats needs
// size alongside a doc count taken from a handle the caller already
// holds open).
func DirSize(baseDir, name string) (int64, error) {
	return dirSize(filepath.Join(baseDir, name))
}

func dirSize(path string) (int64, error) {
	var total int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
