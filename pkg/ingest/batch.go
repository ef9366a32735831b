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
	"fmt"
	"time"

	"bmindex/pkg/errs"
	"bmindex/pkg/ledger"
)

// runBatch is the batch algorithm of spec.md §4.D: acquire the
// writer, load the ledger, stage each document (skipping unchanged
// ones), commit every commitEvery staged documents, and flush the
// ledger alongside each commit.
func (s *Server) runBatch(indexName string, bookmarks []BookmarkParam) (*BatchResult, error) {
	started := time.Now()

	idx, err := s.openIndex(indexName)
	if err != nil {
		return nil, err
	}

	w, err := idx.Writer(s.writerHeapBytes)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	led, err := ledger.Load(s.baseDir, indexName)
	if err != nil {
		return nil, errs.Internal("failed to load ledger", err)
	}

	result := &BatchResult{}
	commitEvery := s.batchCommitEvery
	if commitEvery <= 0 {
		commitEvery = 50
	}

	flush := func() error {
		commitStarted := time.Now()
		if err := w.Commit(); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.CommitDuration.WithLabelValues(indexName).Observe(time.Since(commitStarted).Seconds())
		}
		return led.Flush()
	}

	for _, bm := range bookmarks {
		hash := ledger.ContentHash(bm.Content)

		if entry, ok := led.Get(bm.ID); ok && entry.ContentHash == hash && bm.skipIfUnchanged() {
			result.Skipped++
			continue
		}

		if err := w.Upsert(bm.toDocument()); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, FailedDoc{ID: bm.ID, Error: err.Error()})
			continue
		}

		led.Put(bm.ID, ledger.Entry{
			ContentHash:  hash,
			DateModified: bm.DateModified,
			IndexedAt:    float64(time.Now().Unix()),
		})
		result.Indexed++

		if w.Staged() >= commitEvery {
			if err := flush(); err != nil {
				return nil, errs.Internal(fmt.Sprintf("commit failed for index %q", indexName), err)
			}
		}
	}

	if err := flush(); err != nil {
		return nil, errs.Internal(fmt.Sprintf("final commit failed for index %q", indexName), err)
	}

	result.DurationMs = time.Since(started).Milliseconds()
	s.recordBatchMetrics(indexName, result, time.Since(started))
	return result, nil
}

func (s *Server) recordBatchMetrics(indexName string, result *BatchResult, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.BatchDocsIndexed.WithLabelValues(indexName).Add(float64(result.Indexed))
	s.metrics.BatchDocsSkipped.WithLabelValues(indexName).Add(float64(result.Skipped))
	s.metrics.BatchDocsFailed.WithLabelValues(indexName).Add(float64(result.Failed))
	s.metrics.BatchDuration.WithLabelValues(indexName).Observe(elapsed.Seconds())
}
