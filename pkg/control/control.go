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

// Package control implements the Control Interface (spec.md §4.J):
// listing, stats, and destructive clear operations over the Index
// Store and Metadata Ledger.
package control

import (
	"bmindex/pkg/ledger"
	"bmindex/pkg/store"
)

// IndexSummary is one list_indexes entry.
type IndexSummary struct {
	Name     string
	DocCount uint64
	SizeBytes int64
}

// ListIndexes delegates to the Index Store (spec.md §4.B).
func ListIndexes(baseDir string) ([]IndexSummary, error) {
	infos, err := store.List(baseDir)
	if err != nil {
		return nil, err
	}
	out := make([]IndexSummary, len(infos))
	for i, info := range infos {
		out[i] = IndexSummary{Name: info.Name, DocCount: info.DocCount, SizeBytes: info.SizeBytes}
	}
	return out, nil
}

// Stats is the get_stats result shape.
type Stats struct {
	DocCount    uint64
	SizeBytes   int64
	LastUpdated float64
}

// GetStats reports doc count (from the opened index), on-disk size
// (recursive directory size via store.DirSize), and last-updated
// timestamp (from the ledger) for one index (spec.md §4.J).
func GetStats(baseDir, name string) (Stats, error) {
	idx, err := store.OpenOrCreate(baseDir, name)
	if err != nil {
		return Stats{}, err
	}
	defer idx.Close()

	count, err := idx.Bleve().DocCount()
	if err != nil {
		return Stats{}, err
	}

	size, err := store.DirSize(baseDir, name)
	if err != nil {
		return Stats{}, err
	}

	led, err := ledger.Load(baseDir, name)
	if err != nil {
		return Stats{}, err
	}

	return Stats{DocCount: count, SizeBytes: size, LastUpdated: led.LastUpdated()}, nil
}

// ClearIndex destroys an index directory and its ledger, writer-
// exclusive (spec.md §4.J).
func ClearIndex(baseDir, name string) error {
	if err := store.Clear(baseDir, name); err != nil {
		return err
	}
	return ledger.Clear(baseDir, name)
}

// ClearAllIndexes clears every index under baseDir.
func ClearAllIndexes(baseDir string) error {
	infos, err := store.List(baseDir)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if err := ClearIndex(baseDir, info.Name); err != nil {
			return err
		}
	}
	return nil
}
