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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"bmindex/pkg/adapter"
	"bmindex/pkg/control"
	"bmindex/pkg/errs"
	"bmindex/pkg/ledger"
	"bmindex/pkg/logger"
	"bmindex/pkg/metrics"
	"bmindex/pkg/store"
)

// Version is reported by ping; bumped with the schema version.
const Version = "1.0.0"

// Server dispatches JSON-RPC requests against a directory of Index
// Stores, one per logical index name (spec.md §4.D).
type Server struct {
	baseDir          string
	batchCommitEvery int
	writerHeapBytes  int
	metrics          *metrics.Registry
	queryService     *adapter.Service
	queryLog         *control.QueryLog

	mu      sync.Mutex
	indexes map[string]*store.Index

	legacyMu      sync.Mutex
	legacyBatches map[string][]BookmarkParam
}

// NewServer constructs a Server rooted at baseDir. A nil metrics
// registry disables instrumentation.
func NewServer(baseDir string, batchCommitEvery, writerHeapBytes int, reg *metrics.Registry) *Server {
	return &Server{
		baseDir:          baseDir,
		batchCommitEvery: batchCommitEvery,
		writerHeapBytes:  writerHeapBytes,
		metrics:          reg,
		indexes:          make(map[string]*store.Index),
		legacyBatches:    make(map[string][]BookmarkParam),
	}
}

// OpenIndex returns the cached handle for name, opening it if this is
// the first reference. Exported so cmd/bmindexd can hand the same
// handles to the query-adapter surface instead of opening each index
// directory a second time.
func (s *Server) OpenIndex(name string) (*store.Index, error) {
	return s.openIndex(name)
}

// openIndex returns the cached handle for name, opening it if this is
// the first reference.
func (s *Server) openIndex(name string) (*store.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.indexes[name]; ok {
		return idx, nil
	}
	idx, err := store.OpenOrCreate(s.baseDir, name)
	if err != nil {
		return nil, err
	}
	s.indexes[name] = idx
	return idx, nil
}

// Close releases every index handle this server has opened.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, idx := range s.indexes {
		idx.Close()
	}
	s.indexes = make(map[string]*store.Index)
}

// Serve runs the duplex stdio loop: read one framed request, dispatch
// it, write back one framed response. It returns when r hits EOF or a
// framing error occurs.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	br := bufio.NewReaderSize(r, 64*1024)
	fw := newFrameWriter(w)

	for {
		msg, err := ReadMessage(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("ingest: failed to read frame: %w", err)
		}

		resp := s.handleFrame(msg)

		data, err := json.Marshal(resp)
		if err != nil {
			slog.Error("ingest: failed to marshal response", "error", err)
			continue
		}
		if err := fw.WriteMessage(data); err != nil {
			return fmt.Errorf("ingest: failed to write frame: %w", err)
		}
	}
}

func (s *Server) handleFrame(msg []byte) Response {
	log := logger.WithRequestID(nil, uuid.NewString())

	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		log.Warn("ingest: malformed request", "error", err)
		return Response{JSONRPC: "2.0", Error: &RPCError{Code: int(errs.CodeInvalidRequest), Message: "malformed JSON-RPC request"}}
	}

	result, err := s.Dispatch(req.Method, req.Params)
	if err != nil {
		log.Warn("ingest: request failed", "method", req.Method, "error", err)
		return Response{JSONRPC: "2.0", ID: req.ID, Error: ErrorFrom(err)}
	}
	log.Debug("ingest: request handled", "method", req.Method)
	return Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// Dispatch routes one method call to its handler (spec.md §4.D
// request methods table, plus the legacy batch compatibility aliases).
func (s *Server) Dispatch(method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "ping":
		return map[string]string{"status": "ok", "version": Version}, nil

	case "index_bookmark":
		return s.handleIndexBookmark(params)
	case "index_bookmarks_batch":
		return s.handleIndexBookmarksBatch(params)
	case "check_for_updates":
		return s.handleCheckForUpdates(params)
	case "list_indexes":
		return s.handleListIndexes()
	case "get_stats":
		return s.handleGetStats(params)
	case "clear_index":
		return s.handleClearIndex(params)
	case "clear_all_indexes":
		return s.handleClearAllIndexes(params)

	case "search_fulltext":
		return s.handleSearchFulltext(params)
	case "get_bookmark_content":
		return s.handleGetBookmarkContent(params)
	case "get_bookmark_content_range":
		return s.handleGetBookmarkContentRange(params)
	case "get_indexing_status":
		return s.handleGetIndexingStatus(params)
	case "get_recent_queries":
		return s.handleGetRecentQueries(params)

	case "index_bookmarks_batch_start":
		return s.handleLegacyBatchStart(params)
	case "index_bookmarks_batch_add":
		return s.handleLegacyBatchAdd(params)
	case "index_bookmarks_batch_end":
		return s.handleLegacyBatchEnd(params)

	default:
		return nil, &errs.CoreError{Code: errs.CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", method)}
	}
}

func (s *Server) handleIndexBookmark(params json.RawMessage) (interface{}, error) {
	var p IndexBookmarkParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errs.InvalidParams("malformed index_bookmark params: " + err.Error())
	}

	result, err := s.runBatch(p.IndexName, []BookmarkParam{p.BookmarkParam})
	if err != nil {
		return nil, err
	}
	if result.Failed > 0 {
		msg := fmt.Sprintf("failed to index bookmark %q", p.ID)
		if len(result.Errors) > 0 {
			msg = result.Errors[0].Error
		}
		return nil, errs.Internal(msg, errors.New(msg))
	}
	if result.Indexed > 0 {
		return map[string]string{"status": "indexed"}, nil
	}
	return map[string]string{"status": "skipped"}, nil
}

func (s *Server) handleIndexBookmarksBatch(params json.RawMessage) (interface{}, error) {
	var p IndexBookmarksBatchParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errs.InvalidParams("malformed index_bookmarks_batch params: " + err.Error())
	}
	return s.runBatch(p.IndexName, p.Bookmarks)
}

func (s *Server) handleCheckForUpdates(params json.RawMessage) (interface{}, error) {
	var p CheckForUpdatesParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errs.InvalidParams("malformed check_for_updates params: " + err.Error())
	}

	led, err := ledger.Load(s.baseDir, p.IndexName)
	if err != nil {
		return nil, errs.Internal("failed to load ledger", err)
	}

	inputs := make([]ledger.CheckInput, len(p.Bookmarks))
	for i, b := range p.Bookmarks {
		inputs[i] = ledger.CheckInput{ID: b.ID, DateModified: b.DateModified}
	}

	newIDs, updated, unchanged := led.CheckForUpdates(inputs)
	return map[string]interface{}{
		"new_bookmarks":       orEmpty(newIDs),
		"updated_bookmarks":   orEmpty(updated),
		"unchanged_bookmarks": orEmpty(unchanged),
	}, nil
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func (s *Server) handleListIndexes() (interface{}, error) {
	infos, err := store.List(s.baseDir)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(infos))
	for _, info := range infos {
		out = append(out, map[string]interface{}{
			"name":      info.Name,
			"doc_count": info.DocCount,
			"size":      info.SizeBytes,
		})
	}
	return map[string]interface{}{"indexes": out}, nil
}

func (s *Server) handleGetStats(params json.RawMessage) (interface{}, error) {
	var p GetStatsParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errs.InvalidParams("malformed get_stats params: " + err.Error())
	}

	idx, err := s.openIndex(p.IndexName)
	if err != nil {
		return nil, err
	}
	count, err := idx.Bleve().DocCount()
	if err != nil {
		return nil, errs.Internal("failed to read doc count", err)
	}

	led, err := ledger.Load(s.baseDir, p.IndexName)
	if err != nil {
		return nil, errs.Internal("failed to load ledger", err)
	}

	size, err := store.DirSize(s.baseDir, p.IndexName)
	if err != nil {
		return nil, errs.Internal("failed to measure index size", err)
	}

	return map[string]interface{}{
		"doc_count":    count,
		"size":         size,
		"last_updated": led.LastUpdated(),
	}, nil
}

func (s *Server) handleClearIndex(params json.RawMessage) (interface{}, error) {
	var p ClearIndexParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errs.InvalidParams("malformed clear_index params: " + err.Error())
	}

	s.evictIndex(p.IndexName)
	if err := control.ClearIndex(s.baseDir, p.IndexName); err != nil {
		return nil, err
	}
	return map[string]string{"status": "cleared"}, nil
}

func (s *Server) handleClearAllIndexes(_ json.RawMessage) (interface{}, error) {
	s.evictAllIndexes()
	if err := control.ClearAllIndexes(s.baseDir); err != nil {
		return nil, err
	}
	return map[string]string{"status": "cleared"}, nil
}

// evictIndex closes and forgets this server's cached handle for name,
// if any, so a subsequent clear_index doesn't remove a directory out
// from under an open bleve.Index.
func (s *Server) evictIndex(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[name]; ok {
		idx.Close()
		delete(s.indexes, name)
	}
}

func (s *Server) evictAllIndexes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, idx := range s.indexes {
		idx.Close()
	}
	s.indexes = make(map[string]*store.Index)
}

// --- Legacy parallel-indexing compatibility aliases ---
//
// index_bookmarks_batch_start/_add/_end accumulate bookmarks into an
// in-memory buffer keyed by index_name, then replay the same
// runBatch algorithm on _end (spec.md §9 open question #2).

func (s *Server) handleLegacyBatchStart(params json.RawMessage) (interface{}, error) {
	var p struct {
		IndexName string `json:"index_name"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errs.InvalidParams("malformed index_bookmarks_batch_start params: " + err.Error())
	}

	s.legacyMu.Lock()
	defer s.legacyMu.Unlock()
	s.legacyBatches[p.IndexName] = nil
	return map[string]string{"status": "started"}, nil
}

func (s *Server) handleLegacyBatchAdd(params json.RawMessage) (interface{}, error) {
	var p struct {
		IndexName string          `json:"index_name"`
		Bookmarks []BookmarkParam `json:"bookmarks"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errs.InvalidParams("malformed index_bookmarks_batch_add params: " + err.Error())
	}

	s.legacyMu.Lock()
	defer s.legacyMu.Unlock()
	s.legacyBatches[p.IndexName] = append(s.legacyBatches[p.IndexName], p.Bookmarks...)
	return map[string]int{"buffered": len(s.legacyBatches[p.IndexName])}, nil
}

func (s *Server) handleLegacyBatchEnd(params json.RawMessage) (interface{}, error) {
	var p struct {
		IndexName string `json:"index_name"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, errs.InvalidParams("malformed index_bookmarks_batch_end params: " + err.Error())
	}

	s.legacyMu.Lock()
	bookmarks := s.legacyBatches[p.IndexName]
	delete(s.legacyBatches, p.IndexName)
	s.legacyMu.Unlock()

	return s.runBatch(p.IndexName, bookmarks)
}
