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

// Package errs defines the index-state and data-shape error kinds named
// in spec.md §6/§7, each carrying the JSON-RPC error code it maps to.
package errs

import "fmt"

// Code identifies a bmindex error kind. Values line up with spec.md §6's
// JSON-RPC error code table.
type Code int

const (
	CodeInvalidRequest   Code = -32600
	CodeMethodNotFound   Code = -32601
	CodeInvalidParams    Code = -32602
	CodeInternal         Code = -32603
	CodeIndexBusy        Code = -32001
	CodeIndexCorrupt     Code = -32002
	CodeHeapExhausted    Code = -32003
	CodeNotFound         Code = -32004
	CodePageOutOfRange   Code = -32005
	CodeNotPaginated     Code = -32005
)

func (c Code) String() string {
	switch c {
	case CodeInvalidRequest:
		return "InvalidRequest"
	case CodeMethodNotFound:
		return "MethodNotFound"
	case CodeInvalidParams:
		return "InvalidParams"
	case CodeInternal:
		return "Internal"
	case CodeIndexBusy:
		return "IndexBusy"
	case CodeIndexCorrupt:
		return "IndexCorrupt"
	case CodeHeapExhausted:
		return "IndexHeapExhausted"
	case CodeNotFound:
		return "NotFound"
	case CodePageOutOfRange:
		return "PageOutOfRange"
	default:
		return "Unknown"
	}
}

// CoreError is the typed error every index-state and data-shape failure
// in spec.md §7 is reported as.
type CoreError struct {
	Code    Code
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Err }

func newErr(code Code, message string, cause error) *CoreError {
	return &CoreError{Code: code, Message: message, Err: cause}
}

// IndexBusy reports that another writer already holds the index's
// exclusive lock (spec.md §4.B).
func IndexBusy(indexName string) *CoreError {
	return newErr(CodeIndexBusy, fmt.Sprintf("index %q is locked by another writer", indexName), nil)
}

// IndexCorrupt reports that an index's on-disk state could not be
// opened (spec.md §4.B Failure semantics).
func IndexCorrupt(indexName string, cause error) *CoreError {
	return newErr(CodeIndexCorrupt, fmt.Sprintf("index %q is corrupt", indexName), cause)
}

// HeapExhausted reports a writer heap OOM during a batch (spec.md §4.B).
func HeapExhausted(indexName string, cause error) *CoreError {
	return newErr(CodeHeapExhausted, fmt.Sprintf("writer heap exhausted for index %q", indexName), cause)
}

// NotFound reports that a document id does not exist (spec.md §4.I).
func NotFound(docID string) *CoreError {
	return newErr(CodeNotFound, fmt.Sprintf("document %q not found", docID), nil)
}

// NotPaginated reports a content-range request against a document that
// has no page_offsets (spec.md §4.I step 2).
func NotPaginated(docID string) *CoreError {
	return newErr(CodeNotPaginated, fmt.Sprintf("document %q is not a paginated document", docID), nil)
}

// PageOutOfRange reports an invalid from/to page range (spec.md §4.I
// step 3).
func PageOutOfRange(docID string, from, to, pageCount int) *CoreError {
	return newErr(CodePageOutOfRange, fmt.Sprintf(
		"document %q: page range [%d,%d] invalid for page_count=%d", docID, from, to, pageCount), nil)
}

// InvalidParams reports a malformed JSON-RPC request body.
func InvalidParams(message string) *CoreError {
	return newErr(CodeInvalidParams, message, nil)
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *CoreError {
	return newErr(CodeInternal, message, cause)
}
