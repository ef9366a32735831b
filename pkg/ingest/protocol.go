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

// Package ingest implements the Ingestion Service (spec.md §4.D): a
// length-prefixed JSON-RPC 2.0 duplex stream over stdio between the
// browser agent and the native host.
//
// The wire envelope is adapted from pkg/transport/jsonrpc_handler.go's
// JSONRPCRequest/JSONRPCResponse/RPCError shape; the framing (4-byte
// little-endian length prefix) replaces that file's HTTP transport
// with the native-messaging style duplex stream spec.md §4.D calls
// for.
package ingest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"bmindex/pkg/errs"
)

// MaxMessageBytes is the maximum single framed message size (spec.md
// §4.D).
const MaxMessageBytes = 64 * 1024 * 1024

// Request is one JSON-RPC 2.0 call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC 2.0 reply, carrying either Result or Error.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorFrom converts a bmindex CoreError (or a generic error, which
// maps to Internal) into a wire RPCError.
func ErrorFrom(err error) *RPCError {
	if err == nil {
		return nil
	}
	var coreErr *errs.CoreError
	if asCoreError(err, &coreErr) {
		return &RPCError{Code: int(coreErr.Code), Message: coreErr.Message}
	}
	return &RPCError{Code: int(errs.CodeInternal), Message: err.Error()}
}

func asCoreError(err error, target **errs.CoreError) bool {
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if ce, ok := err.(*errs.CoreError); ok {
			*target = ce
			return true
		}
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// frameWriter serializes writes to a shared stdout stream so concurrent
// responses never interleave their length prefix and body.
type frameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newFrameWriter(w io.Writer) *frameWriter {
	return &frameWriter{w: w}
}

// WriteMessage frames data with a 4-byte little-endian length prefix
// and writes it atomically with respect to other WriteMessage calls.
func (f *frameWriter) WriteMessage(data []byte) error {
	if len(data) > MaxMessageBytes {
		return fmt.Errorf("ingest: outgoing message of %d bytes exceeds max %d", len(data), MaxMessageBytes)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := f.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := f.w.Write(data)
	return err
}

// ReadMessage reads one length-prefixed frame from r, rejecting
// frames larger than MaxMessageBytes before allocating their buffer.
func ReadMessage(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	size := binary.LittleEndian.Uint32(lenBuf[:])
	if size > MaxMessageBytes {
		return nil, fmt.Errorf("ingest: incoming message of %d bytes exceeds max %d", size, MaxMessageBytes)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
