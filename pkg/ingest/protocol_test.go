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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"bmindex/pkg/errs"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	fw := newFrameWriter(&buf)

	require.NoError(t, fw.WriteMessage([]byte(`{"jsonrpc":"2.0","method":"ping"}`)))

	msg, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, `{"jsonrpc":"2.0","method":"ping"}`, string(msg))
}

func TestReadMessageRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], MaxMessageBytes+1)
	buf.Write(lenBuf[:])

	_, err := ReadMessage(&buf)
	require.Error(t, err)
}

func TestErrorFromMapsCoreErrorCode(t *testing.T) {
	err := ErrorFrom(errs.IndexBusy("bookmarks"))
	require.NotNil(t, err)
	require.Equal(t, -32001, err.Code)
}

func TestErrorFromWrapsGenericError(t *testing.T) {
	err := ErrorFrom(bytes.ErrTooLarge)
	require.NotNil(t, err)
	require.Equal(t, -32603, err.Code)
}
