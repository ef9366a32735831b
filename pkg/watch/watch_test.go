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

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBaseDirWatcherFiresOnNewSubdirectory(t *testing.T) {
	base := t.TempDir()

	var fired atomic.Int32
	w, err := New(base, func() { fired.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.NoError(t, os.Mkdir(filepath.Join(base, "newindex"), 0o755))

	require.Eventually(t, func() bool {
		return fired.Load() > 0
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
