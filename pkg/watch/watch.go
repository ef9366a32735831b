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

// Package watch optionally watches the index base directory for
// externally created or removed index subdirectories and calls a
// callback for each such event. The package caches nothing itself;
// list_indexes keeps no cache either and rescans the base directory on
// every call, so bmindexd's callback only logs the change. Uses fsnotify's standard
// NewWatcher/Add/event-loop/Close lifecycle, narrowed from per-file
// content watching to directory-create/remove events.
package watch

import (
	"context"
	"log/slog"
	"os"

	"github.com/fsnotify/fsnotify"
)

// BaseDirWatcher notifies a callback whenever a top-level entry under
// the base directory is created or removed.
type BaseDirWatcher struct {
	baseDir  string
	watcher  *fsnotify.Watcher
	onChange func()
}

// New creates a watcher rooted at baseDir. The directory is created if
// it does not yet exist, matching OpenOrCreate's own lazy-create
// behavior.
func New(baseDir string, onChange func()) (*BaseDirWatcher, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(baseDir); err != nil {
		w.Close()
		return nil, err
	}

	return &BaseDirWatcher{baseDir: baseDir, watcher: w, onChange: onChange}, nil
}

// Run blocks, dispatching onChange for create/remove/rename events
// until ctx is cancelled.
func (b *BaseDirWatcher) Run(ctx context.Context) error {
	defer b.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-b.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				slog.Debug("watch: base directory changed", "event", event.Op.String(), "name", event.Name)
				b.onChange()
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch: fsnotify error", "error", err)
		}
	}
}
