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

package main

import (
	"fmt"
	"os"

	"bmindex/pkg/config"
	"bmindex/pkg/logger"
)

// initLogger wires the process-wide slog logger from config, matching
// the priority order a CLI flag takes over configuration (explicit
// override first, then config file, then built-in defaults). Stdout is
// reserved for the JSON-RPC stream, so logs always go to stderr.
func initLogger(cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	return logger.Init(level, os.Stderr, cfg.Log.Format)
}
