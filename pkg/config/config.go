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

// Package config loads bmindex's small configuration surface: where the
// index stores live on disk, which indexes a query should federate
// across, and the ambient logging/batching knobs.
package config

import (
	"fmt"
	"strings"
)

// LogConfig configures the process-wide slog logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Config is bmindex's full configuration surface.
//
// Deliberately small: CLI flag parsing and the file layout of user
// preferences are external collaborators outside this repository's
// scope (spec.md §1 Non-goals); this struct only covers what the index
// engine, query engine, and ingestion protocol need to run.
type Config struct {
	// BaseDir is the root directory under which each named index keeps
	// its own subdirectory (spec.md §6 filesystem layout).
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`

	// IndexName is a comma-separated list of index names to federate
	// queries across (spec.md §4.G, §6). Overridden by the INDEX_NAME
	// environment variable at bridge startup.
	IndexName string `mapstructure:"index_name" yaml:"index_name"`

	// BatchCommitEvery bounds writer heap usage (spec.md §4.D step 4).
	BatchCommitEvery int `mapstructure:"batch_commit_every" yaml:"batch_commit_every"`

	// WriterHeapBytes is advisory heap budget passed to the Index Store
	// writer (spec.md §4.B).
	WriterHeapBytes int `mapstructure:"writer_heap_bytes" yaml:"writer_heap_bytes"`

	// MetricsAddr is the listen address for the internal /metrics and
	// /healthz HTTP server. Empty disables it.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// IndexNames splits IndexName on commas, trimming whitespace and
// dropping empty segments.
func (c *Config) IndexNames() []string {
	return splitIndexList(c.IndexName)
}

func splitIndexList(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Default returns a Config populated with bmindex's defaults.
func Default() *Config {
	return &Config{
		BaseDir:          "./data",
		BatchCommitEvery: 50,
		WriterHeapBytes:  256 << 20,
		Log: LogConfig{
			Level:  "info",
			Format: "simple",
		},
	}
}

// Validate checks the config for internally inconsistent values.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	if c.BatchCommitEvery <= 0 {
		return fmt.Errorf("batch_commit_every must be positive, got %d", c.BatchCommitEvery)
	}
	if c.WriterHeapBytes <= 0 {
		return fmt.Errorf("writer_heap_bytes must be positive, got %d", c.WriterHeapBytes)
	}
	return nil
}
