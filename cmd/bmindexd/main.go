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

// Command bmindexd is the native-messaging host for the local bookmark
// full-text search core: it speaks length-prefixed JSON-RPC 2.0 over
// stdin/stdout (spec.md §4.D) and exposes an internal HTTP server for
// /healthz and /metrics, since the native-messaging channel itself
// isn't reachable by an external liveness prober.
//
// Usage:
//
//	bmindexd serve --config bmindex.yaml
//	bmindexd version
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"bmindex/pkg/adapter"
	"bmindex/pkg/config"
	"bmindex/pkg/control"
	"bmindex/pkg/ingest"
	"bmindex/pkg/metrics"
	"bmindex/pkg/schema"
	"bmindex/pkg/store"
	"bmindex/pkg/watch"
)

// CLI defines bmindexd's command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Run the ingestion/query daemon over stdio."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config string `short:"c" help:"Path to YAML config file." type:"path"`
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("bmindexd %s (protocol %s)\n", version, ingest.Version)
	return nil
}

// ServeCmd runs the daemon until it receives a shutdown signal or its
// stdin is closed.
type ServeCmd struct{}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := initLogger(cfg); err != nil {
		return err
	}

	if err := schema.RegisterAnalyzers(); err != nil {
		return fmt.Errorf("failed to register analyzers: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("bmindexd: shutting down")
		cancel()
	}()

	reg := metrics.New()

	srv := ingest.NewServer(cfg.BaseDir, cfg.BatchCommitEvery, cfg.WriterHeapBytes, reg)
	defer srv.Close()

	svc := &adapter.Service{
		BaseDir: cfg.BaseDir,
		Metrics: reg,
		Indexes: func(names []string) (map[string]*store.Index, error) {
			out := make(map[string]*store.Index, len(names))
			for _, name := range names {
				idx, err := srv.OpenIndex(name)
				if err != nil {
					return nil, err
				}
				out[name] = idx
			}
			return out, nil
		},
	}

	ql, err := control.OpenQueryLog(cfg.BaseDir)
	if err != nil {
		slog.Warn("bmindexd: query log unavailable", "error", err)
	} else {
		defer ql.Close()
	}

	srv.AttachQueryService(svc, ql)

	if cfg.MetricsAddr != "" {
		httpSrv := newHTTPServer(cfg.MetricsAddr, reg)
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("bmindexd: metrics server failed", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()
		slog.Info("bmindexd: metrics listening", "addr", cfg.MetricsAddr)
	}

	watcher, err := watch.New(cfg.BaseDir, func() {
		slog.Debug("bmindexd: index directory changed")
	})
	if err != nil {
		slog.Warn("bmindexd: base directory watch disabled", "error", err)
	} else {
		go watcher.Run(ctx)
	}

	slog.Info("bmindexd: serving", "base_dir", cfg.BaseDir, "index_name", cfg.IndexName)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- srv.Serve(os.Stdin, os.Stdout)
	}()

	select {
	case err := <-serveErrCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func newHTTPServer(addr string, reg *metrics.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("bmindexd"),
		kong.Description("Local bookmark full-text search daemon"),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
