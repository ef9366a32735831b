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

// Query-log diagnostics: an optional sqlite-backed record of recent
// searches, surfaced through get_recent_queries. Uses plain
// database/sql against the sqlite3 driver since this is a
// single-process local service.
package control

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const createQueryLogTableSQL = `
CREATE TABLE IF NOT EXISTS query_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	index_name VARCHAR(255) NOT NULL,
	query_text TEXT NOT NULL,
	result_count INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	queried_at INTEGER NOT NULL
)`

const createQueryLogIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_query_log_index_queried_at
ON query_log(index_name, queried_at DESC)`

// QueryLog is the diagnostics sidecar database, one per base
// directory (shared across all logical indexes).
type QueryLog struct {
	db *sql.DB
}

// OpenQueryLog opens (creating if absent) the sqlite diagnostics
// database at <baseDir>/query_log.db.
func OpenQueryLog(baseDir string) (*QueryLog, error) {
	path := filepath.Join(baseDir, "query_log.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("control: failed to open query log: %w", err)
	}
	// A single writer connection avoids sqlite's "database is locked"
	// errors under concurrent federated queries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createQueryLogTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("control: failed to create query_log table: %w", err)
	}
	if _, err := db.Exec(createQueryLogIndexSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("control: failed to create query_log index: %w", err)
	}

	return &QueryLog{db: db}, nil
}

// Close releases the underlying database connection.
func (q *QueryLog) Close() error {
	return q.db.Close()
}

// Record appends one query to the log.
func (q *QueryLog) Record(ctx context.Context, indexName, queryText string, resultCount int, durationMs int64, queriedAt int64) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO query_log (index_name, query_text, result_count, duration_ms, queried_at) VALUES (?, ?, ?, ?, ?)`,
		indexName, queryText, resultCount, durationMs, queriedAt)
	if err != nil {
		return fmt.Errorf("control: failed to record query: %w", err)
	}
	return nil
}

// RecentQuery is one get_recent_queries row.
type RecentQuery struct {
	QueryText   string `json:"query"`
	ResultCount int    `json:"result_count"`
	DurationMs  int64  `json:"duration_ms"`
	QueriedAt   int64  `json:"queried_at"`
}

// GetRecentQueries returns the most recent queries against indexName,
// newest first, bounded by limit.
func (q *QueryLog) GetRecentQueries(ctx context.Context, indexName string, limit int) ([]RecentQuery, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT query_text, result_count, duration_ms, queried_at FROM query_log
		 WHERE index_name = ? ORDER BY queried_at DESC LIMIT ?`,
		indexName, limit)
	if err != nil {
		return nil, fmt.Errorf("control: failed to query recent queries: %w", err)
	}
	defer rows.Close()

	var out []RecentQuery
	for rows.Next() {
		var r RecentQuery
		if err := rows.Scan(&r.QueryText, &r.ResultCount, &r.DurationMs, &r.QueriedAt); err != nil {
			return nil, fmt.Errorf("control: failed to scan recent query row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
