// Copyright 2025 Florian Zenker (flo@znkr.io)
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

// Package store persists the results of batch runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"znkr.io/twinalign/internal/metrics"
	"znkr.io/twinalign/internal/store/migrations"
	_ "modernc.org/sqlite"
)

// ErrInvalidRun is returned by [Store.Record] for runs that lack required fields.
var ErrInvalidRun = errors.New("store: invalid run")

// Run is the result of aligning one pair of traces with one combination of hyperparameters.
type Run struct {
	ID        int64
	Scenario  string
	Algorithm string
	Params    map[string]float64
	Score     float64
	Objective string
	Metrics   metrics.Report
	LCA       metrics.Report
	Elapsed   time.Duration
	CreatedAt time.Time
}

// Store is a SQLite backed result store. It's safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens the store at path, creating it if necessary, and applies all migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record persists a run and returns its ID. A zero CreatedAt is set to the current time.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(run.Scenario) == "" {
		return 0, fmt.Errorf("%w: scenario is required", ErrInvalidRun)
	}
	if strings.TrimSpace(run.Algorithm) == "" {
		return 0, fmt.Errorf("%w: algorithm is required", ErrInvalidRun)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Params == nil {
		run.Params = map[string]float64{}
	}

	params, err := json.Marshal(run.Params)
	if err != nil {
		return 0, fmt.Errorf("encode params: %w", err)
	}
	report, err := json.Marshal(run.Metrics)
	if err != nil {
		return 0, fmt.Errorf("encode metrics: %w", err)
	}
	lca, err := json.Marshal(run.LCA)
	if err != nil {
		return 0, fmt.Errorf("encode lca metrics: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO runs (
	scenario,
	algorithm,
	params,
	score,
	objective,
	percent_matched,
	percent_mismatched,
	percent_gaps,
	p2p_euclidean,
	p2p_manhattan,
	frechet_euclidean,
	frechet_manhattan,
	metrics,
	metrics_lca,
	elapsed_ms,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		run.Scenario,
		run.Algorithm,
		string(params),
		nullFloat(run.Score),
		run.Objective,
		run.Metrics.PercentMatched,
		run.Metrics.PercentMismatched,
		run.Metrics.PercentGaps,
		run.Metrics.P2PEuclidean.Mean,
		run.Metrics.P2PManhattan.Mean,
		run.Metrics.FrechetEuclidean,
		run.Metrics.FrechetManhattan,
		string(report),
		string(lca),
		run.Elapsed.Milliseconds(),
		run.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	return res.LastInsertId()
}

// Runs returns all runs of a scenario in the order they were recorded.
func (s *Store) Runs(ctx context.Context, scenario string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT
	id,
	scenario,
	algorithm,
	params,
	score,
	objective,
	metrics,
	metrics_lca,
	elapsed_ms,
	created_at
FROM runs
WHERE scenario = ?
ORDER BY id
`, scenario)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var params, report, lca string
		var score sql.NullFloat64
		var elapsed, createdAt int64
		if err := rows.Scan(
			&run.ID,
			&run.Scenario,
			&run.Algorithm,
			&params,
			&score,
			&run.Objective,
			&report,
			&lca,
			&elapsed,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
			return nil, fmt.Errorf("decode params of run %d: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(report), &run.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics of run %d: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(lca), &run.LCA); err != nil {
			return nil, fmt.Errorf("decode lca metrics of run %d: %w", run.ID, err)
		}
		run.Score = math.NaN()
		if score.Valid {
			run.Score = score.Float64
		}
		run.Elapsed = time.Duration(elapsed) * time.Millisecond
		run.CreatedAt = time.UnixMilli(createdAt).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// nullFloat stores NaN as NULL, SQLite has no representation for it.
func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: !math.IsNaN(f)}
}
