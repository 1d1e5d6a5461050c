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

package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"znkr.io/twinalign"
	"znkr.io/twinalign/csvalign"
	"znkr.io/twinalign/internal/metrics"
	"znkr.io/twinalign/internal/store"
	tr "znkr.io/twinalign/trace"
)

// ResultsDir is the directory below the output directory that holds one results file per
// scenario.
const ResultsDir = "results"

// Runner runs a batch.
type Runner struct {
	Config *Config

	// Logger receives progress messages. If nil, [slog.Default] is used.
	Logger *slog.Logger

	// Store records every run if not nil.
	Store *store.Store
}

// Result is the outcome of one alignment.
type Result struct {
	Scenario    string
	Combination Combination
	Score       float64
	Objective   twinalign.Objective
	Metrics     metrics.Report
	LCA         metrics.Report // Zero unless the low complexity area metrics are enabled.
	Elapsed     time.Duration
	TraceLength int    // Length of the longer trace.
	Alignment   string // Path of the alignment file, empty if the alignment has no records.
}

// Pair is a DT file and a PT file to align.
type Pair struct {
	DT, PT string
}

// Pairs returns the trace files to align in order. The i-th DT file is paired with every CSV file
// in the PT directory whose name starts with the i-th PT prefix, in lexical order.
func (c *Config) Pairs() ([]Pair, error) {
	in := c.Paths.Input
	ptDir := filepath.Join(in.Main, in.PT)
	entries, err := os.ReadDir(ptDir)
	if err != nil {
		return nil, fmt.Errorf("listing pt directory: %w", err)
	}
	var pairs []Pair
	for i, prefix := range in.PTPrefixes {
		dt := filepath.Join(in.Main, in.DT, in.DTFiles[i])
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".csv") || !strings.HasPrefix(name, prefix) {
				continue
			}
			pairs = append(pairs, Pair{DT: dt, PT: filepath.Join(ptDir, name)})
		}
	}
	return pairs, nil
}

// Run aligns all pairs with all combinations. It stops at the first failing alignment, results
// of alignments that were still running are discarded.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := r.Config
	if err := os.MkdirAll(filepath.Join(cfg.Paths.Output, ResultsDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directories: %w", err)
	}
	pairs, err := cfg.Pairs()
	if err != nil {
		return nil, err
	}
	combs, err := cfg.Combinations()
	if err != nil {
		return nil, err
	}
	if len(combs) == 0 {
		logger.Warn("Hyperparameter ranges are empty, nothing to align")
		return nil, nil
	}

	var all []Result
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		results, err := r.runPair(ctx, logger, p, combs)
		if err != nil {
			return all, err
		}
		all = append(all, results...)
	}
	logger.Info("Batch finished", slog.Int("pairs", len(pairs)), slog.Int("alignments", len(all)))
	return all, nil
}

func (r *Runner) runPair(ctx context.Context, logger *slog.Logger, p Pair, combs []Combination) ([]Result, error) {
	cfg := r.Config
	scenario := cfg.Scenario(p.DT, p.PT)
	logger = logger.With(slog.String("scenario", scenario))

	dt, err := tr.ReadFile(p.DT, cfg.Columns()...)
	if err != nil {
		return nil, err
	}
	pt, err := tr.ReadFile(p.PT, cfg.Columns()...)
	if err != nil {
		return nil, err
	}
	logger.Info("Aligning traces",
		slog.String("dt", p.DT),
		slog.String("pt", p.PT),
		slog.Int("combinations", len(combs)),
	)

	results := make([]Result, len(combs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallel)
	for k, comb := range combs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.align(gctx, logger, scenario, dt, pt, comb)
			if err != nil {
				return fmt.Errorf("%s [%s]: %w", scenario, comb.Name(), err)
			}
			results[k] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := appendResults(filepath.Join(cfg.Paths.Output, ResultsDir, scenario+".csv"), results, cfg.LowComplexityArea); err != nil {
		return nil, err
	}
	if r.Store != nil {
		for _, res := range results {
			_, err := r.Store.Record(ctx, store.Run{
				Scenario:  res.Scenario,
				Algorithm: cfg.Algorithm,
				Params:    res.Combination.Params(),
				Score:     res.Score,
				Objective: res.Objective.String(),
				Metrics:   res.Metrics,
				LCA:       res.LCA,
				Elapsed:   res.Elapsed,
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// report evaluates an alignment of traces with dtLen and ptLen snapshots by the metrics that
// apply to the configured algorithm.
func (c *Config) report(records []twinalign.Record, dtLen, ptLen int, score float64) metrics.Report {
	var r metrics.Report
	if c.Algorithm == twinalign.DTWSnaps {
		r = metrics.ComputeWarping(records, c.Labels.Params)
	} else {
		r = metrics.Compute(records, dtLen, ptLen, c.Labels.Params)
	}
	switch c.Algorithm {
	case twinalign.DTWLugaresi:
		r.NormalizedScore = metrics.NormalizedDistance(score, dtLen, ptLen)
	case twinalign.LCSSKPIs, twinalign.LCSSEvents:
		r.NormalizedScore = metrics.NormalizedLength(score, dtLen, ptLen)
	}
	return r
}

func (r *Runner) align(ctx context.Context, logger *slog.Logger, scenario string, dt, pt tr.Trace, comb Combination) (res Result, err error) {
	cfg := r.Config
	name := comb.Name()
	ctx, span := tracer.Start(ctx, "batch.align", trace.WithAttributes(
		attribute.String("scenario", scenario),
		attribute.String(algorithmName, cfg.Algorithm),
		attribute.String("params", name),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		measureAlignment(ctx, cfg.Algorithm, err == nil, time.Since(start))
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	alg, err := twinalign.New(cfg.Algorithm, dt, pt, cfg.Options(comb)...)
	if err != nil {
		return Result{}, err
	}
	records, err := alg.Align()
	if err != nil {
		return Result{}, err
	}
	elapsed := time.Since(start)
	logger.Debug("Alignment done",
		slog.String("params", name),
		slog.Float64("score", alg.Score()),
		slog.Duration("elapsed", elapsed),
	)

	res = Result{
		Scenario:    scenario,
		Combination: comb,
		Score:       alg.Score(),
		Objective:   alg.Objective(),
		Metrics:     cfg.report(records, len(dt), len(pt), alg.Score()),
		Elapsed:     elapsed,
		TraceLength: max(len(dt), len(pt)),
	}
	if cfg.LowComplexityArea {
		res.LCA = metrics.ComputeLCA(records, dt, pt, cfg.Labels.Params, cfg.Model())
	}
	if len(records) > 0 {
		file := scenario + ".csv"
		if name != "" {
			file = scenario + "-" + name + ".csv"
		}
		res.Alignment = filepath.Join(cfg.Paths.Output, file)
		if err := csvalign.WriteFile(res.Alignment, records, twinalign.Keys(dt, pt)); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}
