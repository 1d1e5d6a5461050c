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

// twinalign aligns traces of a digital twin and its physical twin.
//
// With -config, it runs the batch described by the YAML file. Otherwise it aligns the traces
// given by -dt and -pt with the algorithm given by -alg and prints the alignment as CSV followed
// by the score.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"znkr.io/twinalign"
	"znkr.io/twinalign/csvalign"
	"znkr.io/twinalign/internal/batch"
	"znkr.io/twinalign/internal/store"
	"znkr.io/twinalign/system"
	"znkr.io/twinalign/trace"
)

// tolerances collects repeated -mad attr=value flags.
type tolerances map[string]float64

func (t tolerances) String() string {
	parts := make([]string, 0, len(t))
	for k, v := range t {
		parts = append(parts, k+"="+strconv.FormatFloat(v, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (t tolerances) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("want attr=value, got %q", s)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	t[k] = f
	return nil
}

type config struct {
	batch    string
	parallel int
	store    string
	verbose  bool

	alg       string
	dt, pt    string
	columns   string
	output    string
	colors    bool
	timestamp string
	system    string
	param     string
	mad       tolerances
	gap       float64
	initGap   float64
	contGap   float64
	low       int
	epsilon   float64
	delta     float64

	set map[string]bool // Flags given on the command line.
}

func main() {
	cfg := config{mad: tolerances{}}
	flag.StringVar(&cfg.batch, "config", "", "YAML batch configuration to run")
	flag.IntVar(&cfg.parallel, "parallel", 0, "if >0, number of alignments to run in parallel in batch mode")
	flag.StringVar(&cfg.store, "store", "", "SQLite database to record batch runs in")
	flag.BoolVar(&cfg.verbose, "v", false, "log every alignment")

	flag.StringVar(&cfg.alg, "alg", twinalign.NWAffineGap, "algorithm, one of "+strings.Join(twinalign.Names(), ", "))
	flag.StringVar(&cfg.dt, "dt", "", "CSV file with the digital twin trace")
	flag.StringVar(&cfg.pt, "pt", "", "CSV file with the physical twin trace")
	flag.StringVar(&cfg.columns, "columns", "", "comma separated columns to read, all if empty")
	flag.StringVar(&cfg.output, "o", "", "file to write the alignment to instead of stdout")
	flag.BoolVar(&cfg.colors, "color", false, "color the alignment for terminals, ignored with -o")
	flag.StringVar(&cfg.timestamp, "timestamp", trace.DefaultTimestampLabel, "name of the timestamp column")
	flag.StringVar(&cfg.system, "system", "", "tolerance model, one of System, Lift, Incubator, RoboticArm")
	flag.StringVar(&cfg.param, "param", "", "attribute compared by DTW_Lugaresi and LCSS")
	flag.Var(cfg.mad, "mad", "maximum acceptable distance as attr=value, can be repeated")
	flag.Float64Var(&cfg.gap, "gap", 0, "gap penalty of NDW_Tolerance")
	flag.Float64Var(&cfg.initGap, "init-gap", 0, "gap opening penalty of NDW_Affine")
	flag.Float64Var(&cfg.contGap, "cont-gap", 0, "gap extension penalty of NDW_Affine")
	flag.IntVar(&cfg.low, "low", 0, "divisor for rewards in low complexity regions")
	flag.Float64Var(&cfg.epsilon, "epsilon", 0, "maximum KPI difference of LCSS_KPIs")
	flag.Float64Var(&cfg.delta, "delta", 0, "maximum time difference of LCSS_Events")
	flag.Parse()

	if len(flag.CommandLine.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "error: unexpected command line arguments: %v\n", flag.CommandLine.Args())
		os.Exit(1)
	}
	cfg.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { cfg.set[f.Name] = true })

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if cfg.batch != "" {
		err = runBatch(ctx, logger, &cfg)
	} else {
		err = runPair(os.Stdout, &cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runBatch(ctx context.Context, logger *slog.Logger, cfg *config) error {
	bc, err := batch.LoadConfig(cfg.batch)
	if err != nil {
		return fmt.Errorf("loading batch configuration: %v", err)
	}
	if cfg.parallel > 0 {
		bc.Parallel = cfg.parallel
	}
	if cfg.store != "" {
		bc.StorePath = cfg.store
	}

	shutdown, err := setupTracing(ctx)
	if err != nil {
		return fmt.Errorf("setting up tracing: %v", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Couldn't flush spans", slog.Any("error", err))
		}
	}()

	runner := &batch.Runner{Config: bc, Logger: logger}
	if bc.StorePath != "" {
		st, err := store.Open(ctx, bc.StorePath)
		if err != nil {
			return fmt.Errorf("opening store: %v", err)
		}
		defer st.Close()
		runner.Store = st
	}
	_, err = runner.Run(ctx)
	return err
}

func runPair(stdout io.Writer, cfg *config) error {
	if cfg.dt == "" || cfg.pt == "" {
		return errors.New("-dt and -pt are required without -config")
	}
	var columns []string
	if cfg.columns != "" {
		columns = strings.Split(cfg.columns, ",")
	}
	dt, err := trace.ReadFile(cfg.dt, columns...)
	if err != nil {
		return err
	}
	pt, err := trace.ReadFile(cfg.pt, columns...)
	if err != nil {
		return err
	}
	opts, err := cfg.options()
	if err != nil {
		return err
	}
	alg, err := twinalign.New(cfg.alg, dt, pt, opts...)
	if err != nil {
		return err
	}
	records, err := alg.Align()
	if err != nil {
		return err
	}

	w := stdout
	var wopts []csvalign.Option
	if cfg.colors && cfg.output == "" {
		wopts = append(wopts, csvalign.TerminalColors())
	}
	if cfg.output != "" {
		f, err := os.Create(cfg.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := csvalign.Write(w, records, twinalign.Keys(dt, pt), wopts...); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "score: %s (%s)\n", strconv.FormatFloat(alg.Score(), 'f', -1, 64), alg.Objective())
	return err
}

// options returns the algorithm options for the flags given on the command line.
func (cfg *config) options() ([]twinalign.Option, error) {
	var opts []twinalign.Option
	if cfg.set["timestamp"] {
		opts = append(opts, twinalign.TimestampLabel(cfg.timestamp))
	}
	if cfg.set["system"] {
		m, err := system.ByName(cfg.system)
		if err != nil {
			return nil, err
		}
		opts = append(opts, twinalign.System(m))
	}
	if cfg.set["param"] {
		opts = append(opts, twinalign.ParamInterest(cfg.param))
	}
	if len(cfg.mad) > 0 {
		opts = append(opts, twinalign.Tolerance(cfg.mad))
	}
	if cfg.set["gap"] {
		opts = append(opts, twinalign.Gap(cfg.gap))
	}
	if cfg.set["init-gap"] {
		opts = append(opts, twinalign.InitGap(cfg.initGap))
	}
	if cfg.set["cont-gap"] {
		opts = append(opts, twinalign.ContGap(cfg.contGap))
	}
	if cfg.set["low"] {
		opts = append(opts, twinalign.Low(cfg.low))
	}
	if cfg.set["epsilon"] {
		opts = append(opts, twinalign.Epsilon(cfg.epsilon))
	}
	if cfg.set["delta"] {
		opts = append(opts, twinalign.Delta(cfg.delta))
	}
	return opts, nil
}
