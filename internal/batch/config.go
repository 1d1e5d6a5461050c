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

// Package batch runs alignments for many trace pairs and hyperparameter combinations.
//
// A batch is described by a YAML [Config]. For every pair of traces, the [Runner] aligns the
// traces once per combination of hyperparameters, writes the alignment and appends one row of
// metrics per combination to the scenario's results file.
package batch

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
	"znkr.io/twinalign"
	"znkr.io/twinalign/system"
	"znkr.io/twinalign/trace"
)

// ErrInvalidConfig is returned if a batch configuration is incomplete or inconsistent.
var ErrInvalidConfig = errors.New("batch: invalid config")

// Config describes a batch.
type Config struct {
	Paths  Paths  `yaml:"paths"`
	Labels Labels `yaml:"labels"`

	// System is the name of the tolerance model, see [system.ByName].
	System string `yaml:"system"`

	// LowComplexityArea enables the metrics that ignore low complexity regions of the system.
	LowComplexityArea bool `yaml:"low_complexity_area"`

	Algorithm string `yaml:"alignment_alg"`
	Ranges    Ranges `yaml:"ranges"`

	// Parallel is the maximum number of alignments running at the same time. Zero means
	// GOMAXPROCS.
	Parallel int `yaml:"parallel" env:"TWINALIGN_PARALLEL"`

	// StorePath is the SQLite database runs are recorded in. Runs aren't recorded if it's empty.
	StorePath string `yaml:"store" env:"TWINALIGN_STORE_PATH"`
}

// Paths locates the input traces and the output directory.
type Paths struct {
	Input  Input  `yaml:"input"`
	Output string `yaml:"output" env:"TWINALIGN_OUTPUT_DIR"`
}

// Input locates the input traces.
//
// DT and PT are directories relative to Main. The i-th DT file is aligned with every CSV file in
// the PT directory whose name starts with the i-th PT prefix.
type Input struct {
	Main       string   `yaml:"main"`
	DT         string   `yaml:"dt"`
	DTFiles    []string `yaml:"dt_files"`
	PT         string   `yaml:"pt"`
	PTPrefixes []string `yaml:"pt_files"`
}

// Labels names the attributes of the traces.
type Labels struct {
	TimestampLabel string   `yaml:"timestamp_label"`
	ParamInterest  string   `yaml:"param_interest"`
	Params         []string `yaml:"params"`
}

// Range is a half-open range of values [Start, End) with distance Step.
type Range struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Step  float64 `yaml:"step"`
}

// Values returns the values of r in order.
func (r Range) Values() ([]float64, error) {
	if r.Step == 0 || math.IsNaN(r.Step) || math.IsInf(r.Step, 0) {
		return nil, fmt.Errorf("%w: range step must be finite and non-zero, got %v", ErrInvalidConfig, r.Step)
	}
	// Rounding errors of decimal steps must not add a value at End.
	n := int(math.Ceil((r.End-r.Start)/r.Step - 1e-9))
	if n <= 0 {
		return nil, nil
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = r.Start + float64(k)*r.Step
	}
	return out, nil
}

// Ranges holds the hyperparameter ranges. Only the ranges used by the configured algorithm are
// read, a missing range keeps the algorithm's default.
type Ranges struct {
	InitGap *Range           `yaml:"init_gap"`
	ContGap *Range           `yaml:"cont_gap"`
	Gap     *Range           `yaml:"gap"`
	Low     *Range           `yaml:"low"`
	MAD     map[string]Range `yaml:"mad"`
	Epsilon *Range           `yaml:"epsilon"`
	Delta   *Range           `yaml:"delta"`
}

// Hyperparameter labels. Tolerances are labeled madPrefix followed by the attribute name.
const (
	labelInitGap = "init_gap"
	labelContGap = "cont_gap"
	labelGap     = "gap"
	labelLow     = "low"
	labelEpsilon = "epsilon"
	labelDelta   = "delta"
	madPrefix    = "mad-"
)

// LoadConfig reads the configuration from the YAML file at path and applies the environment
// overrides. Relative paths are resolved against the directory of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	if !filepath.IsAbs(cfg.Paths.Input.Main) {
		cfg.Paths.Input.Main = filepath.Join(base, cfg.Paths.Input.Main)
	}
	if !filepath.IsAbs(cfg.Paths.Output) {
		cfg.Paths.Output = filepath.Join(base, cfg.Paths.Output)
	}
	if cfg.StorePath != "" && !filepath.IsAbs(cfg.StorePath) {
		cfg.StorePath = filepath.Join(base, cfg.StorePath)
	}
	return cfg, nil
}

// ParseConfig parses a YAML configuration, applies the environment overrides and validates the
// result.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Labels.TimestampLabel == "" {
		cfg.Labels.TimestampLabel = trace.DefaultTimestampLabel
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = runtime.GOMAXPROCS(0)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !slices.Contains(twinalign.Names(), c.Algorithm) {
		return fmt.Errorf("%w: unknown algorithm %q, want one of %s", ErrInvalidConfig, c.Algorithm, strings.Join(twinalign.Names(), ", "))
	}
	if _, err := system.ByName(c.System); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	in := c.Paths.Input
	if len(in.DTFiles) != len(in.PTPrefixes) {
		return fmt.Errorf("%w: %d dt_files but %d pt_files", ErrInvalidConfig, len(in.DTFiles), len(in.PTPrefixes))
	}
	if c.Paths.Output == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidConfig)
	}
	switch c.Algorithm {
	case twinalign.DTWLugaresi, twinalign.LCSSKPIs, twinalign.LCSSEvents:
		if c.Labels.ParamInterest == "" {
			return fmt.Errorf("%w: %s requires param_interest", ErrInvalidConfig, c.Algorithm)
		}
	}
	switch {
	case c.Algorithm == twinalign.LCSSKPIs && c.Ranges.Epsilon == nil:
		return fmt.Errorf("%w: %s requires an epsilon range", ErrInvalidConfig, c.Algorithm)
	case c.Algorithm == twinalign.LCSSEvents && c.Ranges.Delta == nil:
		return fmt.Errorf("%w: %s requires a delta range", ErrInvalidConfig, c.Algorithm)
	}
	return nil
}

// Model returns the configured tolerance model.
func (c *Config) Model() system.Model {
	m, _ := system.ByName(c.System) // Checked by validate.
	return m
}

// Columns returns the columns read from the trace files: the timestamp followed by the params.
func (c *Config) Columns() []string {
	cols := []string{c.Labels.TimestampLabel}
	for _, p := range c.Labels.Params {
		if p != c.Labels.TimestampLabel {
			cols = append(cols, p)
		}
	}
	return cols
}

// Scenario returns the name of the alignment of the given DT and PT files:
// <algorithm>-[LCA_]<dt base><pt base>-<param of interest>.
func (c *Config) Scenario(dtFile, ptFile string) string {
	var b strings.Builder
	b.WriteString(c.Algorithm)
	b.WriteByte('-')
	if c.LowComplexityArea {
		b.WriteString("LCA_")
	}
	b.WriteString(trimExt(filepath.Base(dtFile)))
	b.WriteString(trimExt(filepath.Base(ptFile)))
	if p := strings.ReplaceAll(c.Labels.ParamInterest, "/", ""); p != "" {
		b.WriteByte('-')
		b.WriteString(p)
	}
	return b.String()
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Param is the value of one hyperparameter.
type Param struct {
	Label string
	Value float64
}

// Combination is one assignment of values to all hyperparameters of a batch.
type Combination []Param

// Name returns the file name fragment identifying c, e.g. "in_-0.2-co_0-mad_0.1". Values are
// written in their shortest exact form, so distinct combinations have distinct names.
func (c Combination) Name() string {
	parts := make([]string, len(c))
	for k, p := range c {
		prefix := p.Label
		if strings.HasPrefix(prefix, madPrefix) {
			prefix = "mad"
		} else if len(prefix) > 2 {
			prefix = prefix[:2]
		}
		parts[k] = prefix + "_" + strconv.FormatFloat(p.Value, 'f', -1, 64)
	}
	return strings.Join(parts, "-")
}

// Params returns c as a map from label to value.
func (c Combination) Params() map[string]float64 {
	out := make(map[string]float64, len(c))
	for _, p := range c {
		out[p.Label] = p.Value
	}
	return out
}

type axis struct {
	label  string
	values []float64
}

// axes returns the hyperparameters of the configured algorithm in a fixed order.
func (c *Config) axes() ([]axis, error) {
	var axes []axis
	add := func(label string, r *Range) error {
		if r == nil {
			return nil
		}
		values, err := r.Values()
		if err != nil {
			return fmt.Errorf("range %s: %w", label, err)
		}
		axes = append(axes, axis{label, values})
		return nil
	}
	addMAD := func() error {
		for _, p := range c.Labels.Params {
			if r, ok := c.Ranges.MAD[p]; ok {
				if err := add(madPrefix+p, &r); err != nil {
					return err
				}
			}
		}
		return nil
	}

	var err error
	switch c.Algorithm {
	case twinalign.NWAffineGap:
		err = errors.Join(add(labelInitGap, c.Ranges.InitGap), add(labelContGap, c.Ranges.ContGap), add(labelLow, c.Ranges.Low), addMAD())
	case twinalign.NWConstantGap:
		err = errors.Join(add(labelGap, c.Ranges.Gap), add(labelLow, c.Ranges.Low), addMAD())
	case twinalign.DTWSnaps:
		err = addMAD()
	case twinalign.LCSSKPIs:
		err = add(labelEpsilon, c.Ranges.Epsilon)
	case twinalign.LCSSEvents:
		err = add(labelDelta, c.Ranges.Delta)
	}
	return axes, err
}

// Combinations returns the Cartesian product of the configured hyperparameter ranges. The last
// hyperparameter varies fastest. An algorithm without hyperparameters has a single empty
// combination.
func (c *Config) Combinations() ([]Combination, error) {
	axes, err := c.axes()
	if err != nil {
		return nil, err
	}
	out := []Combination{nil}
	for _, a := range axes {
		next := make([]Combination, 0, len(out)*len(a.values))
		for _, prefix := range out {
			for _, v := range a.values {
				comb := append(slices.Clip(prefix), Param{a.label, v})
				next = append(next, comb)
			}
		}
		out = next
	}
	return out, nil
}

// Options returns the options that configure the algorithm for comb.
func (c *Config) Options(comb Combination) []twinalign.Option {
	var opts []twinalign.Option
	switch c.Algorithm {
	case twinalign.NWAffineGap, twinalign.NWConstantGap, twinalign.DTWSnaps:
		opts = append(opts, twinalign.TimestampLabel(c.Labels.TimestampLabel), twinalign.System(c.Model()))
	case twinalign.DTWLugaresi, twinalign.LCSSKPIs:
		opts = append(opts, twinalign.ParamInterest(c.Labels.ParamInterest))
	case twinalign.LCSSEvents:
		opts = append(opts, twinalign.ParamInterest(c.Labels.ParamInterest), twinalign.TimestampLabel(c.Labels.TimestampLabel))
	}

	var mad map[string]float64
	for _, p := range comb {
		switch p.Label {
		case labelInitGap:
			opts = append(opts, twinalign.InitGap(p.Value))
		case labelContGap:
			opts = append(opts, twinalign.ContGap(p.Value))
		case labelGap:
			opts = append(opts, twinalign.Gap(p.Value))
		case labelLow:
			opts = append(opts, twinalign.Low(int(math.Round(p.Value))))
		case labelEpsilon:
			opts = append(opts, twinalign.Epsilon(p.Value))
		case labelDelta:
			opts = append(opts, twinalign.Delta(p.Value))
		default:
			if attr, ok := strings.CutPrefix(p.Label, madPrefix); ok {
				if mad == nil {
					mad = make(map[string]float64)
				}
				mad[attr] = p.Value
			}
		}
	}
	if mad != nil {
		opts = append(opts, twinalign.Tolerance(mad))
	}
	return opts
}
