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
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"znkr.io/twinalign"
	"znkr.io/twinalign/system"
	"znkr.io/twinalign/trace"
)

const affineConfig = `
paths:
  input:
    main: input
    dt: dt
    dt_files: [lift.csv]
    pt: pt
    pt_files: [lift]
  output: out
labels:
  param_interest: z(m)
  params: [z(m), accel(m/s2)]
system: Lift
alignment_alg: NDW_Affine
ranges:
  init_gap: {start: -0.4, end: 0, step: 0.2}
  cont_gap: {start: 0, end: 0.1, step: 0.1}
  low: {start: 5, end: 6, step: 1}
  mad:
    z(m): {start: 0.1, end: 0.3, step: 0.1}
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(writeConfig(t, dir, affineConfig))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "input"), cfg.Paths.Input.Main)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Paths.Output)
	assert.Equal(t, []string{"lift.csv"}, cfg.Paths.Input.DTFiles)
	assert.Equal(t, []string{"lift"}, cfg.Paths.Input.PTPrefixes)
	assert.Equal(t, trace.DefaultTimestampLabel, cfg.Labels.TimestampLabel)
	assert.Equal(t, twinalign.NWAffineGap, cfg.Algorithm)
	assert.True(t, cfg.Model().Equal(system.Lift))
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Parallel)
	assert.Empty(t, cfg.StorePath)
	assert.Equal(t, []string{"timestamp(s)", "z(m)", "accel(m/s2)"}, cfg.Columns())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseConfigEnvOverrides(t *testing.T) {
	t.Setenv("TWINALIGN_OUTPUT_DIR", "/var/lib/twinalign")
	t.Setenv("TWINALIGN_PARALLEL", "3")
	t.Setenv("TWINALIGN_STORE_PATH", "/var/lib/twinalign/runs.db")

	cfg, err := ParseConfig([]byte(affineConfig))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/twinalign", cfg.Paths.Output)
	assert.Equal(t, 3, cfg.Parallel)
	assert.Equal(t, "/var/lib/twinalign/runs.db", cfg.StorePath)
}

func TestParseConfigErrors(t *testing.T) {
	const base = `
paths:
  input: {main: in, dt: dt, dt_files: [a.csv], pt: pt, pt_files: [a]}
  output: out
`
	tests := []struct {
		name   string
		config string
	}{
		{"unknown-algorithm", base + "alignment_alg: Smith_Waterman\n"},
		{"unknown-system", base + "alignment_alg: DTW_Snaps\nsystem: Toaster\n"},
		{"unknown-field", base + "alignment_alg: DTW_Snaps\nfigures: true\n"},
		{"lugaresi-without-param", base + "alignment_alg: DTW_Lugaresi\n"},
		{"kpis-without-epsilon", base + "alignment_alg: LCSS_KPIs\nlabels: {param_interest: v}\n"},
		{"events-without-delta", base + "alignment_alg: LCSS_Events\nlabels: {param_interest: v}\n"},
		{"file-count-mismatch", `
paths:
  input: {main: in, dt: dt, dt_files: [a.csv, b.csv], pt: pt, pt_files: [a]}
  output: out
alignment_alg: DTW_Snaps
`},
		{"missing-output", `
paths:
  input: {main: in, dt: dt, dt_files: [a.csv], pt: pt, pt_files: [a]}
alignment_alg: DTW_Snaps
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.config))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRangeValues(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		want []float64
	}{
		{"quarters", Range{Start: 0, End: 1, Step: 0.25}, []float64{0, 0.25, 0.5, 0.75}},
		{"empty", Range{Start: 0, End: 0, Step: 1}, nil},
		{"wrong-direction", Range{Start: 1, End: 0, Step: 1}, nil},
		{"descending", Range{Start: 1, End: 0, Step: -0.5}, []float64{1, 0.5}},
		{"decimal-step", Range{Start: 0.1, End: 0.3, Step: 0.1}, []float64{0.1, 0.2}},
		{"single", Range{Start: 0.5, End: 0.6, Step: 0.1}, []float64{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.r.Values()
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
			assert.Len(t, got, len(tt.want))
		})
	}

	_, err := Range{Start: 0, End: 1}.Values()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCombinations(t *testing.T) {
	cfg, err := ParseConfig([]byte(affineConfig))
	require.NoError(t, err)

	combs, err := cfg.Combinations()
	require.NoError(t, err)
	want := []Combination{
		{{"init_gap", -0.4}, {"cont_gap", 0}, {"low", 5}, {"mad-z(m)", 0.1}},
		{{"init_gap", -0.4}, {"cont_gap", 0}, {"low", 5}, {"mad-z(m)", 0.2}},
		{{"init_gap", -0.2}, {"cont_gap", 0}, {"low", 5}, {"mad-z(m)", 0.1}},
		{{"init_gap", -0.2}, {"cont_gap", 0}, {"low", 5}, {"mad-z(m)", 0.2}},
	}
	assert.Equal(t, want, combs)

	assert.Equal(t, "in_-0.4-co_0-lo_5-mad_0.1", combs[0].Name())
	assert.Equal(t, map[string]float64{"init_gap": -0.2, "cont_gap": 0, "low": 5, "mad-z(m)": 0.2}, combs[3].Params())
}

func TestCombinationsWithoutHyperparameters(t *testing.T) {
	cfg := &Config{Algorithm: twinalign.DTWLugaresi, Labels: Labels{ParamInterest: "v"}}
	combs, err := cfg.Combinations()
	require.NoError(t, err)
	require.Len(t, combs, 1)
	assert.Empty(t, combs[0])
	assert.Empty(t, combs[0].Name())
}

func TestOptions(t *testing.T) {
	tr := trace.Trace{
		trace.New(trace.Num("timestamp(s)", 0), trace.Num("z(m)", 0), trace.Num("accel(m/s2)", 0.5), trace.Cat("event", "start")),
		trace.New(trace.Num("timestamp(s)", 1), trace.Num("z(m)", 1), trace.Num("accel(m/s2)", 0.5), trace.Cat("event", "stop")),
	}
	r := &Range{Start: 0.5, End: 0.6, Step: 0.1}
	ranges := Ranges{
		InitGap: r,
		ContGap: &Range{Start: 0, End: 0.1, Step: 0.1},
		Gap:     &Range{Start: -0.2, End: 0, Step: 0.2},
		Low:     &Range{Start: 3, End: 4, Step: 1},
		MAD:     map[string]Range{"z(m)": *r, "accel(m/s2)": *r},
		Epsilon: r,
		Delta:   r,
	}
	for _, name := range twinalign.Names() {
		t.Run(name, func(t *testing.T) {
			cfg := &Config{
				Algorithm: name,
				Labels: Labels{
					TimestampLabel: trace.DefaultTimestampLabel,
					ParamInterest:  "z(m)",
					Params:         []string{"z(m)", "accel(m/s2)"},
				},
				Ranges: ranges,
			}
			if name == twinalign.LCSSEvents {
				cfg.Labels.ParamInterest = "event"
			}
			combs, err := cfg.Combinations()
			require.NoError(t, err)
			require.NotEmpty(t, combs)
			for _, comb := range combs {
				alg, err := twinalign.New(name, tr, tr, cfg.Options(comb)...)
				require.NoError(t, err, "combination %s", comb.Name())
				_, err = alg.Align()
				require.NoError(t, err, "combination %s", comb.Name())
			}
		})
	}
}

func TestScenario(t *testing.T) {
	cfg := &Config{Algorithm: twinalign.NWAffineGap, Labels: Labels{ParamInterest: "accel(m/s2)"}}
	assert.Equal(t, "NDW_Affine-liftlift_1-accel(ms2)", cfg.Scenario("in/dt/lift.csv", "in/pt/lift_1.csv"))

	cfg.LowComplexityArea = true
	assert.Equal(t, "NDW_Affine-LCA_liftlift_1-accel(ms2)", cfg.Scenario("lift.csv", "lift_1.csv"))

	cfg = &Config{Algorithm: twinalign.DTWSnaps}
	assert.Equal(t, "DTW_Snaps-ab", cfg.Scenario("a.csv", "b.csv"))
}
