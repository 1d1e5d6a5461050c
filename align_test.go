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

package twinalign

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"znkr.io/twinalign/system"
	"znkr.io/twinalign/trace"
)

const ts = trace.DefaultTimestampLabel

func values(vs ...float64) trace.Trace {
	tr := make(trace.Trace, len(vs))
	for i, v := range vs {
		tr[i] = trace.New(trace.Num(ts, float64(i)), trace.Num("v", v))
	}
	return tr
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		alg  string
		opts []Option
		want error
	}{
		{"unknown", "Smith-Waterman", nil, ErrUnknownAlgorithm},
		{"gap-for-affine", NWAffineGap, []Option{Gap(-1)}, ErrOptionNotAllowed},
		{"gap-for-dtw", DTWSnaps, []Option{Gap(-1)}, ErrOptionNotAllowed},
		{"system-for-lcss", LCSSKPIs, []Option{ParamInterest("v"), Epsilon(1), System(system.Lift)}, ErrOptionNotAllowed},
		{"missing-epsilon", LCSSKPIs, []Option{ParamInterest("v")}, ErrMissingParameter},
		{"missing-param", DTWLugaresi, nil, ErrMissingParameter},
		{"missing-delta", LCSSEvents, []Option{ParamInterest("v")}, ErrMissingParameter},
		{"low-zero", NWConstantGap, []Option{Low(0)}, ErrInvalidParameter},
		{"negative-tolerance", NWConstantGap, []Option{Tolerance(map[string]float64{"v": -1})}, ErrInvalidParameter},
		{"not-numeric", DTWLugaresi, []Option{ParamInterest(ts + "x")}, trace.ErrMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg, err := New(tt.alg, values(1), values(1), tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New(%q, ...) error = %v, want %v", tt.alg, err, tt.want)
			}
			if alg != nil {
				t.Errorf("New(%q, ...) returned an algorithm on error", tt.alg)
			}
		})
	}
}

func TestAlign(t *testing.T) {
	dt, pt := values(1.0, 2.0), values(1.05)
	tests := []struct {
		name      string
		alg       string
		dt, pt    trace.Trace
		opts      []Option
		want      []Record
		wantScore float64
		objective Objective
	}{
		{
			name: "nw-constant",
			alg:  NWConstantGap,
			dt:   dt,
			pt:   pt,
			opts: []Option{Tolerance(map[string]float64{"v": 0.1}), Gap(-0.5)},
			want: []Record{
				{Op: Match, DT: dt[0], PT: pt[0], DTIndex: 0, PTIndex: 0},
				{Op: Deletion, DT: dt[1], DTIndex: 1, PTIndex: -1},
			},
			wantScore: 0,
			objective: Maximize,
		},
		{
			name: "nw-affine",
			alg:  NWAffineGap,
			dt:   dt,
			pt:   pt,
			opts: []Option{Tolerance(map[string]float64{"v": 0.1}), InitGap(-0.2), ContGap(-0.1)},
			want: []Record{
				{Op: Match, DT: dt[0], PT: pt[0], DTIndex: 0, PTIndex: 0},
				{Op: Deletion, DT: dt[1], DTIndex: 1, PTIndex: -1},
			},
			wantScore: 0.2,
			objective: Maximize,
		},
		{
			name: "dtw-snaps",
			alg:  DTWSnaps,
			dt:   dt,
			pt:   pt,
			want: []Record{
				{Op: Match, DT: dt[0], PT: pt[0], DTIndex: 0, PTIndex: 0},
				{Op: Deletion, DT: dt[1], PT: pt[0], DTIndex: 1, PTIndex: 0},
			},
			wantScore: 0.05 + 0.95,
			objective: Minimize,
		},
		{
			name:      "dtw-lugaresi",
			alg:       DTWLugaresi,
			dt:        values(0, 1),
			pt:        values(0, 0.5, 1),
			opts:      []Option{ParamInterest("v")},
			want:      []Record{},
			wantScore: 0.5,
			objective: Minimize,
		},
		{
			name: "lcss-kpis",
			alg:  LCSSKPIs,
			dt:   values(1, 5, 1),
			pt:   values(1, 1),
			opts: []Option{ParamInterest("v"), Epsilon(0.01)},
			want: []Record{
				{Op: Match, DT: values(1, 5, 1)[0], PT: values(1, 1)[0], DTIndex: 0, PTIndex: 0},
				{Op: Deletion, DT: values(1, 5, 1)[1], DTIndex: 1, PTIndex: -1},
				{Op: Match, DT: values(1, 5, 1)[2], PT: values(1, 1)[1], DTIndex: 2, PTIndex: 1},
			},
			wantScore: 2,
			objective: Maximize,
		},
		{
			name: "lcss-events",
			alg:  LCSSEvents,
			dt:   values(7),
			pt:   values(7),
			opts: []Option{ParamInterest("v"), Delta(0)},
			want: []Record{
				{Op: Match, DT: values(7)[0], PT: values(7)[0], DTIndex: 0, PTIndex: 0},
			},
			wantScore: 1,
			objective: Maximize,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alg, err := New(tt.alg, tt.dt, tt.pt, tt.opts...)
			if err != nil {
				t.Fatalf("New(%q, ...) failed: %v", tt.alg, err)
			}
			if alg.Name() != tt.alg {
				t.Errorf("Name() = %q, want %q", alg.Name(), tt.alg)
			}
			if alg.Objective() != tt.objective {
				t.Errorf("Objective() = %v, want %v", alg.Objective(), tt.objective)
			}
			got, err := alg.Align()
			if err != nil {
				t.Fatalf("Align() failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Align() result is different [-want,+got]:\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantScore, alg.Score(), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("Score() result is different [-want,+got]:\n%s", diff)
			}
		})
	}
}

func TestAlgorithmProperties(t *testing.T) {
	dt, pt := values(1, 2, 2.5, 4, 8), values(1.1, 2.4, 4, 7.9)
	opts := map[string][]Option{
		NWConstantGap: {Tolerance(map[string]float64{"v": 0.5})},
		NWAffineGap:   {Tolerance(map[string]float64{"v": 0.5})},
		DTWSnaps:      {Tolerance(map[string]float64{"v": 0.5})},
		DTWLugaresi:   {ParamInterest("v")},
		LCSSKPIs:      {ParamInterest("v"), Epsilon(0.2)},
		LCSSEvents:    {ParamInterest("v"), Delta(1)},
	}
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			alg, err := New(name, dt, pt, opts[name]...)
			if err != nil {
				t.Fatalf("New(%q, ...) failed: %v", name, err)
			}
			if !math.IsNaN(alg.Score()) {
				t.Errorf("Score() before Align() = %v, want NaN", alg.Score())
			}
			first, err := alg.Align()
			if err != nil {
				t.Fatalf("Align() failed: %v", err)
			}
			score := alg.Score()
			second, err := alg.Align()
			if err != nil {
				t.Fatalf("second Align() failed: %v", err)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("second Align() result is different [-first,+second]:\n%s", diff)
			}
			if alg.Score() != score {
				t.Errorf("Score() changed from %v to %v", score, alg.Score())
			}
			if name == DTWLugaresi {
				return
			}

			// Every snapshot appears in order. Only warping repeats a snapshot, gap records have
			// exactly one side otherwise.
			nextDT, nextPT := 0, 0
			for _, r := range first {
				switch {
				case r.DTIndex < 0:
				case r.DTIndex == nextDT:
					nextDT++
				case name == DTWSnaps && r.DTIndex == nextDT-1:
				default:
					t.Errorf("%v record: DT index %d, want %d", r.Op, r.DTIndex, nextDT)
				}
				switch {
				case r.PTIndex < 0:
				case r.PTIndex == nextPT:
					nextPT++
				case name == DTWSnaps && r.PTIndex == nextPT-1:
				default:
					t.Errorf("%v record: PT index %d, want %d", r.Op, r.PTIndex, nextPT)
				}
				if name != DTWSnaps && r.Op == Deletion && r.PTIndex != -1 {
					t.Errorf("deletion record has PT index %d", r.PTIndex)
				}
				if name != DTWSnaps && r.Op == Insertion && r.DTIndex != -1 {
					t.Errorf("insertion record has DT index %d", r.DTIndex)
				}
			}
			if nextDT != len(dt) || nextPT != len(pt) {
				t.Errorf("alignment covers %d DT and %d PT snapshots, want %d and %d", nextDT, nextPT, len(dt), len(pt))
			}
		})
	}
}

func TestSelfAlignment(t *testing.T) {
	tr := values(3, 1, 4, 1, 5, 9, 2, 6)
	tol := Tolerance(map[string]float64{"v": 0.5})
	tests := []struct {
		alg  string
		opts []Option
		want float64
	}{
		{NWConstantGap, []Option{tol}, float64(len(tr))},
		{NWAffineGap, []Option{tol}, float64(len(tr))},
		{DTWSnaps, []Option{tol}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.alg, func(t *testing.T) {
			alg, err := New(tt.alg, tr, tr, tt.opts...)
			if err != nil {
				t.Fatalf("New(%q, ...) failed: %v", tt.alg, err)
			}
			records, err := alg.Align()
			if err != nil {
				t.Fatalf("Align() failed: %v", err)
			}
			for k, r := range records {
				if r.Op != Match || r.DTIndex != k || r.PTIndex != k {
					t.Errorf("records[%d] = %v (%d, %d), want Match (%d, %d)", k, r.Op, r.DTIndex, r.PTIndex, k, k)
				}
			}
			if len(records) != len(tr) {
				t.Errorf("Align() returned %d records, want %d", len(records), len(tr))
			}
			if got := alg.Score(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlignError(t *testing.T) {
	alg, err := New(NWConstantGap, values(1), values(1), Tolerance(map[string]float64{"w": 1}))
	if err != nil {
		t.Fatalf("New(...) failed: %v", err)
	}
	if _, err := alg.Align(); !errors.Is(err, system.ErrMissingTolerance) {
		t.Errorf("Align() error = %v, want %v", err, system.ErrMissingTolerance)
	}
	if !math.IsNaN(alg.Score()) {
		t.Errorf("Score() after failed Align() = %v, want NaN", alg.Score())
	}
}

func TestObjective(t *testing.T) {
	if !Maximize.Better(2, 1) || Maximize.Better(1, 2) {
		t.Errorf("Maximize.Better is wrong")
	}
	if !Minimize.Better(1, 2) || Minimize.Better(2, 1) {
		t.Errorf("Minimize.Better is wrong")
	}
	if got := Minimize.String(); got != "minimize" {
		t.Errorf("Minimize.String() = %q", got)
	}
}

func TestColumns(t *testing.T) {
	dt := trace.Trace{trace.New(trace.Num(ts, 0), trace.Num("z", 1.5), trace.Cat("door", "open"))}
	pt := trace.Trace{trace.New(trace.Num(ts, 0.1), trace.Num("z", 1.25))}

	keys := Keys(dt, pt)
	if diff := cmp.Diff([]string{ts, "z"}, keys); diff != "" {
		t.Errorf("Keys(...) result is different [-want,+got]:\n%s", diff)
	}
	if diff := cmp.Diff([]string{ts, "z", "door"}, Keys(dt, nil)); diff != "" {
		t.Errorf("Keys(dt, nil) result is different [-want,+got]:\n%s", diff)
	}
	if Keys(nil, nil) != nil {
		t.Errorf("Keys(nil, nil) = %v, want nil", Keys(nil, nil))
	}

	wantHeader := []string{"dt-" + ts, "dt-z", "pt-" + ts, "pt-z", "operation"}
	if diff := cmp.Diff(wantHeader, Columns(keys)); diff != "" {
		t.Errorf("Columns(...) result is different [-want,+got]:\n%s", diff)
	}

	tests := []struct {
		name   string
		record Record
		want   []string
	}{
		{
			name:   "match",
			record: Record{Op: Match, DT: dt[0], PT: pt[0], DTIndex: 0, PTIndex: 0},
			want:   []string{"0", "1.5", "0.1", "1.25", "Match"},
		},
		{
			name:   "deletion",
			record: Record{Op: Deletion, DT: dt[0], DTIndex: 0, PTIndex: -1},
			want:   []string{"0", "1.5", "-", "-", "Deletion"},
		},
		{
			name:   "insertion",
			record: Record{Op: Insertion, PT: pt[0], DTIndex: -1, PTIndex: 0},
			want:   []string{"-", "-", "0.1", "1.25", "Insertion"},
		},
		{
			name:   "missing-attribute",
			record: Record{Op: Mismatch, DT: trace.New(trace.Num(ts, 1)), PT: pt[0], DTIndex: 0, PTIndex: 0},
			want:   []string{"1", "", "0.1", "1.25", "Mismatch"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.record.Row(keys)); diff != "" {
				t.Errorf("Row(...) result is different [-want,+got]:\n%s", diff)
			}
		})
	}
}
