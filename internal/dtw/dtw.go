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

// Package dtw implements dynamic time warping between two traces.
//
// Dynamic time warping finds the monotonic pairing of two sequences with minimal cumulative
// distance. Unlike global alignment, every element is paired with at least one element of the
// other sequence: there are no gaps unless one sequence is empty. Lower scores are better.
package dtw

import (
	"math"

	"znkr.io/twinalign/internal/dp"
	"znkr.io/twinalign/trace"
)

// Cost returns the distance between DT element i-1 and PT element j-1.
type Cost func(i, j int) (float64, error)

// Warper computes the warping between two sequences. It's not safe for concurrent use.
type Warper struct {
	n, m  int
	cost  Cost
	prep  func() // Runs once before the table is filled.
	exact bool   // Use plain minima and don't record a path.

	table *dp.Grid[dp.WarpCell]
	path  []dp.Move
	done  bool
}

func newWarper(n, m int, cost Cost) *Warper {
	return &Warper{
		n:     n,
		m:     m,
		cost:  cost,
		table: dp.NewGrid[dp.WarpCell](n+1, m+1),
	}
}

// Align fills the table and returns the warping path. Subsequent calls return the same path
// without recomputing it.
func (w *Warper) Align() ([]dp.Move, error) {
	if w.done {
		return w.path, nil
	}
	if w.prep != nil {
		w.prep()
		w.prep = nil
	}
	if err := w.fill(); err != nil {
		return nil, err
	}
	if !w.exact {
		w.path = dp.Warp(w.n, w.m, func(i, j int) dp.Step { return w.table.At(i, j).Step })
	}
	w.done = true
	return w.path, nil
}

func (w *Warper) fill() error {
	t := w.table
	t.Fill(dp.WarpCell{Cost: math.Inf(1)})
	*t.At(0, 0) = dp.WarpCell{}
	for i := 1; i <= w.n; i++ {
		for j := 1; j <= w.m; j++ {
			d, err := w.cost(i, j)
			if err != nil {
				return err
			}
			diag, up, left := t.At(i-1, j-1).Cost, t.At(i-1, j).Cost, t.At(i, j-1).Cost
			var best float64
			var step dp.Step
			if w.exact {
				best = min(diag, up, left)
			} else {
				best, step = dp.MinTolerance(diag, up, left)
			}
			*t.At(i, j) = dp.WarpCell{Cost: d + best, Step: step}
		}
	}
	return nil
}

// Score returns the cumulative distance of the warping. It's NaN until [Warper.Align] succeeded,
// +Inf if exactly one of the sequences is empty, and 0 if both are.
func (w *Warper) Score() float64 {
	if !w.done {
		return math.NaN()
	}
	c, _ := w.table.Terminal()
	return c.Cost
}

// Table returns the filled table. It must not be modified.
func (w *Warper) Table() *dp.Grid[dp.WarpCell] { return w.table }

// Distance returns the distance between two snapshots.
type Distance func(dt, pt trace.Snapshot) (float64, error)

// NewSnaps returns a warper over whole snapshots. Near ties between predecessors are broken by
// [dp.MinTolerance] and the path is recorded.
func NewSnaps(dt, pt trace.Trace, dist Distance) *Warper {
	return newWarper(len(dt), len(pt), func(i, j int) (float64, error) {
		return dist(dt[i-1], pt[j-1])
	})
}

// NewLugaresi returns a warper over a single numeric attribute as described by Lugaresi et al.,
// "Online validation of digital twins for manufacturing systems" (2023).
//
// Both sequences are divided by their common maximum before the table is filled, unless that
// maximum is 0. The cost is the absolute difference and no path is recorded, only the score is
// meaningful.
func NewLugaresi(dt, pt trace.Trace, param string) (*Warper, error) {
	x, err := dt.Floats(param)
	if err != nil {
		return nil, err
	}
	y, err := pt.Floats(param)
	if err != nil {
		return nil, err
	}
	w := newWarper(len(x), len(y), func(i, j int) (float64, error) {
		return math.Abs(x[i-1] - y[j-1]), nil
	})
	w.exact = true
	w.prep = func() { normalize(x, y) }
	return w, nil
}

func normalize(x, y []float64) {
	if len(x) == 0 && len(y) == 0 {
		return
	}
	hi := math.Inf(-1)
	for _, v := range x {
		hi = max(hi, v)
	}
	for _, v := range y {
		hi = max(hi, v)
	}
	if hi == 0 {
		return
	}
	for i := range x {
		x[i] /= hi
	}
	for i := range y {
		y[i] /= hi
	}
}
