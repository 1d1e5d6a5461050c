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

// Package nw implements global alignment of two traces with the Needleman-Wunsch algorithm.
//
// Two gap models are supported: a constant penalty per gap element ([NewConstant]) and an affine
// penalty with separate costs to open and to extend a gap ([NewAffine]). Both maximize the sum of
// snapshot similarities minus gap penalties.
package nw

import (
	"math"

	"znkr.io/twinalign/internal/dp"
	"znkr.io/twinalign/trace"
)

// Scorer returns the similarity of two snapshots. A positive value counts as a match.
type Scorer func(dt, pt trace.Snapshot) (float64, error)

// Aligner aligns two traces. It's not safe for concurrent use.
type Aligner struct {
	dt, pt trace.Trace
	eq     Scorer
	fill   func(eq func(i, j int) (float64, error)) error

	table *dp.Grid[dp.Cell]
	path  []dp.Move
	done  bool
}

func newAligner(dt, pt trace.Trace, eq Scorer) *Aligner {
	return &Aligner{
		dt:    dt,
		pt:    pt,
		eq:    eq,
		table: dp.NewGrid[dp.Cell](len(dt)+1, len(pt)+1),
	}
}

// Align fills the table and returns the optimal alignment path. Subsequent calls return the same
// path without recomputing it.
func (a *Aligner) Align() ([]dp.Move, error) {
	if a.done {
		return a.path, nil
	}
	err := a.fill(func(i, j int) (float64, error) {
		return a.eq(a.dt[i-1], a.pt[j-1])
	})
	if err != nil {
		return nil, err
	}
	a.path = dp.Walk(len(a.dt), len(a.pt), func(i, j int) dp.Op {
		return a.table.At(i, j).Op
	})
	a.done = true
	return a.path, nil
}

// Score returns the score of the optimal alignment. It's NaN until [Aligner.Align] succeeded.
func (a *Aligner) Score() float64 {
	if !a.done {
		return math.NaN()
	}
	c, _ := a.table.Terminal()
	return c.Score
}

// Table returns the filled table. It must not be modified.
func (a *Aligner) Table() *dp.Grid[dp.Cell] { return a.table }
