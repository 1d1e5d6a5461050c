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

package nw

import (
	"math"

	"znkr.io/twinalign/internal/dp"
	"znkr.io/twinalign/trace"
)

// NewAffine returns an aligner with affine gap penalties: a gap of length k costs
// open + k*extend. Both penalties are usually negative or zero.
//
// Besides the main table, the fill tracks the best score of alignments ending in a deletion and
// in an insertion in two auxiliary tables. They're discarded after the fill.
func NewAffine(dt, pt trace.Trace, eq Scorer, open, extend float64) *Aligner {
	a := newAligner(dt, pt, eq)
	t := a.table
	a.fill = func(eq func(i, j int) (float64, error)) error {
		n, m := t.Rows(), t.Cols()
		del := dp.NewGrid[float64](n, m)
		ins := dp.NewGrid[float64](n, m)
		for i := range n {
			for j := range m {
				switch {
				case i > 0 && j == 0:
					*del.At(i, j) = math.Inf(-1)
				case j > 0:
					*del.At(i, j) = open + extend*float64(j)
				}
				switch {
				case j > 0 && i == 0:
					*ins.At(i, j) = math.Inf(-1)
				case i > 0:
					*ins.At(i, j) = open + extend*float64(i)
				}
			}
		}

		*t.At(0, 0) = dp.Cell{}
		for j := 1; j < m; j++ {
			*t.At(0, j) = dp.Cell{Score: open + extend*float64(j), Op: dp.Insertion}
		}
		for i := 1; i < n; i++ {
			*t.At(i, 0) = dp.Cell{Score: open + extend*float64(i), Op: dp.Deletion}
		}

		for i := 1; i < n; i++ {
			for j := 1; j < m; j++ {
				d := max(open+extend+t.At(i-1, j).Score, extend+*del.At(i-1, j))
				in := max(open+extend+t.At(i, j-1).Score, extend+*ins.At(i, j-1))
				*del.At(i, j) = d
				*ins.At(i, j) = in

				e, err := eq(i, j)
				if err != nil {
					return err
				}
				sub := t.At(i-1, j-1).Score + e
				score, op := dp.MaxTolerance(sub, in, d, e)
				*t.At(i, j) = dp.Cell{Score: score, Op: op}
			}
		}
		return nil
	}
	return a
}
