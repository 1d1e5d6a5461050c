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
	"znkr.io/twinalign/internal/dp"
	"znkr.io/twinalign/trace"
)

// NewConstant returns an aligner that penalizes every gap element with gap, which is usually
// negative.
func NewConstant(dt, pt trace.Trace, eq Scorer, gap float64) *Aligner {
	a := newAligner(dt, pt, eq)
	t := a.table
	a.fill = func(eq func(i, j int) (float64, error)) error {
		*t.At(0, 0) = dp.Cell{}
		for j := 1; j < t.Cols(); j++ {
			*t.At(0, j) = dp.Cell{Score: float64(j) * gap, Op: dp.Insertion}
		}
		for i := 1; i < t.Rows(); i++ {
			*t.At(i, 0) = dp.Cell{Score: float64(i) * gap, Op: dp.Deletion}
		}

		for i := 1; i < t.Rows(); i++ {
			for j := 1; j < t.Cols(); j++ {
				e, err := eq(i, j)
				if err != nil {
					return err
				}
				sub := t.At(i-1, j-1).Score + e
				ins := t.At(i, j-1).Score + gap
				del := t.At(i-1, j).Score + gap
				score, op := dp.MaxTolerance(sub, ins, del, e)
				*t.At(i, j) = dp.Cell{Score: score, Op: op}
			}
		}
		return nil
	}
	return a
}
