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

package dp

import "slices"

// Move is one element of an alignment path. I and J are indices into the DT and PT sequences,
// -1 denotes a gap on that side.
type Move struct {
	Op   Op
	I, J int
}

// Walk backtracks from the terminal cell (n, m) of a table with an empty-prefix row and column
// to the origin and returns the path from earliest to latest element.
//
// decide is called for every visited cell (i, j) with i, j >= 1 and returns the operation
// recorded for it. Row 0 is always left with insertions and column 0 with deletions.
func Walk(n, m int, decide func(i, j int) Op) []Move {
	path := make([]Move, 0, n+m)
	i, j := n, m
	for i > 0 || j > 0 {
		var op Op
		switch {
		case i == 0:
			op = Insertion
		case j == 0:
			op = Deletion
		default:
			op = decide(i, j)
		}

		switch op {
		case Insertion:
			path = append(path, Move{Insertion, -1, j - 1})
			j--
		case Match, Mismatch:
			path = append(path, Move{op, i - 1, j - 1})
			i--
			j--
		default:
			path = append(path, Move{Deletion, i - 1, -1})
			i--
		}
	}
	slices.Reverse(path)
	return path
}

// Warp backtracks a dynamic time warping table from (n, m) to the origin and returns the path
// from earliest to latest element.
//
// Every visited cell (i, j) with i, j >= 1 pairs DT element i-1 with PT element j-1. The
// operation of a move describes the step taken from the cell: Match for a diagonal step,
// Deletion if the DT side advances alone, and Insertion if the PT side advances alone. These are
// one-to-many pairings, not gaps. Gaps only appear if one of the sequences is empty.
func Warp(n, m int, step func(i, j int) Step) []Move {
	path := make([]Move, 0, n+m)
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			path = append(path, Move{Insertion, -1, j - 1})
			j--
			continue
		case j == 0:
			path = append(path, Move{Deletion, i - 1, -1})
			i--
			continue
		}

		switch step(i, j) {
		case Up:
			path = append(path, Move{Deletion, i - 1, j - 1})
			i--
		case Left:
			path = append(path, Move{Insertion, i - 1, j - 1})
			j--
		default:
			path = append(path, Move{Match, i - 1, j - 1})
			i--
			j--
		}
	}
	slices.Reverse(path)
	return path
}
