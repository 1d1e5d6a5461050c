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

import "fmt"

// Grid is a dense, row-major two dimensional table.
//
// Alignment tables are indexed [0..n][0..m] where row and column 0 represent the alignment
// against an empty prefix. A grid with a zero dimension is valid and has no cells.
type Grid[C any] struct {
	rows, cols int
	cells      []C
}

// NewGrid allocates a grid with the given number of rows and columns.
func NewGrid[C any](rows, cols int) *Grid[C] {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("invalid grid dimensions %dx%d", rows, cols))
	}
	return &Grid[C]{
		rows:  rows,
		cols:  cols,
		cells: make([]C, rows*cols),
	}
}

// Rows returns the number of rows.
func (g *Grid[C]) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid[C]) Cols() int { return g.cols }

// At returns a pointer to the cell (i, j).
func (g *Grid[C]) At(i, j int) *C {
	if i < 0 || i >= g.rows || j < 0 || j >= g.cols {
		panic(fmt.Sprintf("cell (%d, %d) out of bounds for %dx%d grid", i, j, g.rows, g.cols))
	}
	return &g.cells[i*g.cols+j]
}

// Fill sets every cell to c.
func (g *Grid[C]) Fill(c C) {
	for i := range g.cells {
		g.cells[i] = c
	}
}

// Terminal returns the bottom right cell. It returns false if the grid has no cells.
func (g *Grid[C]) Terminal() (C, bool) {
	if len(g.cells) == 0 {
		var zero C
		return zero, false
	}
	return g.cells[len(g.cells)-1], true
}

// Cell is a cell of a similarity table: the best score for the prefixes ending at this cell and
// the operation that produced it.
type Cell struct {
	Score float64
	Op    Op
}

// WarpCell is a cell of a warping table: the minimal cumulative cost for the prefixes ending at
// this cell and the predecessor it was reached from.
type WarpCell struct {
	Cost float64
	Step Step
}
