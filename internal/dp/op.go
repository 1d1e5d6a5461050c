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

// Package dp contains the dynamic programming table shared by all alignment algorithms, the
// tie-breaking rules used to fill it, and the backtracking that turns a filled table into an
// alignment path.
package dp

// Op describes the operation that produced the optimal value of a cell, and with that an
// element of an alignment.
//
// The numeric values are part of the contract: tie-breaking and backtracking compare them.
//
//go:generate go tool golang.org/x/tools/cmd/stringer -type=Op
type Op int

const (
	Deletion  Op = iota // A DT snapshot without counterpart
	Insertion           // A PT snapshot without counterpart
	Mismatch            // A DT and a PT snapshot aligned but not similar
	Match               // A DT and a PT snapshot aligned and similar
)

// Consumes reports how many DT and PT snapshots an operation consumes.
func (op Op) Consumes() (dt, pt int) {
	switch op {
	case Deletion:
		return 1, 0
	case Insertion:
		return 0, 1
	default:
		return 1, 1
	}
}

// Step describes which predecessor a dynamic time warping cell was reached from.
//
//go:generate go tool golang.org/x/tools/cmd/stringer -type=Step
type Step int

const (
	Stop     Step = iota // The origin, or a cell without a predecessor
	Diagonal             // (i-1, j-1)
	Up                   // (i-1, j)
	Left                 // (i, j-1)
)
