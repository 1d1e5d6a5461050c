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

// Epsilon is the tolerance for treating two scores as tied. Ties are always resolved by a fixed
// preference order, never by native floating point comparison, so that alignments are
// reproducible across platforms.
const Epsilon = 1e-4

// MaxTolerance returns the maximum of sub, ins, and del and the operation it corresponds to.
//
// Values within [Epsilon] of each other are tied. A substitution wins every tie it takes part
// in; it's a Match if eq > 0 and a Mismatch otherwise. Between an insertion and a deletion, the
// deletion wins ties, but only once the substitution lost against the deletion.
func MaxTolerance(sub, ins, del, eq float64) (float64, Op) {
	if sub >= del-Epsilon {
		if sub >= ins-Epsilon {
			if eq > 0 {
				return sub, Match
			}
			return sub, Mismatch
		}
		return ins, Insertion
	}
	if del >= ins-Epsilon {
		return del, Deletion
	}
	return ins, Insertion
}

// MinTolerance returns the minimum of diag, up, and left and the step it corresponds to.
//
// Values within [Epsilon] of each other are tied. It mirrors [MaxTolerance]: the diagonal wins
// every tie it takes part in, between up and left, left wins ties once the diagonal lost against
// it.
func MinTolerance(diag, up, left float64) (float64, Step) {
	if diag <= left+Epsilon {
		if diag <= up+Epsilon {
			return diag, Diagonal
		}
		return up, Up
	}
	if left <= up+Epsilon {
		return left, Left
	}
	return up, Up
}
