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

package system

import (
	"errors"
	"fmt"
	"math"

	"znkr.io/twinalign/trace"
)

var (
	// ErrMissingTolerance is returned if a numeric attribute has no tolerance entry.
	ErrMissingTolerance = errors.New("system: missing tolerance")

	// ErrMissingAttribute is returned if the second snapshot lacks an attribute of the first.
	ErrMissingAttribute = errors.New("system: missing attribute")

	// ErrTypeMismatch is returned if an attribute is numeric in one snapshot and categorical in
	// the other.
	ErrTypeMismatch = errors.New("system: attribute type mismatch")

	// ErrDegenerateSnapshot is returned if a snapshot has no attributes besides the timestamp.
	ErrDegenerateSnapshot = errors.New("system: snapshot has no attributes besides the timestamp")
)

// Similarity returns how similar two snapshots are, as a value in [0, 1].
//
// All attributes of dt except the timestamp are compared with the attribute of the same name in
// pt. For a numeric attribute with tolerance mad and difference d:
//
//   - If d >= mad, the snapshots don't match and the result is 0, irrespective of any other
//     attribute.
//   - Otherwise the attribute contributes 1 - d/mad. The contribution is divided by 2*low if both
//     values are in a low complexity region, and by low if only one of them is.
//
// A categorical attribute contributes 1 if both values are equal and 0 otherwise. The result is
// the sum of all contributions divided by the number of compared attributes.
func (m Model) Similarity(dt, pt trace.Snapshot, tol Tolerance, timestampLabel string, low int) (float64, error) {
	n := 0
	sum := 0.0
	for i := range dt.Len() {
		a := dt.At(i)
		if a.Name == timestampLabel {
			continue
		}
		n++
		pv, err := counterpart(a, pt)
		if err != nil {
			return 0, err
		}
		x, ok := a.Value.Float()
		if !ok {
			if a.Value.Equal(pv) {
				sum++
			}
			continue
		}
		y, _ := pv.Float()
		mad, ok := tol[a.Name]
		if !ok {
			return 0, fmt.Errorf("%w for attribute %q", ErrMissingTolerance, a.Name)
		}
		d := math.Abs(x - y)
		if d >= mad {
			return 0, nil
		}
		reward := 1 - d/mad
		dtLow, ptLow := m.IsLowComplexity(a.Name, a.Value), m.IsLowComplexity(a.Name, pv)
		switch {
		case dtLow && ptLow:
			sum += reward / float64(2*low)
		case dtLow || ptLow:
			sum += reward / float64(low)
		default:
			sum += reward
		}
	}
	if n == 0 {
		return 0, ErrDegenerateSnapshot
	}
	return sum / float64(n), nil
}

// Distance returns the distance between two snapshots, used by dynamic time warping.
//
// The distance is the Euclidean norm over all attributes of dt except the timestamp. Numeric
// differences are scaled by the attribute's tolerance if there is a positive one, a categorical
// mismatch counts as a difference of 1. The distance of a snapshot to itself is 0.
func (m Model) Distance(dt, pt trace.Snapshot, tol Tolerance, timestampLabel string) (float64, error) {
	sum := 0.0
	for i := range dt.Len() {
		a := dt.At(i)
		if a.Name == timestampLabel {
			continue
		}
		pv, err := counterpart(a, pt)
		if err != nil {
			return 0, err
		}
		x, ok := a.Value.Float()
		if !ok {
			if !a.Value.Equal(pv) {
				sum++
			}
			continue
		}
		y, _ := pv.Float()
		d := math.Abs(x - y)
		if mad := tol[a.Name]; mad > 0 {
			d /= mad
		}
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// counterpart returns the value in pt for the attribute a and checks that both have the same
// kind.
func counterpart(a trace.Attr, pt trace.Snapshot) (trace.Value, error) {
	pv, ok := pt.Get(a.Name)
	if !ok {
		return trace.Value{}, fmt.Errorf("%w %q", ErrMissingAttribute, a.Name)
	}
	if pv.IsNumeric() != a.Value.IsNumeric() {
		return trace.Value{}, fmt.Errorf("%w for attribute %q", ErrTypeMismatch, a.Name)
	}
	return pv, nil
}
