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

// Package system provides the tolerance models that decide when two snapshots of a system are
// "equal enough".
//
// A [Model] captures the domain knowledge about a system under observation: which regions of
// its state space are low complexity, i.e. intrinsically noisy or uninformative and therefore
// weighted less when matching snapshots. The set of models is closed, use [ByName] to select one
// from configuration.
package system

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"znkr.io/twinalign/trace"
)

// ErrUnknownSystem is returned by [ByName] for names that don't identify a model.
var ErrUnknownSystem = errors.New("system: unknown system")

// Tolerance maps attribute names to the maximum acceptable distance (MAD) between two values of
// that attribute.
type Tolerance map[string]float64

// Model is a tolerance model for one kind of system.
type Model struct {
	name string
	low  func(attr string, v float64) bool
}

var (
	// Generic is the default model. It has no low complexity regions.
	Generic = Model{name: "System"}

	// Lift models an elevator. Low acceleration means the cabin is idle or moving at constant
	// speed.
	Lift = Model{name: "Lift", low: func(attr string, v float64) bool {
		return attr == "accel(m/s2)" && math.Abs(v) < 0.1
	}}

	// Incubator models an incubator. Temperatures close to the set point are low complexity.
	Incubator = Model{name: "Incubator", low: func(attr string, v float64) bool {
		a := math.Abs(v)
		return attr == "temperature(degrees)" && 27 < a && a < 29
	}}

	// RoboticArm models a robotic arm. Values close to zero are low complexity for every
	// attribute.
	RoboticArm = Model{name: "RoboticArm", low: func(_ string, v float64) bool {
		return math.Abs(v) < 0.001
	}}
)

var models = []Model{Generic, Lift, Incubator, RoboticArm}

// ByName returns the model with the given name. The empty name selects [Generic].
func ByName(name string) (Model, error) {
	if name == "" {
		return Generic, nil
	}
	i := slices.IndexFunc(models, func(m Model) bool { return m.name == name })
	if i < 0 {
		return Model{}, fmt.Errorf("%w %q", ErrUnknownSystem, name)
	}
	return models[i], nil
}

// Name returns the configuration name of m.
func (m Model) Name() string {
	if m.name == "" {
		return Generic.name
	}
	return m.name
}

// IsLowComplexity reports whether v is in a low complexity region for the attribute attr.
// Categorical values are never low complexity.
func (m Model) IsLowComplexity(attr string, v trace.Value) bool {
	f, ok := v.Float()
	if !ok || m.low == nil {
		return false
	}
	return m.low(attr, f)
}

// IsLowComplexitySnapshot reports whether any of the attributes of s, except the timestamp, is in
// a low complexity region.
func (m Model) IsLowComplexitySnapshot(s trace.Snapshot, timestampLabel string) bool {
	for i := range s.Len() {
		a := s.At(i)
		if a.Name != timestampLabel && m.IsLowComplexity(a.Name, a.Value) {
			return true
		}
	}
	return false
}

func (m Model) String() string { return m.Name() }

// Equal reports whether m and o are the same model.
func (m Model) Equal(o Model) bool { return m.Name() == o.Name() }
