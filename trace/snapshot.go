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

// Package trace provides the snapshot and trace types that alignment algorithms operate on.
//
// A [Snapshot] is one timestamped record of attribute values, a [Trace] is a time-ordered
// sequence of snapshots. Snapshots are immutable once created.
package trace

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotNumeric is returned if an attribute that must be numeric holds a categorical value.
var ErrNotNumeric = errors.New("trace: attribute is not numeric")

// DefaultTimestampLabel is the name of the timestamp attribute used when none is configured.
const DefaultTimestampLabel = "timestamp(s)"

// Value is a single attribute value. It's either numeric or categorical.
type Value struct {
	num     float64
	str     string
	numeric bool
}

// Number returns a numeric value.
func Number(f float64) Value { return Value{num: f, numeric: true} }

// Category returns a categorical value.
func Category(s string) Value { return Value{str: s} }

// IsNumeric reports whether v holds a number.
func (v Value) IsNumeric() bool { return v.numeric }

// Float returns the numeric value of v and whether v is numeric.
func (v Value) Float() (float64, bool) { return v.num, v.numeric }

// Equal reports whether v and w have the same kind and the same value.
func (v Value) Equal(w Value) bool {
	if v.numeric != w.numeric {
		return false
	}
	if v.numeric {
		return v.num == w.num
	}
	return v.str == w.str
}

// String formats v the way it's written to CSV files.
func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// Attr is a named attribute value.
type Attr struct {
	Name  string
	Value Value
}

// Num is shorthand for a numeric attribute.
func Num(name string, f float64) Attr { return Attr{Name: name, Value: Number(f)} }

// Cat is shorthand for a categorical attribute.
func Cat(name, s string) Attr { return Attr{Name: name, Value: Category(s)} }

// Snapshot is an ordered mapping from attribute name to value.
//
// The zero value is an empty snapshot. Snapshots must be created with [New] to support lookups
// by name.
type Snapshot struct {
	attrs []Attr
	index map[string]int
}

// New creates a snapshot from attrs. The attribute order is preserved. If a name appears more
// than once, the last value wins but the position of the first occurrence is kept.
func New(attrs ...Attr) Snapshot {
	s := Snapshot{
		attrs: make([]Attr, 0, len(attrs)),
		index: make(map[string]int, len(attrs)),
	}
	for _, a := range attrs {
		if i, ok := s.index[a.Name]; ok {
			s.attrs[i].Value = a.Value
			continue
		}
		s.index[a.Name] = len(s.attrs)
		s.attrs = append(s.attrs, a)
	}
	return s
}

// Len returns the number of attributes, including the timestamp.
func (s Snapshot) Len() int { return len(s.attrs) }

// Get returns the value of the named attribute.
func (s Snapshot) Get(name string) (Value, bool) {
	i, ok := s.index[name]
	if !ok {
		return Value{}, false
	}
	return s.attrs[i].Value, true
}

// At returns the i-th attribute.
func (s Snapshot) At(i int) Attr { return s.attrs[i] }

// Keys returns the attribute names in order.
func (s Snapshot) Keys() []string {
	keys := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		keys[i] = a.Name
	}
	return keys
}

// Attrs returns a copy of the attributes in order.
func (s Snapshot) Attrs() []Attr {
	out := make([]Attr, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// Equal reports whether s and o have the same attributes with equal values in the same order.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.attrs) != len(o.attrs) {
		return false
	}
	for i, a := range s.attrs {
		b := o.attrs[i]
		if a.Name != b.Name || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// Trace is a time-ordered sequence of snapshots.
type Trace []Snapshot

// Column returns the values of the named attribute, one per snapshot. Snapshots that lack the
// attribute are reported by index in missing.
func (t Trace) Column(name string) (values []Value, missing []int) {
	values = make([]Value, len(t))
	for i, s := range t {
		v, ok := s.Get(name)
		if !ok {
			missing = append(missing, i)
		}
		values[i] = v
	}
	return values, missing
}

// Floats returns the values of the named numeric attribute, one per snapshot.
func (t Trace) Floats(name string) ([]float64, error) {
	out := make([]float64, len(t))
	for i, s := range t {
		v, ok := s.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w %q in snapshot %d", ErrMissingColumn, name, i)
		}
		f, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w: attribute %q in snapshot %d is %q", ErrNotNumeric, name, i, v)
		}
		out[i] = f
	}
	return out, nil
}
