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

// Package lcss measures the agreement of two traces as the length of their longest common
// subsequence (D. Maier, "The Complexity of Some Problems on Subsequences and Supersequences",
// 1978), with the notion of equality adapted to numeric KPIs or to discrete events.
package lcss

import (
	"fmt"
	"math"

	"znkr.io/twinalign/internal/dp"
	"znkr.io/twinalign/trace"
)

// EqualFunc reports whether DT element i and PT element j are equal.
type EqualFunc func(i, j int) bool

type cell struct {
	n  int
	op dp.Op
}

// Matcher computes the longest common subsequence of two traces. It's not safe for concurrent
// use.
type Matcher struct {
	n, m  int
	equal EqualFunc
	table *dp.Grid[cell]
	path  []dp.Move
	done  bool
}

// New returns a matcher for sequences of length n and m.
func New(n, m int, equal EqualFunc) *Matcher {
	return &Matcher{
		n:     n,
		m:     m,
		equal: equal,
		table: dp.NewGrid[cell](n, m),
	}
}

// NewKPI returns a matcher that considers two snapshots equal if the values of the numeric
// attribute param differ by at most epsilon.
func NewKPI(dt, pt trace.Trace, param string, epsilon float64) (*Matcher, error) {
	x, err := dt.Floats(param)
	if err != nil {
		return nil, err
	}
	y, err := pt.Floats(param)
	if err != nil {
		return nil, err
	}
	return New(len(x), len(y), func(i, j int) bool {
		return math.Abs(x[i]-y[j]) <= epsilon
	}), nil
}

// NewEvents returns a matcher that considers two snapshots equal if they have the same value for
// the attribute param and their timestamps differ by at most delta.
func NewEvents(dt, pt trace.Trace, param, timestampLabel string, delta float64) (*Matcher, error) {
	x, err := column(dt, param)
	if err != nil {
		return nil, err
	}
	y, err := column(pt, param)
	if err != nil {
		return nil, err
	}
	tx, err := dt.Floats(timestampLabel)
	if err != nil {
		return nil, err
	}
	ty, err := pt.Floats(timestampLabel)
	if err != nil {
		return nil, err
	}
	return New(len(x), len(y), func(i, j int) bool {
		return x[i].Equal(y[j]) && math.Abs(tx[i]-ty[j]) <= delta
	}), nil
}

func column(t trace.Trace, name string) ([]trace.Value, error) {
	values, missing := t.Column(name)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w %q in snapshot %d", trace.ErrMissingColumn, name, missing[0])
	}
	return values, nil
}

// Align fills the table and returns the alignment that pairs the elements of the longest common
// subsequence. Elements outside of it are aligned against gaps. Subsequent calls return the same
// alignment without recomputing it.
func (l *Matcher) Align() ([]dp.Move, error) {
	if l.done {
		return l.path, nil
	}
	l.fill()
	l.path = dp.Walk(l.n, l.m, func(i, j int) dp.Op {
		return l.table.At(i-1, j-1).op
	})
	l.done = true
	return l.path, nil
}

func (l *Matcher) fill() {
	at := func(i, j int) int {
		if i < 0 || j < 0 {
			return 0
		}
		return l.table.At(i, j).n
	}
	for i := range l.n {
		for j := range l.m {
			c := l.table.At(i, j)
			if l.equal(i, j) {
				*c = cell{n: at(i-1, j-1) + 1, op: dp.Match}
				continue
			}
			up, left := at(i-1, j), at(i, j-1)
			if up >= left {
				*c = cell{n: up, op: dp.Deletion}
			} else {
				*c = cell{n: left, op: dp.Insertion}
			}
		}
	}
}

// Score returns the length of the longest common subsequence. It's NaN until [Matcher.Align]
// was called and 0 if one of the sequences is empty.
func (l *Matcher) Score() float64 {
	if !l.done {
		return math.NaN()
	}
	c, ok := l.table.Terminal()
	if !ok {
		return 0
	}
	return float64(c.n)
}
