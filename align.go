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

package twinalign

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"znkr.io/twinalign/internal/config"
	"znkr.io/twinalign/internal/dp"
	"znkr.io/twinalign/internal/dtw"
	"znkr.io/twinalign/internal/lcss"
	"znkr.io/twinalign/internal/nw"
	"znkr.io/twinalign/trace"
)

// Op describes the role of a record in an alignment.
type Op = dp.Op

const (
	Deletion  = dp.Deletion  // A DT snapshot without PT counterpart
	Insertion = dp.Insertion // A PT snapshot without DT counterpart
	Mismatch  = dp.Mismatch  // A DT and a PT snapshot paired but not similar
	Match     = dp.Match     // A DT and a PT snapshot paired and similar
)

// Record is a single element of an alignment.
//
//   - For Match and Mismatch, DT and PT contain the paired snapshots.
//   - For Deletion, DT contains the unpaired snapshot and PT is unset (zero value) with PTIndex -1.
//   - For Insertion, PT contains the unpaired snapshot and DT is unset (zero value) with
//     DTIndex -1.
//
// Dynamic time warping never produces gaps between two non-empty traces. Its Deletion and
// Insertion records have both sides set and mark that the DT or the PT side advanced alone.
type Record struct {
	Op               Op
	DT, PT           trace.Snapshot
	DTIndex, PTIndex int
}

// Objective describes whether higher or lower scores are better.
type Objective int

const (
	Maximize Objective = iota
	Minimize
)

func (o Objective) String() string {
	switch o {
	case Maximize:
		return "maximize"
	case Minimize:
		return "minimize"
	default:
		return fmt.Sprintf("Objective(%d)", int(o))
	}
}

// Better reports whether the score a is better than b.
func (o Objective) Better(a, b float64) bool {
	if o == Minimize {
		return a < b
	}
	return a > b
}

// Algorithm is an alignment of two traces.
type Algorithm interface {
	// Name returns the name the algorithm was created with.
	Name() string

	// Align computes the alignment. Calling it again returns the same records.
	Align() ([]Record, error)

	// Score returns the score of the alignment. It's NaN until Align succeeded.
	Score() float64

	// Objective reports how to interpret the score.
	Objective() Objective
}

// Algorithm names accepted by [New].
const (
	NWConstantGap = "NDW_Tolerance"
	NWAffineGap   = "NDW_Affine"
	DTWSnaps      = "DTW_Snaps"
	DTWLugaresi   = "DTW_Lugaresi"
	LCSSKPIs      = "LCSS_KPIs"
	LCSSEvents    = "LCSS_Events"
)

var (
	// ErrUnknownAlgorithm is returned by [New] if the name doesn't identify an algorithm.
	ErrUnknownAlgorithm = errors.New("twinalign: unknown algorithm")

	// ErrOptionNotAllowed is returned by [New] if an option isn't supported by the algorithm.
	ErrOptionNotAllowed = config.ErrOptionNotAllowed

	// ErrMissingParameter is returned by [New] if the algorithm requires an option that wasn't
	// passed.
	ErrMissingParameter = config.ErrMissingParameter

	// ErrInvalidParameter is returned by [New] if an option value is out of range.
	ErrInvalidParameter = config.ErrInvalidParameter
)

// aligner is implemented by the algorithm packages.
type aligner interface {
	Align() ([]dp.Move, error)
	Score() float64
}

type variant struct {
	objective         Objective
	allowed, required config.Flag
	build             func(dt, pt trace.Trace, cfg config.Config) (aligner, error)
}

const similarityFlags = config.TimestampLabel | config.Tolerance | config.Low | config.System

var variants = map[string]variant{
	NWConstantGap: {
		objective: Maximize,
		allowed:   similarityFlags | config.Gap,
		build: func(dt, pt trace.Trace, cfg config.Config) (aligner, error) {
			return nw.NewConstant(dt, pt, similarity(cfg), cfg.Gap), nil
		},
	},
	NWAffineGap: {
		objective: Maximize,
		allowed:   similarityFlags | config.InitGap | config.ContGap,
		build: func(dt, pt trace.Trace, cfg config.Config) (aligner, error) {
			return nw.NewAffine(dt, pt, similarity(cfg), cfg.InitGap, cfg.ContGap), nil
		},
	},
	DTWSnaps: {
		objective: Minimize,
		allowed:   config.TimestampLabel | config.Tolerance | config.System,
		build: func(dt, pt trace.Trace, cfg config.Config) (aligner, error) {
			return dtw.NewSnaps(dt, pt, func(d, p trace.Snapshot) (float64, error) {
				return cfg.System.Distance(d, p, cfg.Tolerance, cfg.TimestampLabel)
			}), nil
		},
	},
	DTWLugaresi: {
		objective: Minimize,
		allowed:   config.ParamInterest,
		required:  config.ParamInterest,
		build: func(dt, pt trace.Trace, cfg config.Config) (aligner, error) {
			return dtw.NewLugaresi(dt, pt, cfg.ParamInterest)
		},
	},
	LCSSKPIs: {
		objective: Maximize,
		allowed:   config.ParamInterest | config.Epsilon,
		required:  config.ParamInterest | config.Epsilon,
		build: func(dt, pt trace.Trace, cfg config.Config) (aligner, error) {
			return lcss.NewKPI(dt, pt, cfg.ParamInterest, cfg.Epsilon)
		},
	},
	LCSSEvents: {
		objective: Maximize,
		allowed:   config.ParamInterest | config.Delta | config.TimestampLabel,
		required:  config.ParamInterest | config.Delta,
		build: func(dt, pt trace.Trace, cfg config.Config) (aligner, error) {
			return lcss.NewEvents(dt, pt, cfg.ParamInterest, cfg.TimestampLabel, cfg.Delta)
		},
	},
}

func similarity(cfg config.Config) nw.Scorer {
	return func(dt, pt trace.Snapshot) (float64, error) {
		return cfg.System.Similarity(dt, pt, cfg.Tolerance, cfg.TimestampLabel, cfg.Low)
	}
}

// Names returns the names of all algorithms in sorted order.
func Names() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New returns the algorithm with the given name, configured to align dt and pt.
//
// The supported options depend on the algorithm:
//
//   - [NWConstantGap]: [TimestampLabel], [Tolerance], [Low], [System], [Gap]
//   - [NWAffineGap]: [TimestampLabel], [Tolerance], [Low], [System], [InitGap], [ContGap]
//   - [DTWSnaps]: [TimestampLabel], [Tolerance], [System]
//   - [DTWLugaresi]: [ParamInterest] (required)
//   - [LCSSKPIs]: [ParamInterest] (required), [Epsilon] (required)
//   - [LCSSEvents]: [ParamInterest] (required), [Delta] (required), [TimestampLabel]
//
// The traces must not be modified while the algorithm is in use. The algorithm isn't safe for
// concurrent use.
func New(name string, dt, pt trace.Trace, opts ...Option) (Algorithm, error) {
	v, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownAlgorithm, name, strings.Join(Names(), ", "))
	}
	cfg, err := config.FromOptions(opts, v.allowed, v.required)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	impl, err := v.build(dt, pt, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &algorithm{
		name:      name,
		objective: v.objective,
		dt:        dt,
		pt:        pt,
		impl:      impl,
	}, nil
}

type algorithm struct {
	name      string
	objective Objective
	dt, pt    trace.Trace
	impl      aligner

	records []Record
	done    bool
}

func (a *algorithm) Name() string         { return a.name }
func (a *algorithm) Score() float64       { return a.impl.Score() }
func (a *algorithm) Objective() Objective { return a.objective }

func (a *algorithm) Align() ([]Record, error) {
	if a.done {
		return a.records, nil
	}
	moves, err := a.impl.Align()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	a.records = records(a.dt, a.pt, moves)
	a.done = true
	return a.records, nil
}

func records(dt, pt trace.Trace, moves []dp.Move) []Record {
	out := make([]Record, len(moves))
	for k, m := range moves {
		r := Record{Op: m.Op, DTIndex: m.I, PTIndex: m.J}
		if m.I >= 0 {
			r.DT = dt[m.I]
		}
		if m.J >= 0 {
			r.PT = pt[m.J]
		}
		out[k] = r
	}
	return out
}
