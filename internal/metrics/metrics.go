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

// Package metrics evaluates alignments.
//
// A [Report] summarizes how much of two traces an alignment pairs up and how far apart the paired
// snapshots are. Distances are computed over a selected set of numeric attributes. Attributes
// that aren't numeric in both snapshots of a pair are ignored.
package metrics

import (
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"znkr.io/twinalign"
	"znkr.io/twinalign/internal/dp"
	"znkr.io/twinalign/system"
	"znkr.io/twinalign/trace"
)

// Stats summarizes a sample. All fields are 0 for an empty sample.
type Stats struct {
	Mean, Std, Max float64
}

func stats(xs []float64) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	return Stats{
		Mean: stat.Mean(xs, nil),
		Std:  stat.PopStdDev(xs, nil),
		Max:  floats.Max(xs),
	}
}

// Repetitions summarizes how often the snapshots of one trace are paired in a warping alignment.
type Repetitions struct {
	Max   int // Most pairs of a single snapshot.
	Count int // Number of snapshots in more than one pair.

	// Pairs per snapshot over the snapshots in more than one pair. Std is the sample standard
	// deviation and 0 for fewer than two such snapshots.
	Mean, Std float64
}

// Report summarizes an alignment.
type Report struct {
	Matched, Mismatched, Gaps int // Number of records per kind.

	// Share of the snapshots in matched and mismatched pairs, and the remainder, in percent.
	PercentMatched, PercentMismatched, PercentGaps float64

	GapGroups int   // Number of runs of consecutive gap records.
	GapLength Stats // Length of these runs.

	// Point to point distances between the snapshots of matched pairs.
	P2PEuclidean, P2PManhattan Stats

	// Discrete Fréchet distance between the sequences of matched DT and PT snapshots.
	FrechetEuclidean, FrechetManhattan float64

	// Warping alignments only. Pairs beyond the first one of each DT and PT snapshot, their
	// share of all records in percent, and the repetitions per snapshot.
	OneToManyDT, OneToManyPT     int
	PercentOneToMany             float64
	RepetitionsDT, RepetitionsPT Repetitions

	// Score mapped to [0, 1] with 1 being best, see [NormalizedDistance] and [NormalizedLength].
	// 0 for algorithms without a normalization.
	NormalizedScore float64
}

// Compute evaluates an alignment of traces with dtLen and ptLen snapshots. Percentages are
// relative to the longer trace.
func Compute(records []twinalign.Record, dtLen, ptLen int, attrs []string) Report {
	r := compute(records, attrs)
	r.percentages(float64(r.Matched), float64(r.Mismatched), float64(max(dtLen, ptLen)))
	return r
}

// ComputeWarping evaluates a warping alignment, in which every record pairs two snapshots and a
// snapshot may be paired with many snapshots of the other trace. Diagonal steps count as matches,
// the other records as one-to-many pairs. Percentages are relative to the number of records.
func ComputeWarping(records []twinalign.Record, attrs []string) Report {
	r := compute(records, attrs)
	r.RepetitionsDT, r.OneToManyDT = repetitions(records, func(rec twinalign.Record) int { return rec.DTIndex })
	r.RepetitionsPT, r.OneToManyPT = repetitions(records, func(rec twinalign.Record) int { return rec.PTIndex })
	if len(records) == 0 {
		return r
	}
	n := float64(len(records))
	r.PercentMatched = float64(r.Matched) / n * 100
	r.PercentMismatched = float64(r.Mismatched) / n * 100
	r.PercentOneToMany = float64(r.OneToManyDT+r.OneToManyPT) / n * 100
	r.PercentGaps = float64(r.Gaps) / n * 100
	return r
}

// repetitions counts how often each snapshot of one trace appears in the pairs of records. It
// returns the summary and the number of pairs beyond the first one of each snapshot.
func repetitions(records []twinalign.Record, index func(twinalign.Record) int) (Repetitions, int) {
	counts := make(map[int]int)
	pairs := 0
	for _, rec := range records {
		if rec.DTIndex < 0 || rec.PTIndex < 0 {
			continue
		}
		counts[index(rec)]++
		pairs++
	}

	var reps Repetitions
	var repeated []float64
	for _, i := range slices.Sorted(maps.Keys(counts)) {
		c := counts[i]
		reps.Max = max(reps.Max, c)
		if c > 1 {
			repeated = append(repeated, float64(c))
		}
	}
	reps.Count = len(repeated)
	if len(repeated) > 0 {
		reps.Mean = stat.Mean(repeated, nil)
	}
	if len(repeated) > 1 {
		reps.Std = stat.StdDev(repeated, nil)
	}
	return reps, pairs - len(counts)
}

// NormalizedDistance maps the cumulative distance of a warping of traces with dtLen and ptLen
// elements to 1 - score/max(dtLen, ptLen). It's 1 if both traces are empty and 0 if the result
// isn't finite.
func NormalizedDistance(score float64, dtLen, ptLen int) float64 {
	n := max(dtLen, ptLen)
	if n == 0 {
		return 1
	}
	v := 1 - score/float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// NormalizedLength maps the length of a common subsequence of traces with dtLen and ptLen
// elements to score/min(dtLen, ptLen). It's 1 if one of the traces is empty and 0 if the result
// isn't finite.
func NormalizedLength(score float64, dtLen, ptLen int) float64 {
	n := min(dtLen, ptLen)
	if n == 0 {
		return 1
	}
	v := score / float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ComputeLCA evaluates an alignment like [Compute] but ignores everything in low complexity
// regions of the system: a pair is kept if at least one of its snapshots is outside of such a
// region, an unpaired snapshot if it's outside. Percentages are relative to the number of
// snapshots of both traces outside of low complexity regions.
func ComputeLCA(records []twinalign.Record, dt, pt trace.Trace, attrs []string, model system.Model) Report {
	relevant := func(s trace.Snapshot) bool {
		for _, a := range attrs {
			if v, ok := s.Get(a); ok && model.IsLowComplexity(a, v) {
				return false
			}
		}
		return true
	}

	kept := make([]twinalign.Record, 0, len(records))
	for _, rec := range records {
		switch {
		case rec.DTIndex >= 0 && rec.PTIndex >= 0:
			if relevant(rec.DT) || relevant(rec.PT) {
				kept = append(kept, rec)
			}
		case rec.DTIndex >= 0:
			if relevant(rec.DT) {
				kept = append(kept, rec)
			}
		case rec.PTIndex >= 0:
			if relevant(rec.PT) {
				kept = append(kept, rec)
			}
		}
	}

	total := 0
	for _, s := range dt {
		if relevant(s) {
			total++
		}
	}
	for _, s := range pt {
		if relevant(s) {
			total++
		}
	}

	r := compute(kept, attrs)
	r.percentages(2*float64(r.Matched), 2*float64(r.Mismatched), float64(total))
	return r
}

func (r *Report) percentages(matched, mismatched, total float64) {
	if total == 0 {
		return
	}
	r.PercentMatched = matched / total * 100
	r.PercentMismatched = mismatched / total * 100
	r.PercentGaps = 100 - r.PercentMatched - r.PercentMismatched
}

func compute(records []twinalign.Record, attrs []string) Report {
	var r Report
	var dts, pts []trace.Snapshot
	var euclidean, manhattan []float64
	var runs []float64
	run := 0
	for _, rec := range records {
		if rec.DTIndex < 0 || rec.PTIndex < 0 {
			r.Gaps++
			run++
			continue
		}
		if run > 0 {
			runs = append(runs, float64(run))
			run = 0
		}
		switch rec.Op {
		case twinalign.Match:
			r.Matched++
			dts = append(dts, rec.DT)
			pts = append(pts, rec.PT)
			euclidean = append(euclidean, Euclidean(rec.DT, rec.PT, attrs))
			manhattan = append(manhattan, Manhattan(rec.DT, rec.PT, attrs))
		case twinalign.Mismatch:
			r.Mismatched++
		}
	}
	if run > 0 {
		runs = append(runs, float64(run))
	}

	r.GapGroups = len(runs)
	r.GapLength = stats(runs)
	r.P2PEuclidean = stats(euclidean)
	r.P2PManhattan = stats(manhattan)
	r.FrechetEuclidean = Frechet(dts, pts, func(a, b trace.Snapshot) float64 { return Euclidean(a, b, attrs) })
	r.FrechetManhattan = Frechet(dts, pts, func(a, b trace.Snapshot) float64 { return Manhattan(a, b, attrs) })
	return r
}

// diffs calls f with the difference of every attribute in attrs that's numeric in a and b.
func diffs(a, b trace.Snapshot, attrs []string, f func(d float64)) {
	for _, attr := range attrs {
		va, ok := a.Get(attr)
		if !ok {
			continue
		}
		vb, ok := b.Get(attr)
		if !ok {
			continue
		}
		x, okx := va.Float()
		y, oky := vb.Float()
		if okx && oky {
			f(x - y)
		}
	}
}

// Euclidean returns the Euclidean distance between a and b over attrs.
func Euclidean(a, b trace.Snapshot, attrs []string) float64 {
	var sum float64
	diffs(a, b, attrs, func(d float64) { sum += d * d })
	return math.Sqrt(sum)
}

// Manhattan returns the Manhattan distance between a and b over attrs.
func Manhattan(a, b trace.Snapshot, attrs []string) float64 {
	var sum float64
	diffs(a, b, attrs, func(d float64) { sum += math.Abs(d) })
	return sum
}

// Frechet returns the discrete Fréchet distance between p and q (T. Eiter and H. Mannila,
// "Computing discrete Fréchet distance", 1994). It's 0 if both are empty and +Inf if only one
// is.
func Frechet(p, q []trace.Snapshot, dist func(a, b trace.Snapshot) float64) float64 {
	switch {
	case len(p) == 0 && len(q) == 0:
		return 0
	case len(p) == 0 || len(q) == 0:
		return math.Inf(1)
	}
	ca := dp.NewGrid[float64](len(p), len(q))
	for i := range p {
		for j := range q {
			d := dist(p[i], q[j])
			switch {
			case i == 0 && j == 0:
				*ca.At(i, j) = d
			case i == 0:
				*ca.At(i, j) = max(*ca.At(i, j-1), d)
			case j == 0:
				*ca.At(i, j) = max(*ca.At(i-1, j), d)
			default:
				*ca.At(i, j) = max(min(*ca.At(i-1, j), *ca.At(i-1, j-1), *ca.At(i, j-1)), d)
			}
		}
	}
	c, _ := ca.Terminal()
	return c
}
