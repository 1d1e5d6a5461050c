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

package batch

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"strconv"

	"znkr.io/twinalign/internal/metrics"
)

type column struct {
	name  string
	value func(r metrics.Report) float64
}

var reportColumns = []column{
	{"matched", func(r metrics.Report) float64 { return float64(r.Matched) }},
	{"mismatched", func(r metrics.Report) float64 { return float64(r.Mismatched) }},
	{"gaps", func(r metrics.Report) float64 { return float64(r.Gaps) }},
	{"percent_matched", func(r metrics.Report) float64 { return r.PercentMatched }},
	{"percent_mismatched", func(r metrics.Report) float64 { return r.PercentMismatched }},
	{"percent_gaps", func(r metrics.Report) float64 { return r.PercentGaps }},
	{"gap_groups", func(r metrics.Report) float64 { return float64(r.GapGroups) }},
	{"gap_length_mean", func(r metrics.Report) float64 { return r.GapLength.Mean }},
	{"gap_length_std", func(r metrics.Report) float64 { return r.GapLength.Std }},
	{"gap_length_max", func(r metrics.Report) float64 { return r.GapLength.Max }},
	{"p2p_euclidean_mean", func(r metrics.Report) float64 { return r.P2PEuclidean.Mean }},
	{"p2p_euclidean_std", func(r metrics.Report) float64 { return r.P2PEuclidean.Std }},
	{"p2p_euclidean_max", func(r metrics.Report) float64 { return r.P2PEuclidean.Max }},
	{"p2p_manhattan_mean", func(r metrics.Report) float64 { return r.P2PManhattan.Mean }},
	{"p2p_manhattan_std", func(r metrics.Report) float64 { return r.P2PManhattan.Std }},
	{"p2p_manhattan_max", func(r metrics.Report) float64 { return r.P2PManhattan.Max }},
	{"frechet_euclidean", func(r metrics.Report) float64 { return r.FrechetEuclidean }},
	{"frechet_manhattan", func(r metrics.Report) float64 { return r.FrechetManhattan }},
	{"normalized_score", func(r metrics.Report) float64 { return r.NormalizedScore }},
	{"number_one_to_many_dt", func(r metrics.Report) float64 { return float64(r.OneToManyDT) }},
	{"number_one_to_many_pt", func(r metrics.Report) float64 { return float64(r.OneToManyPT) }},
	{"percent_one_to_many", func(r metrics.Report) float64 { return r.PercentOneToMany }},
	{"dt_max_rep", func(r metrics.Report) float64 { return float64(r.RepetitionsDT.Max) }},
	{"dt_number_rep", func(r metrics.Report) float64 { return float64(r.RepetitionsDT.Count) }},
	{"dt_avg_rep", func(r metrics.Report) float64 { return r.RepetitionsDT.Mean }},
	{"dt_std_rep", func(r metrics.Report) float64 { return r.RepetitionsDT.Std }},
	{"pt_max_rep", func(r metrics.Report) float64 { return float64(r.RepetitionsPT.Max) }},
	{"pt_number_rep", func(r metrics.Report) float64 { return float64(r.RepetitionsPT.Count) }},
	{"pt_avg_rep", func(r metrics.Report) float64 { return r.RepetitionsPT.Mean }},
	{"pt_std_rep", func(r metrics.Report) float64 { return r.RepetitionsPT.Std }},
}

// header returns the columns of a results file for results of the given combination.
func header(comb Combination, lca bool) []string {
	var out []string
	for _, p := range comb {
		out = append(out, p.Label)
	}
	out = append(out, "score")
	for _, c := range reportColumns {
		out = append(out, c.name)
	}
	if lca {
		for _, c := range reportColumns {
			out = append(out, "lca_"+c.name)
		}
	}
	return append(out, "execution_time", "trace_length")
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func row(res Result, lca bool) []string {
	var out []string
	for _, p := range res.Combination {
		out = append(out, formatFloat(p.Value))
	}
	out = append(out, formatFloat(res.Score))
	for _, c := range reportColumns {
		out = append(out, formatFloat(c.value(res.Metrics)))
	}
	if lca {
		for _, c := range reportColumns {
			out = append(out, formatFloat(c.value(res.LCA)))
		}
	}
	return append(out, formatFloat(res.Elapsed.Seconds()), strconv.Itoa(res.TraceLength))
}

// appendResults appends one row per result to the results file at path. The header is only
// written if the file doesn't exist yet.
func appendResults(path string, results []Result, lca bool) (err error) {
	if len(results) == 0 {
		return nil
	}
	_, statErr := os.Stat(path)
	if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
		return statErr
	}
	exists := statErr == nil

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(header(results[0].Combination, lca)); err != nil {
			return err
		}
	}
	for _, res := range results {
		if err := w.Write(row(res, lca)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
