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
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"znkr.io/twinalign/internal/metrics"
)

func TestAppendResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	results := []Result{{
		Combination: Combination{{"epsilon", 0.001}},
		Score:       2,
		Metrics:     metrics.Report{Matched: 2, NormalizedScore: 0.5},
		TraceLength: 4,
	}}
	require.NoError(t, appendResults(path, results, false))
	require.NoError(t, appendResults(path, results, false))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, header(results[0].Combination, false), rows[0])
	assert.Equal(t, rows[1], rows[2])
	assert.Equal(t, []string{"0.001", "2", "2"}, rows[1][:3])
	assert.Contains(t, rows[0], "normalized_score")
}

func TestAppendResultsStatError(t *testing.T) {
	// The parent of the results file is a regular file, stat fails with something other than
	// fs.ErrNotExist.
	parent := filepath.Join(t.TempDir(), "results")
	writeFile(t, parent, "")
	err := appendResults(filepath.Join(parent, "scenario.csv"), []Result{{}}, false)
	var pathErr *fs.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "stat", pathErr.Op)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}
