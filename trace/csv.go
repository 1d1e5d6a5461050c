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

package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned if a requested column isn't in a CSV header or a snapshot lacks
// a requested attribute.
var ErrMissingColumn = errors.New("trace: missing column")

// ReadCSV reads a trace from CSV data with a header row.
//
// If columns is non-empty, only these columns are kept, in the given order. Otherwise all
// columns are kept in header order. Cells that parse as finite floating point numbers become
// numeric values, everything else is categorical, including "NaN" and "Inf".
func ReadCSV(r io.Reader, columns ...string) (Trace, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	// idx[k] is the position in a record of the k-th kept column.
	var idx []int
	if len(columns) == 0 {
		columns = header
		idx = make([]int, len(header))
		for i := range idx {
			idx[i] = i
		}
	} else {
		pos := make(map[string]int, len(header))
		for i, h := range header {
			pos[h] = i
		}
		idx = make([]int, len(columns))
		for k, c := range columns {
			i, ok := pos[c]
			if !ok {
				return nil, fmt.Errorf("%w %q", ErrMissingColumn, c)
			}
			idx[k] = i
		}
	}

	var t Trace
	attrs := make([]Attr, len(columns))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		for k, i := range idx {
			attrs[k] = Attr{Name: columns[k], Value: parseValue(rec[i])}
		}
		t = append(t, New(attrs...))
	}
	return t, nil
}

// ReadFile reads a trace from the CSV file at path. See [ReadCSV].
func ReadFile(path string, columns ...string) (Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ReadCSV(f, columns...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func parseValue(s string) Value {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	return Category(s)
}
