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

import "znkr.io/twinalign/trace"

// GapValue is written for every attribute of the missing side of a gap record.
const GapValue = "-"

// Keys returns the attribute names of the output schema: those of the first PT snapshot, or of
// the first DT snapshot if pt is empty. It returns nil if both traces are empty.
func Keys(dt, pt trace.Trace) []string {
	switch {
	case len(pt) > 0:
		return pt[0].Keys()
	case len(dt) > 0:
		return dt[0].Keys()
	default:
		return nil
	}
}

// Columns returns the header of the output schema for the given keys: dt-<key> for every key,
// followed by pt-<key> for every key, followed by operation.
func Columns(keys []string) []string {
	out := make([]string, 0, 2*len(keys)+1)
	for _, k := range keys {
		out = append(out, "dt-"+k)
	}
	for _, k := range keys {
		out = append(out, "pt-"+k)
	}
	return append(out, "operation")
}

// Row formats r according to the output schema for the given keys. Attributes missing from a
// present snapshot are left empty.
func (r Record) Row(keys []string) []string {
	out := make([]string, 0, 2*len(keys)+1)
	out = appendSide(out, r.DT, r.DTIndex < 0, keys)
	out = appendSide(out, r.PT, r.PTIndex < 0, keys)
	return append(out, r.Op.String())
}

func appendSide(out []string, s trace.Snapshot, gap bool, keys []string) []string {
	for _, k := range keys {
		switch v, ok := s.Get(k); {
		case gap:
			out = append(out, GapValue)
		case ok:
			out = append(out, v.String())
		default:
			out = append(out, "")
		}
	}
	return out
}
