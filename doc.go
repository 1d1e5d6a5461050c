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

// Package twinalign aligns the traces of a digital twin (DT) and its physical counterpart (PT).
//
// A trace is a time-ordered sequence of snapshots, each a set of named attribute values. The DT
// and PT of the same system rarely agree exactly: they're sampled at different rates, drift apart
// in time and carry noise. An alignment pairs up corresponding snapshots so that the two traces
// can be compared state by state.
//
// Alignments are computed by one of several dynamic programming algorithms, selected by name with
// [New]:
//
//   - [NWConstantGap] and [NWAffineGap] are global alignments (Needleman-Wunsch) that score
//     snapshot pairs with a tolerance model and penalize unpaired snapshots. Higher scores are
//     better.
//   - [DTWSnaps] and [DTWLugaresi] are dynamic time warping variants that pair every snapshot with
//     at least one snapshot of the other trace. Lower scores are better.
//   - [LCSSKPIs] and [LCSSEvents] compute the longest common subsequence of a single attribute.
//     Higher scores are better.
//
// Use [Algorithm.Objective] to interpret a score without knowing the algorithm.
//
// Performance: All algorithms use O(N*M) time and space where N and M are the lengths of the two
// traces.
package twinalign
