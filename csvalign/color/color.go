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

// Package color provides ANSI terminal colors for alignment records.
package color

import (
	"fmt"
	"strings"

	"znkr.io/twinalign"
)

// Reset is the escape sequence that resets all attributes.
const Reset = "\033[0m"

// Palette maps the parts of an alignment to escape sequences. An empty sequence leaves the part
// uncolored.
type Palette struct {
	Header    string
	Match     string
	Mismatch  string
	Deletion  string
	Insertion string
}

// Default is the palette used if no options are provided: bold headers, plain matches, yellow
// mismatches, red deletions, and green insertions.
func Default() Palette {
	return Palette{
		Header:    format([]int{1}),
		Mismatch:  format([]int{33}),
		Deletion:  format([]int{31}),
		Insertion: format([]int{32}),
	}
}

// For returns the escape sequence for records with the given op.
func (p Palette) For(op twinalign.Op) string {
	switch op {
	case twinalign.Match:
		return p.Match
	case twinalign.Mismatch:
		return p.Mismatch
	case twinalign.Deletion:
		return p.Deletion
	case twinalign.Insertion:
		return p.Insertion
	default:
		return ""
	}
}

// An Option makes it possible to configure custom colors.
type Option func(*Palette)

// Headers colors the header line.
func Headers(params ...int) Option {
	code := format(params)
	return func(p *Palette) {
		p.Header = code
	}
}

// Matches colors matching records.
func Matches(params ...int) Option {
	code := format(params)
	return func(p *Palette) {
		p.Match = code
	}
}

// Mismatches colors records that pair dissimilar snapshots.
func Mismatches(params ...int) Option {
	code := format(params)
	return func(p *Palette) {
		p.Mismatch = code
	}
}

// Deletions colors DT snapshots without PT counterpart.
func Deletions(params ...int) Option {
	code := format(params)
	return func(p *Palette) {
		p.Deletion = code
	}
}

// Insertions colors PT snapshots without DT counterpart.
func Insertions(params ...int) Option {
	code := format(params)
	return func(p *Palette) {
		p.Insertion = code
	}
}

func format(params []int) string {
	if len(params) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\033[")
	for i, v := range params {
		if i > 0 {
			sb.WriteRune(';')
		}
		fmt.Fprint(&sb, v)
	}
	sb.WriteRune('m')
	return sb.String()
}
