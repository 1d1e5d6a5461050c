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

// Package csvalign writes alignments as CSV.
//
// Every record becomes one row with the DT attributes, the PT attributes, and the operation, see
// [twinalign.Columns] for the schema. The attributes of the missing side of a gap are written as
// [twinalign.GapValue].
package csvalign

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"znkr.io/twinalign"
	"znkr.io/twinalign/csvalign/color"
)

type options struct {
	palette *color.Palette
}

// Option configures the output of [Write].
type Option func(*options)

// TerminalColors wraps every row in ANSI escape sequences depending on the record's operation.
// The output is meant for terminals and isn't valid CSV anymore.
func TerminalColors(opts ...color.Option) Option {
	p := color.Default()
	for _, opt := range opts {
		opt(&p)
	}
	return func(o *options) {
		o.palette = &p
	}
}

// Write writes the header and one row per record to w.
func Write(w io.Writer, records []twinalign.Record, keys []string, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.palette == nil {
		cw := csv.NewWriter(w)
		if err := cw.Write(twinalign.Columns(keys)); err != nil {
			return err
		}
		for _, r := range records {
			if err := cw.Write(r.Row(keys)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	var line bytes.Buffer
	cw := csv.NewWriter(&line)
	writeLine := func(code string, fields []string) error {
		line.Reset()
		if err := cw.Write(fields); err != nil {
			return err
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		if code == "" {
			_, err := w.Write(line.Bytes())
			return err
		}
		_, err := fmt.Fprintf(w, "%s%s%s\n", code, bytes.TrimSuffix(line.Bytes(), []byte{'\n'}), color.Reset)
		return err
	}
	if err := writeLine(o.palette.Header, twinalign.Columns(keys)); err != nil {
		return err
	}
	for _, r := range records {
		if err := writeLine(o.palette.For(r.Op), r.Row(keys)); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes the alignment to the named file, creating or truncating it.
func WriteFile(name string, records []twinalign.Record, keys []string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Write(f, records, keys); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}
