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

package config_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"znkr.io/twinalign"
	"znkr.io/twinalign/internal/config"
	"znkr.io/twinalign/system"
)

const all = config.TimestampLabel | config.Tolerance | config.Low | config.Gap | config.InitGap |
	config.ContGap | config.Epsilon | config.Delta | config.ParamInterest | config.System

func TestFromOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []config.Option
		want config.Config
	}{
		{
			name: "default",
			opts: nil,
			want: config.Default,
		},
		{
			name: "gap",
			opts: []config.Option{
				twinalign.Gap(-1),
			},
			want: config.Config{
				TimestampLabel: config.Default.TimestampLabel,
				Low:            config.Default.Low,
				Gap:            -1,
				InitGap:        config.Default.InitGap,
				ContGap:        config.Default.ContGap,
				System:         config.Default.System,
			},
		},
		{
			name: "gap-override",
			opts: []config.Option{
				twinalign.Gap(-1),
				twinalign.Low(3),
				twinalign.Gap(-2),
			},
			want: config.Config{
				TimestampLabel: config.Default.TimestampLabel,
				Low:            3,
				Gap:            -2,
				InitGap:        config.Default.InitGap,
				ContGap:        config.Default.ContGap,
				System:         config.Default.System,
			},
		},
		{
			name: "everything",
			opts: []config.Option{
				twinalign.TimestampLabel("t"),
				twinalign.Tolerance(map[string]float64{"v": 0.5}),
				twinalign.Low(2),
				twinalign.Gap(-0.1),
				twinalign.InitGap(-0.3),
				twinalign.ContGap(-0.05),
				twinalign.Epsilon(0.01),
				twinalign.Delta(2),
				twinalign.ParamInterest("v"),
				twinalign.System(system.Lift),
			},
			want: config.Config{
				TimestampLabel: "t",
				Tolerance:      system.Tolerance{"v": 0.5},
				Low:            2,
				Gap:            -0.1,
				InitGap:        -0.3,
				ContGap:        -0.05,
				Epsilon:        0.01,
				Delta:          2,
				ParamInterest:  "v",
				System:         system.Lift,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.FromOptions(tt.opts, all, 0)
			if err != nil {
				t.Fatalf("FromOptions(...) failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromOptions(...) result are different [-want,+got]:\n%s", diff)
			}
		})
	}
}

func TestFromOptionsErrors(t *testing.T) {
	tests := []struct {
		name              string
		opts              []config.Option
		allowed, required config.Flag
		want              error
	}{
		{"not-allowed", []config.Option{twinalign.Gap(-1)}, config.InitGap, 0, config.ErrOptionNotAllowed},
		{"missing", []config.Option{twinalign.ParamInterest("v")}, all, config.ParamInterest | config.Epsilon, config.ErrMissingParameter},
		{"low", []config.Option{twinalign.Low(0)}, all, 0, config.ErrInvalidParameter},
		{"epsilon", []config.Option{twinalign.Epsilon(-1)}, all, 0, config.ErrInvalidParameter},
		{"delta", []config.Option{twinalign.Delta(-1)}, all, 0, config.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromOptions(tt.opts, tt.allowed, tt.required)
			if !errors.Is(err, tt.want) {
				t.Errorf("FromOptions(...) error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFlagString(t *testing.T) {
	tests := []struct {
		flag config.Flag
		want string
	}{
		{config.Gap, "twinalign.Gap"},
		{config.ParamInterest | config.Epsilon, "twinalign.Epsilon|twinalign.ParamInterest"},
		{0, ""},
	}
	for _, tt := range tests {
		if got := tt.flag.String(); got != tt.want {
			t.Errorf("Flag(%d).String() = %q, want %q", int(tt.flag), got, tt.want)
		}
	}
}
