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

// Package config provides shared configuration mechanisms for the alignment algorithms in this
// module.
//
// This package is an implementation detail, the configuration surface for users is provided via
// twinalign.Option.
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"znkr.io/twinalign/system"
	"znkr.io/twinalign/trace"
)

var (
	// ErrOptionNotAllowed is returned if an option is passed to an algorithm that doesn't use it.
	ErrOptionNotAllowed = errors.New("option not allowed")

	// ErrMissingParameter is returned if an algorithm requires an option that wasn't passed.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter is returned if an option value is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Config collects all configurable parameters of the alignment algorithms in this module.
type Config struct {
	// TimestampLabel names the attribute that holds the timestamp of a snapshot. It's excluded
	// from similarity computations.
	TimestampLabel string

	// Tolerance is the maximum acceptable distance per attribute.
	Tolerance system.Tolerance

	// Low is the divisor applied to the reward of values in low complexity regions.
	Low int

	// Gap is the constant gap penalty.
	Gap float64

	// InitGap and ContGap are the affine gap opening and extension penalties.
	InitGap, ContGap float64

	// Epsilon is the maximum difference for two values of the parameter of interest to be
	// considered equal.
	Epsilon float64

	// Delta is the maximum difference in timestamps for two events to be considered equal.
	Delta float64

	// ParamInterest names the attribute that single-attribute algorithms compare.
	ParamInterest string

	// System is the tolerance model.
	System system.Model
}

// Default is the default configuration.
var Default = Config{
	TimestampLabel: trace.DefaultTimestampLabel,
	Low:            5,
	Gap:            -0.2,
	InitGap:        -0.2,
	ContGap:        0,
	System:         system.Generic,
}

// Flag describes a single config entry. This is used to detect if configurations are being set
// that are not used by an algorithm, and if required ones are missing.
type Flag int

const (
	TimestampLabel Flag = 1 << iota
	Tolerance
	Low
	Gap
	InitGap
	ContGap
	Epsilon
	Delta
	ParamInterest
	System

	numFlags = iota
)

// Option is the mechanism used to expose the configuration to users.
type Option func(*Config) Flag

// FromOptions creates a configuration from a set of options.
//
// Every option must be in allowed and every flag in required must be set by at least one option.
func FromOptions(opts []Option, allowed, required Flag) (Config, error) {
	cfg := Default
	var set Flag
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		flag := opt(&cfg)
		if flag & ^allowed != 0 {
			return Config{}, fmt.Errorf("%w: %s", ErrOptionNotAllowed, flag)
		}
		set |= flag
	}
	if missing := required & ^set; missing != 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingParameter, missing)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	switch {
	case cfg.Low < 1:
		return fmt.Errorf("%w: low must be at least 1, got %d", ErrInvalidParameter, cfg.Low)
	case cfg.Epsilon < 0:
		return fmt.Errorf("%w: epsilon must not be negative, got %v", ErrInvalidParameter, cfg.Epsilon)
	case cfg.Delta < 0:
		return fmt.Errorf("%w: delta must not be negative, got %v", ErrInvalidParameter, cfg.Delta)
	}
	for attr, mad := range cfg.Tolerance {
		if mad < 0 {
			return fmt.Errorf("%w: tolerance for %q must not be negative, got %v", ErrInvalidParameter, attr, mad)
		}
	}
	return nil
}

var flagNames = [numFlags]string{
	"twinalign.TimestampLabel",
	"twinalign.Tolerance",
	"twinalign.Low",
	"twinalign.Gap",
	"twinalign.InitGap",
	"twinalign.ContGap",
	"twinalign.Epsilon",
	"twinalign.Delta",
	"twinalign.ParamInterest",
	"twinalign.System",
}

func (f Flag) String() string {
	var names []string
	for f != 0 {
		i := bits.TrailingZeros(uint(f))
		if i >= numFlags {
			names = append(names, fmt.Sprintf("Flag(%d)", 1<<i))
		} else {
			names = append(names, flagNames[i])
		}
		f &^= 1 << i
	}
	return strings.Join(names, "|")
}
