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

import (
	"maps"

	"znkr.io/twinalign/internal/config"
	"znkr.io/twinalign/system"
)

// Option configures the behavior of an algorithm. Every algorithm documents the options it
// supports, passing any other option to [New] is an error.
type Option = config.Option

// TimestampLabel sets the name of the timestamp attribute. The default is "timestamp(s)".
func TimestampLabel(label string) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.TimestampLabel = label
		return config.TimestampLabel
	}
}

// Tolerance sets the maximum acceptable distance (MAD) per attribute. Two numeric values whose
// distance is at or above the tolerance don't match.
func Tolerance(mad map[string]float64) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.Tolerance = maps.Clone(mad)
		return config.Tolerance
	}
}

// Low sets the divisor for the reward of values in low complexity regions of the system. It must
// be at least 1, the default is 5.
func Low(n int) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.Low = n
		return config.Low
	}
}

// Gap sets the penalty for every gap element of a constant gap alignment. The default is -0.2.
func Gap(penalty float64) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.Gap = penalty
		return config.Gap
	}
}

// InitGap sets the penalty for opening a gap in an affine gap alignment. The default is -0.2.
func InitGap(penalty float64) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.InitGap = penalty
		return config.InitGap
	}
}

// ContGap sets the penalty for every element of a gap in an affine gap alignment. The default is
// 0.
func ContGap(penalty float64) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.ContGap = penalty
		return config.ContGap
	}
}

// Epsilon sets the maximum difference for two KPI values to be equal.
func Epsilon(eps float64) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.Epsilon = eps
		return config.Epsilon
	}
}

// Delta sets the maximum difference in time for two events to be equal.
func Delta(d float64) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.Delta = d
		return config.Delta
	}
}

// ParamInterest sets the attribute compared by algorithms that look at a single attribute.
func ParamInterest(attr string) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.ParamInterest = attr
		return config.ParamInterest
	}
}

// System sets the tolerance model. The default is [system.Generic].
func System(m system.Model) Option {
	return func(cfg *config.Config) config.Flag {
		cfg.System = m
		return config.System
	}
}
