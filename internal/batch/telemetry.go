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
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("znkr.io/twinalign/internal/batch")
var meter = otel.Meter("znkr.io/twinalign/internal/batch")

// algorithmName is the attribute key associating each record with the alignment algorithm.
const algorithmName = "algorithm"

var (
	// alignmentDuration measures the duration of a single alignment, from constructing the
	// algorithm until the records are available.
	//
	// Each record is associated with the algorithmName.
	alignmentDuration metric.Float64Histogram
	// alignmentFailures measures the number of failed alignments.
	//
	// Each record is associated with the algorithmName.
	alignmentFailures metric.Int64Counter
)

func init() {
	var err error
	alignmentDuration, err = meter.Float64Histogram(
		"batch.alignment.duration",
		metric.WithDescription("The duration of a single alignment of two traces."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic("batch: failed to init 'batch.alignment.duration' instrument")
	}

	alignmentFailures, err = meter.Int64Counter(
		"batch.alignment.failures",
		metric.WithDescription("The number of alignments that have failed."),
	)
	if err != nil {
		panic("batch: failed to init 'batch.alignment.failures' instrument")
	}
}

// measureAlignment records the duration of a successful alignment or counts a failed one.
func measureAlignment(ctx context.Context, algorithm string, succeeded bool, d time.Duration) {
	attrs := attribute.NewSet(attribute.String(algorithmName, algorithm))
	if succeeded {
		duration := float64(d) / float64(time.Millisecond)
		alignmentDuration.Record(ctx, duration, metric.WithAttributeSet(attrs))
	} else {
		alignmentFailures.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
}
