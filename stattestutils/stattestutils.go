//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package stattestutils provides statistical helpers for the simulation tests.
//
// This package is not optimized for performance or speed and is only intended
// to be used in tests.
package stattestutils

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SampleMean returns the mean of a slice, or 0 for an empty slice.
func SampleMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// SampleVariance returns the population variance of a slice, i.e. the mean
// squared distance to the sample mean, or 0 for fewer than two values.
func SampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	_, variance := stat.PopMeanVariance(values, nil)
	return variance
}

// MeanAbs returns the mean of the absolute values of a slice.
func MeanAbs(values []float64) float64 {
	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	return SampleMean(abs)
}

// RejectionBound returns the smallest count c such that, out of trials
// independent events each happening with probability rate, more than c
// events happen with probability at most falseRejectionRate.
//
// Tests use it to bound the number of rejections of a test with level rate
// run trials times.
func RejectionBound(trials int, rate, falseRejectionRate float64) int {
	b := distuv.Binomial{N: float64(trials), P: rate}
	for c := 0; c < trials; c++ {
		if b.Survival(float64(c)) <= falseRejectionRate {
			return c
		}
	}
	return trials
}
