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

package noise

import (
	"math"

	"github.com/sethneel/bandits-ada/rand"
	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// granularityParam determines the resolution of the secure Laplace noise
// relative to its scale. Larger values result in more fine grained noise, but
// increase the chance of sampling inaccuracies due to overflows. The
// probability of an overflow is less than 2⁻¹⁰⁰⁰ if it is at most 2⁴⁰ and ε is
// at least 2⁻⁵⁰.
//
// This parameter should be a power of 2.
var granularityParam = math.Exp2(40)

type laplace struct {
	src exprand.Source
}

// Laplace returns a Noise instance that draws continuous Laplace noise from
// the given seeded source, so that a whole simulation can be replayed. A nil
// source is replaced by a freshly seeded one.
//
// Not thread-safe: the source is consumed on every draw.
func Laplace(src exprand.Source) Noise {
	if src == nil {
		src = rand.NewSource(0)
	}
	return &laplace{src: src}
}

func (l *laplace) Sample(l1Sensitivity, epsilon float64) (float64, error) {
	if err := checkArgs(l1Sensitivity, epsilon); err != nil {
		return 0, err
	}
	if l1Sensitivity == 0 {
		return 0, nil
	}
	d := distuv.Laplace{Mu: 0, Scale: Scale(l1Sensitivity, epsilon), Src: l.src}
	return d.Rand(), nil
}

func (*laplace) String() string {
	return "Laplace Noise"
}

type secureLaplace struct{}

// SecureLaplace returns a Noise instance that draws Laplace noise from a
// cryptographically secure stream.
//
// The noise is based on a geometric sampling mechanism that is robust against
// unintentional privacy leaks due to artifacts of floating point arithmetic.
// Its draws cannot be replayed from a seed.
func SecureLaplace() Noise {
	return secureLaplace{}
}

func (secureLaplace) Sample(l1Sensitivity, epsilon float64) (float64, error) {
	if err := checkArgs(l1Sensitivity, epsilon); err != nil {
		return 0, err
	}
	if l1Sensitivity == 0 {
		return 0, nil
	}
	return addLaplaceFloat64(0, epsilon, l1Sensitivity), nil
}

func (secureLaplace) String() string {
	return "Secure Laplace Noise"
}

// addLaplaceFloat64 adds Laplace noise scaled to the given epsilon and l1Sensitivity to the
// specified float64
func addLaplaceFloat64(x, epsilon, l1Sensitivity float64) float64 {
	granularity := ceilPowerOfTwo((l1Sensitivity / epsilon) / granularityParam)
	sample := twoSidedGeometric(granularity * epsilon / (l1Sensitivity + granularity))
	return roundToMultipleOfPowerOfTwo(x, granularity) + float64(sample)*granularity
}

// geometric draws a sample drawn from a geometric distribution with parameter
//
//	p = 1 - e^-λ.
//
// More precisely, it returns the number of Bernoulli trials until the first success
// where the success probability is p = 1 - e^-λ. The returned sample is truncated
// to the max int64 value.
//
// Note that to ensure that a truncation happens with probability less than 10⁻⁶,
// λ must be greater than 2⁻⁵⁹.
func geometric(lambda float64) int64 {
	// Return truncated sample in the case that the sample exceeds the max int64.
	if rand.Uniform() > -1.0*math.Expm1(-1.0*lambda*math.MaxInt64) {
		return math.MaxInt64
	}

	// Binary search for the sample in (0, MaxInt64]. Each iteration keeps the
	// left or the right half according to the probability mass in each, until
	// a single value is left.
	var left int64 = 0              // exclusive bound
	var right int64 = math.MaxInt64 // inclusive bound

	for left+1 < right {
		// The midpoint splits the probability mass of the interval roughly in
		// half; it is at most the arithmetic mean of the bounds.
		mid := left - int64(math.Floor((math.Log(0.5)+math.Log1p(math.Exp(lambda*float64(left-right))))/lambda))
		if mid <= left {
			mid = left + 1
		} else if mid >= right {
			mid = right - 1
		}

		// q = Pr[X ≤ mid | left < X ≤ right], approximately one half.
		q := math.Expm1(lambda*float64(left-mid)) / math.Expm1(lambda*float64(left-right))
		if rand.Uniform() <= q {
			right = mid
		} else {
			left = mid
		}
	}
	return right
}

// twoSidedGeometric draws a sample from a geometric distribution that is
// mirrored at 0. The non-negative part of the distribution's PDF matches
// the PDF of a geometric distribution of parameter p = 1 - e^-λ that is
// shifted to the left by 1 and scaled accordingly.
func twoSidedGeometric(lambda float64) int64 {
	var sample int64 = 0
	var sign int64 = -1
	// Keep a sample of 0 only if the sign is positive. Otherwise, the
	// probability of 0 would be twice as high as it should be.
	for sample == 0 && sign == -1 {
		sample = geometric(lambda) - 1
		sign = int64(rand.Sign())
	}
	return sample * sign
}

// ceilPowerOfTwo returns the smallest power of 2 larger or equal to x, or NaN
// when x is not a finite positive number below 2^1023. The result is an exact
// power of 2.
func ceilPowerOfTwo(x float64) float64 {
	if x <= 0.0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return math.NaN()
	}
	// float64 layout is "1*s 11*e 52*m"; x is a power of 2 iff its mantissa is 0.
	const (
		exponentMask uint64 = 0x7ff0000000000000
		mantissaMask uint64 = 0x000fffffffffffff
	)
	b := math.Float64bits(x)
	if b&mantissaMask == 0 {
		return x
	}
	exponentBits := b & exponentMask
	if exponentBits >= math.Float64bits(math.MaxFloat64)&exponentMask {
		return math.NaN()
	}
	// Bump the exponent by one and clear the mantissa.
	return math.Float64frombits(exponentBits + 0x0010000000000000)
}

// roundToMultipleOfPowerOfTwo returns the multiple of granularity closest to
// x. granularity must be an exact power of 2.
func roundToMultipleOfPowerOfTwo(x, granularity float64) float64 {
	return math.Round(x/granularity) * granularity
}
