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

// Package hypothesis provides the exact binomial test used to check arm means
// after a bandit run, with the level correction for adaptively collected
// private data.
package hypothesis

import (
	"fmt"
	"math"

	"github.com/sethneel/bandits-ada/checks"
	"gonum.org/v1/gonum/stat/distuv"
)

// relativeTolerance is the slack allowed when comparing probabilities of
// outcomes to the probability of the observed outcome.
const relativeTolerance = 1 + 1e-7

// BinomTest returns the two-sided p-value of observing successes out of
// trials under a Binomial(trials, p) null.
//
// Outcomes count as at least as extreme as the observed one when their
// probability does not exceed its probability.
func BinomTest(successes, trials int, p float64) (float64, error) {
	if trials <= 0 {
		return 0, fmt.Errorf("BinomTest: trials is %d, must be strictly positive", trials)
	}
	if successes < 0 || successes > trials {
		return 0, fmt.Errorf("BinomTest: successes is %d, must be in [0, %d]", successes, trials)
	}
	if err := checks.CheckProbability(p); err != nil {
		return 0, fmt.Errorf("BinomTest: %w", err)
	}
	// Degenerate nulls put all mass on a single outcome.
	if p == 0 || p == 1 {
		if float64(successes) == p*float64(trials) {
			return 1, nil
		}
		return 0, nil
	}

	n, x := float64(trials), float64(successes)
	b := distuv.Binomial{N: n, P: p}
	mode := p * n
	if x == mode {
		return 1, nil
	}
	d := b.Prob(x) * relativeTolerance
	var pval float64
	if x < mode {
		y := 0
		for i := math.Ceil(mode); i <= n; i++ {
			if b.Prob(i) <= d {
				y++
			}
		}
		pval = b.CDF(x) + b.Survival(n-float64(y))
	} else {
		y := 0
		for i := 0.0; i <= math.Floor(mode); i++ {
			if b.Prob(i) <= d {
				y++
			}
		}
		pval = b.CDF(float64(y)-1) + b.Survival(x-1)
	}
	return math.Min(1, pval), nil
}

// CorrectedAlpha returns the significance level to use in place of alpha
// when the n samples of an arm were collected by an ε-differentially private
// adaptive procedure. The max-information bound of the procedure holds with
// probability at least 1-beta.
func CorrectedAlpha(alpha, epsilon float64, n int, beta float64) (float64, error) {
	if err := checks.CheckAlpha(alpha); err != nil {
		return 0, fmt.Errorf("CorrectedAlpha: %w", err)
	}
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return 0, fmt.Errorf("CorrectedAlpha: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("CorrectedAlpha: n is %d, must be strictly positive", n)
	}
	if err := checks.CheckBeta(beta); err != nil {
		return 0, fmt.Errorf("CorrectedAlpha: %w", err)
	}
	fn := float64(n)
	maxInfo := epsilon*epsilon*fn/2 + epsilon*math.Sqrt(fn*math.Log(2/beta))
	return alpha / (math.E * maxInfo), nil
}

// Reject reports whether a p-value rejects the null at level alpha.
func Reject(p, alpha float64) bool {
	return p < alpha
}
