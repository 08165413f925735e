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

// Package checks contains parameter checks for the bandit simulations and the
// private counter.
package checks

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
)

const (
	epsilonName = "Epsilon"
	deltaName   = "Delta"
	alphaName   = "Alpha"

	// topMean is the mean of the best arm; the other arms are spaced below it.
	topMean = 0.9
)

func verifyName(defaultName string, nameSlice []string) (string, error) {
	var name string
	switch len(nameSlice) {
	case 0:
		name = defaultName
	case 1:
		name = nameSlice[0]
	default:
		return "", fmt.Errorf("This should never happen. There should be 0 or 1 'name' parameter, got %d", len(nameSlice))
	}
	return name, nil
}

// CheckEpsilonStrict returns an error if ε is nonpositive or +∞.
func CheckEpsilonStrict(epsilon float64, name ...string) error {
	epsName, err := verifyName(epsilonName, name)
	if err != nil {
		return err
	}
	if epsilon <= 0 || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s is %f, must be strictly positive and finite", epsName, epsilon)
	}
	return nil
}

// CheckDeltaStrict returns an error if δ is nonpositive or greater than or equal to 1.
func CheckDeltaStrict(delta float64, name ...string) error {
	delName, err := verifyName(deltaName, name)
	if err != nil {
		return err
	}
	if math.IsNaN(delta) {
		return fmt.Errorf("%s is %e, cannot be NaN", delName, delta)
	}
	if delta <= 0 {
		return fmt.Errorf("%s is %e, must be strictly positive", delName, delta)
	}
	if delta >= 1 {
		return fmt.Errorf("%s is %e, must be strictly less than 1", delName, delta)
	}
	return nil
}

// CheckAlpha returns an error if the supplied alpha is not between 0 and 1.
func CheckAlpha(alpha float64, name ...string) error {
	aName, err := verifyName(alphaName, name)
	if err != nil {
		return err
	}
	if alpha <= 0 || alpha >= 1 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return fmt.Errorf("%s is %f, must be within (0, 1) and finite", aName, alpha)
	}
	return nil
}

// CheckProbability returns an error if p is outside of [0, 1].
func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("Probability is %f, must be within [0, 1]", p)
	}
	return nil
}

// CheckArms returns an error if the number of arms is nonpositive.
func CheckArms(arms int) error {
	if arms <= 0 {
		return fmt.Errorf("Arms is %d, must be strictly positive", arms)
	}
	return nil
}

// CheckHorizon returns an error if the horizon is nonpositive or too short to
// pull every one of the arms once.
func CheckHorizon(horizon, arms int) error {
	if horizon <= 0 {
		return fmt.Errorf("Horizon is %d, must be strictly positive", horizon)
	}
	if horizon < arms {
		return fmt.Errorf("Horizon (%d) must be at least the number of arms (%d)", horizon, arms)
	}
	return nil
}

// CheckNumSims returns an error if the number of simulations is nonpositive.
func CheckNumSims(numSims int) error {
	if numSims <= 0 {
		return fmt.Errorf("NumSims is %d, must be strictly positive", numSims)
	}
	return nil
}

// CheckGap returns an error if the gap between consecutive arm means is
// nonpositive or pushes the mean of the worst arm out of (0, 1).
func CheckGap(gap float64, arms int) error {
	if gap <= 0 || math.IsInf(gap, 0) || math.IsNaN(gap) {
		return fmt.Errorf("Gap is %f, must be strictly positive and finite", gap)
	}
	if worst := topMean - float64(arms-1)*gap; worst <= 0 {
		return fmt.Errorf("Gap (%f) with %d arms gives a worst arm mean of %f, must be strictly positive", gap, arms, worst)
	}
	return nil
}

// CheckSensitivity returns an error if sensitivity is negative, NaN or +∞.
// A sensitivity of 0 is accepted; it turns the counter noise off.
func CheckSensitivity(sensitivity float64) error {
	if sensitivity < 0 || math.IsInf(sensitivity, 0) || math.IsNaN(sensitivity) {
		return fmt.Errorf("Sensitivity is %f, must be nonnegative and finite", sensitivity)
	}
	if sensitivity == 0 {
		log.Warningf("Sensitivity is 0: no noise will be added to the counter")
	}
	return nil
}

// CheckBeta returns an error if the max-information parameter β is not in (0, 2].
func CheckBeta(beta float64) error {
	if beta <= 0 || beta > 2 || math.IsNaN(beta) {
		return fmt.Errorf("Beta is %f, must be within (0, 2]", beta)
	}
	return nil
}

// CheckParallelism returns an error if parallelism is negative.
func CheckParallelism(parallelism int) error {
	if parallelism < 0 {
		return fmt.Errorf("Parallelism is %d, must be nonnegative", parallelism)
	}
	return nil
}
