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

package bandit

import (
	"fmt"
)

// ArmStats holds what has been observed on one arm.
type ArmStats struct {
	RewardSum float64 // Sum of the 0/1 rewards received.
	Pulls     int     // Number of pulls.
}

// Mean returns the empirical mean reward of the arm. It is NaN before the
// first pull.
func (s ArmStats) Mean() float64 {
	return s.RewardSum / float64(s.Pulls)
}

// History is the per-arm record of a run, indexed by arm.
type History []ArmStats

// NewHistory returns a History of the given number of arms, none of them pulled.
func NewHistory(arms int) History {
	return make(History, arms)
}

// Record adds the reward of one pull of arm.
func (h History) Record(arm int, reward float64) {
	h[arm].RewardSum += reward
	h[arm].Pulls++
}

// TotalPulls returns the number of pulls across all the arms, which is the
// number of elapsed steps.
func (h History) TotalPulls() int {
	var n int
	for _, s := range h {
		n += s.Pulls
	}
	return n
}

// Means returns the empirical mean of every arm.
func (h History) Means() []float64 {
	means := make([]float64, len(h))
	for arm, s := range h {
		means[arm] = s.Mean()
	}
	return means
}

// warm reports whether every arm has been pulled at least once.
func (h History) warm() bool {
	if len(h) == 0 {
		return false
	}
	for _, s := range h {
		if s.Pulls == 0 {
			return false
		}
	}
	return true
}

// Validate returns an error if the history breaks an invariant: pulls must be
// nonnegative and at least the reward sum, which is itself nonnegative.
func (h History) Validate() error {
	for arm, s := range h {
		if s.Pulls < 0 || s.RewardSum < 0 || s.RewardSum > float64(s.Pulls) {
			return fmt.Errorf("arm %d has reward sum %f over %d pulls, want 0 <= sum <= pulls", arm, s.RewardSum, s.Pulls)
		}
	}
	return nil
}
