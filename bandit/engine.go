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

// Package bandit runs UCB and its differentially private variants on
// Bernoulli arms.
//
// The arms have means 0.9, 0.9−gap, 0.9−2·gap, ... Every run starts by
// pulling each arm once in index order; after that a Selector picks the arm
// at every step. The private selectors read per-arm corrections from a
// counter.NoiseTable generated for the run.
package bandit

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/sethneel/bandits-ada/checks"
	"github.com/sethneel/bandits-ada/counter"
	"github.com/sethneel/bandits-ada/noise"
)

const (
	// TopMean is the mean of arm 0, the best arm.
	TopMean = 0.9
	// CounterSensitivity is the sensitivity of the private counter of each arm.
	CounterSensitivity = 2.0
)

// Means returns the means of the arms, spaced by gap below TopMean.
func Means(gap float64, arms int) []float64 {
	means := make([]float64, arms)
	mu := TopMean
	for i := range means {
		means[i] = mu
		mu -= gap
	}
	return means
}

// Delta returns the confidence parameter δ_t = 1/(1 + t·ln²t) used at step t.
func Delta(t int) float64 {
	lnT := math.Log(float64(t))
	return 1.0 / (1.0 + float64(t)*lnT*lnT)
}

// Observer is called after every pull with the 1-based step, the arm and the reward.
type Observer func(t, arm int, reward float64)

// RunResult is the outcome of one run.
type RunResult struct {
	History History // Final per-arm record.
	Pulls   []int   // Arm pulled at every step; its length is the horizon.
}

// EngineOptions contains the options necessary to initialize an Engine.
type EngineOptions struct {
	Horizon int          // Number of pulls T. Required, at least Arms.
	Arms    int          // Number of arms K. Required.
	Gap     float64      // Gap between consecutive arm means. Required.
	Kind    SelectorKind // Arm selection rule. Defaults to UCB.
	Epsilon float64      // Privacy parameter ε. Required with private rules.
	// Noise sampler for the private counter. Defaults to Laplace noise from a
	// freshly seeded source. Ignored by UCB.
	Noise noise.Noise
	// Rewards draws the Bernoulli rewards. Defaults to a freshly seeded source.
	Rewards *RewardSource
	// Observer, if set, sees every pull.
	Observer Observer
}

// Engine runs bandit simulations with fixed parameters.
//
// Not thread-safe: the reward and noise sources are consumed by Run.
type Engine struct {
	horizon  int
	means    []float64
	kind     SelectorKind
	epsilon  float64
	noise    noise.Noise
	rewards  *RewardSource
	observer Observer
}

// NewEngine returns a new Engine, or an error if the options are invalid.
func NewEngine(opt *EngineOptions) (*Engine, error) {
	if opt == nil {
		opt = &EngineOptions{}
	}
	if err := checks.CheckArms(opt.Arms); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	if err := checks.CheckHorizon(opt.Horizon, opt.Arms); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	if err := checks.CheckGap(opt.Gap, opt.Arms); err != nil {
		return nil, fmt.Errorf("NewEngine: %w", err)
	}
	switch opt.Kind {
	case UCB, PrivateUCB, PrivateGreedy:
	default:
		return nil, fmt.Errorf("NewEngine: unknown selector kind %v", opt.Kind)
	}
	if opt.Kind.Private() {
		if err := checks.CheckEpsilonStrict(opt.Epsilon); err != nil {
			return nil, fmt.Errorf("NewEngine: %w", err)
		}
	}
	n := opt.Noise
	if n == nil {
		n = noise.Laplace(nil)
	}
	r := opt.Rewards
	if r == nil {
		r = NewRewardSource(nil)
	}
	return &Engine{
		horizon:  opt.Horizon,
		means:    Means(opt.Gap, opt.Arms),
		kind:     opt.Kind,
		epsilon:  opt.Epsilon,
		noise:    n,
		rewards:  r,
		observer: opt.Observer,
	}, nil
}

// Means returns the true means of the arms.
func (e *Engine) Means() []float64 {
	return append([]float64(nil), e.means...)
}

// Run plays one full run of the engine's selection rule.
func (e *Engine) Run() (*RunResult, error) {
	arms := len(e.means)
	var opt *SelectorOptions
	if e.kind.Private() {
		table, err := counter.GenerateNoiseTable(&counter.NoiseTableOptions{
			Arms:        arms,
			Horizon:     e.horizon,
			Epsilon:     e.epsilon,
			Sensitivity: CounterSensitivity,
			Noise:       e.noise,
		})
		if err != nil {
			return nil, fmt.Errorf("couldn't generate the noise table: %w", err)
		}
		opt = &SelectorOptions{Noise: table, Horizon: e.horizon, Epsilon: e.epsilon}
	}
	sel, err := NewSelector(e.kind, opt)
	if err != nil {
		return nil, err
	}

	res := &RunResult{
		History: NewHistory(arms),
		Pulls:   make([]int, 0, e.horizon),
	}
	pull := func(t, arm int) {
		reward := e.rewards.Sample(e.means[arm])
		res.History.Record(arm, reward)
		res.Pulls = append(res.Pulls, arm)
		if e.observer != nil {
			e.observer(t, arm, reward)
		}
	}

	// Warm start: every arm once, in index order.
	t := 1
	for ; t <= arms; t++ {
		pull(t, t-1)
	}
	for ; t <= e.horizon; t++ {
		arm := sel.Select(Delta(t), res.History)
		if log.V(2) {
			log.Infof("step %d: %v pulls arm %d", t, e.kind, arm)
		}
		pull(t, arm)
	}
	return res, nil
}
