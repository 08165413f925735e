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

// Package evaluate repeats bandit runs and aggregates the estimation bias,
// the pseudo-regret and the type-1 errors of binomial tests on the collected
// data.
package evaluate

import (
	"context"
	"fmt"
	"sync"

	log "github.com/golang/glog"
	"github.com/sethneel/bandits-ada/bandit"
	"github.com/sethneel/bandits-ada/checks"
	"github.com/sethneel/bandits-ada/noise"
	"github.com/sethneel/bandits-ada/rand"
	"golang.org/x/sync/errgroup"
)

// Options contains the options of an experiment.
type Options struct {
	Horizon int     // Number of pulls T per trial. Required.
	Arms    int     // Number of arms K. Required.
	NumSims int     // Number of trials. Required.
	Gap     float64 // Gap between consecutive arm means. Required.
	// Epsilon is the privacy parameter. Required with private rules. With UCB
	// it is optional and only used for the corrected tests.
	Epsilon float64
	Alpha   float64             // Level of the binomial tests. Required.
	Kind    bandit.SelectorKind // Arm selection rule. Defaults to UCB.
	Noise   noise.Kind          // Counter noise. Defaults to LaplaceNoise.
	// Seed is the root of the per-trial seeds. 0 draws a random root, which
	// is reported in Result.Seed.
	Seed uint64
	// Parallelism bounds the number of trials run at once. 0 and 1 both run
	// the trials sequentially.
	Parallelism int
}

func (opt *Options) validate() error {
	if err := checks.CheckArms(opt.Arms); err != nil {
		return err
	}
	if err := checks.CheckHorizon(opt.Horizon, opt.Arms); err != nil {
		return err
	}
	if err := checks.CheckNumSims(opt.NumSims); err != nil {
		return err
	}
	if err := checks.CheckGap(opt.Gap, opt.Arms); err != nil {
		return err
	}
	if err := checks.CheckAlpha(opt.Alpha); err != nil {
		return err
	}
	if opt.Kind.Private() || opt.Epsilon != 0 {
		if err := checks.CheckEpsilonStrict(opt.Epsilon); err != nil {
			return err
		}
	}
	switch opt.Noise {
	case noise.LaplaceNoise, noise.SecureLaplaceNoise, noise.NoNoise:
	default:
		return fmt.Errorf("unsupported noise kind %v", opt.Noise)
	}
	return checks.CheckParallelism(opt.Parallelism)
}

// trialSeeds are the seeds of the two random sources of a trial.
type trialSeeds struct {
	rewards, noise uint64
}

// Evaluate runs opt.NumSims independent trials and aggregates them.
//
// Every trial gets its own reward and noise sources, seeded from a sequence
// derived from opt.Seed before any trial starts, so the outcome of every
// trial does not depend on Parallelism. Cancelling ctx stops scheduling new
// trials and returns the context's error.
func Evaluate(ctx context.Context, opt Options) (*Result, error) {
	if err := opt.validate(); err != nil {
		return nil, fmt.Errorf("Evaluate: %w", err)
	}
	seeder := rand.NewSeeder(opt.Seed)
	seeds := make([]trialSeeds, opt.NumSims)
	for i := range seeds {
		seeds[i] = trialSeeds{rewards: seeder.Next(), noise: seeder.Next()}
	}
	means := bandit.Means(opt.Gap, opt.Arms)
	agg := NewAggregate(means, opt.Horizon, opt.Epsilon > 0)
	log.Infof("Evaluating %v: T=%d K=%d n_sims=%d gap=%g ε=%g α=%g seed=%d",
		opt.Kind, opt.Horizon, opt.Arms, opt.NumSims, opt.Gap, opt.Epsilon, opt.Alpha, seeder.Root())

	limit := opt.Parallelism
	if limit < 1 {
		limit = 1
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, s := range seeds {
		if gctx.Err() != nil {
			break
		}
		i, s := i, s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trial, err := runTrial(opt, means, s)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if err := agg.Add(trial); err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			if log.V(1) {
				log.Infof("%v trial %d done (%d/%d)", opt.Kind, i, agg.Trials(), opt.NumSims)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Evaluate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Evaluate: %w", err)
	}

	res, err := agg.Finalize()
	if err != nil {
		return nil, fmt.Errorf("Evaluate: %w", err)
	}
	res.Kind = opt.Kind
	res.Epsilon = opt.Epsilon
	res.Seed = seeder.Root()
	return res, nil
}

func runTrial(opt Options, means []float64, s trialSeeds) (*Trial, error) {
	e, err := bandit.NewEngine(&bandit.EngineOptions{
		Horizon: opt.Horizon,
		Arms:    opt.Arms,
		Gap:     opt.Gap,
		Kind:    opt.Kind,
		Epsilon: opt.Epsilon,
		Noise:   noise.ToNoise(opt.Noise, rand.NewSource(s.noise)),
		Rewards: bandit.NewRewardSource(rand.NewSource(s.rewards)),
	})
	if err != nil {
		return nil, err
	}
	res, err := e.Run()
	if err != nil {
		return nil, err
	}
	return Score(res, means, opt.Alpha, opt.Epsilon)
}
