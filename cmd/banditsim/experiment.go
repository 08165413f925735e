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

package main

import (
	"context"
	"fmt"

	log "github.com/golang/glog"
	"github.com/sethneel/bandits-ada/bandit"
	"github.com/sethneel/bandits-ada/config"
	"github.com/sethneel/bandits-ada/evaluate"
	"github.com/sethneel/bandits-ada/noise"
	"github.com/sethneel/bandits-ada/rand"
	"github.com/sethneel/bandits-ada/report"
)

// settings are the flag values shared by every experiment.
type settings struct {
	outputDir   string
	seed        uint64
	parallelism int
	noise       noise.Kind
	plots       bool
	csv         bool
}

// runExperiment evaluates UCB and the private rule of cfg with the same
// parameters and reports both. It returns the evaluations.
func runExperiment(ctx context.Context, cfg *config.Config, s settings) (ucb, private *evaluate.Result, err error) {
	log.Infof("T: %d, K: %d, n_sims: %d, delta: %g, epsilon: %g, gap: %g, alpha: %g, keyword = %s",
		cfg.Horizon, cfg.Arms, cfg.NumSims, cfg.Delta, cfg.Epsilon, cfg.Gap, cfg.Alpha, cfg.Keyword)
	log.Warningf("delta = %g is not used, every step t uses δ_t = 1/(1 + t·ln²t)", cfg.Delta)

	seeder := rand.NewSeeder(s.seed)
	opt := evaluate.Options{
		Horizon:     cfg.Horizon,
		Arms:        cfg.Arms,
		NumSims:     cfg.NumSims,
		Gap:         cfg.Gap,
		Epsilon:     cfg.Epsilon,
		Alpha:       cfg.Alpha,
		Kind:        bandit.UCB,
		Noise:       s.noise,
		Seed:        seeder.Next(),
		Parallelism: s.parallelism,
	}
	ucb, err = evaluate.Evaluate(ctx, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't evaluate UCB: %w", err)
	}
	opt.Kind = cfg.Kind
	opt.Seed = seeder.Next()
	private, err = evaluate.Evaluate(ctx, opt)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't evaluate %v: %w", cfg.Kind, err)
	}

	r := report.New(&report.Options{Dir: s.outputDir, Plots: s.plots, CSV: s.csv})
	log.Infof("Run %s: root seed %d", r.RunID(), seeder.Root())
	if _, err := r.Write(ucb, private); err != nil {
		return nil, nil, fmt.Errorf("couldn't report run %s: %w", r.RunID(), err)
	}
	return ucb, private, nil
}
