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

package evaluate

import (
	"fmt"
	"math"

	"github.com/sethneel/bandits-ada/bandit"
	"github.com/sethneel/bandits-ada/hypothesis"
	"gonum.org/v1/gonum/floats"
)

// PseudoRegret returns the average pseudo-regret after every step of a
// trajectory: entry t is ((t+1)·μ* − Σ_{s≤t} μ_{a_s}) / (t+1), where μ* is the
// largest mean.
func PseudoRegret(pulls []int, means []float64) []float64 {
	best := floats.Max(means)
	regret := make([]float64, len(pulls))
	var gathered float64
	for t, arm := range pulls {
		gathered += means[arm]
		steps := float64(t + 1)
		regret[t] = (steps*best - gathered) / steps
	}
	return regret
}

// ConfidenceWidth returns the half-width of the Hoeffding interval around the
// bias estimated from numSims trials, at the 97.5% level used for the
// reported error bars.
func ConfidenceWidth(numSims int) float64 {
	return math.Sqrt(-math.Log(0.975/2) / (2 * float64(numSims)))
}

// Trial is what a single run contributes to the aggregate statistics.
type Trial struct {
	EmpiricalMeans []float64
	Regret         []float64
	// Rejected[i] is set when the plain binomial test rejects the true mean of arm i.
	Rejected []bool
	// CorrectedRejected is as Rejected with the corrected level. Nil when no
	// correction is computed.
	CorrectedRejected []bool
}

// Score runs the per-arm tests on a finished run. The corrected tests are
// computed only when epsilon is strictly positive.
func Score(res *bandit.RunResult, means []float64, alpha, epsilon float64) (*Trial, error) {
	if len(res.History) != len(means) {
		return nil, fmt.Errorf("Score: history has %d arms, want %d", len(res.History), len(means))
	}
	trial := &Trial{
		EmpiricalMeans: res.History.Means(),
		Regret:         PseudoRegret(res.Pulls, means),
		Rejected:       make([]bool, len(means)),
	}
	if epsilon > 0 {
		trial.CorrectedRejected = make([]bool, len(means))
	}
	for arm, s := range res.History {
		p, err := hypothesis.BinomTest(int(math.Round(s.RewardSum)), s.Pulls, means[arm])
		if err != nil {
			return nil, fmt.Errorf("Score: arm %d: %w", arm, err)
		}
		trial.Rejected[arm] = hypothesis.Reject(p, alpha)
		if trial.CorrectedRejected == nil {
			continue
		}
		corrected, err := hypothesis.CorrectedAlpha(alpha, epsilon, s.Pulls, 1)
		if err != nil {
			return nil, fmt.Errorf("Score: arm %d: %w", arm, err)
		}
		trial.CorrectedRejected[arm] = hypothesis.Reject(p, corrected)
	}
	return trial, nil
}

// Aggregate accumulates trials of one experiment.
//
// Not thread-safe.
type Aggregate struct {
	means               []float64
	trials              int
	meanSums            []float64
	regretSums          []float64
	rejections          []float64
	correctedRejections []float64
}

// NewAggregate returns an empty Aggregate for arms with the given true means
// and runs of the given horizon. Corrected rejections are tracked when
// corrected is set.
func NewAggregate(means []float64, horizon int, corrected bool) *Aggregate {
	a := &Aggregate{
		means:      append([]float64(nil), means...),
		meanSums:   make([]float64, len(means)),
		regretSums: make([]float64, horizon),
		rejections: make([]float64, len(means)),
	}
	if corrected {
		a.correctedRejections = make([]float64, len(means))
	}
	return a
}

// Add folds a trial into the aggregate.
func (a *Aggregate) Add(t *Trial) error {
	if len(t.EmpiricalMeans) != len(a.means) || len(t.Rejected) != len(a.means) {
		return fmt.Errorf("Aggregate.Add: trial has %d arms, want %d", len(t.EmpiricalMeans), len(a.means))
	}
	if len(t.Regret) != len(a.regretSums) {
		return fmt.Errorf("Aggregate.Add: trial has %d steps, want %d", len(t.Regret), len(a.regretSums))
	}
	if a.correctedRejections != nil && len(t.CorrectedRejected) != len(a.means) {
		return fmt.Errorf("Aggregate.Add: trial is missing the corrected tests")
	}
	floats.Add(a.meanSums, t.EmpiricalMeans)
	floats.Add(a.regretSums, t.Regret)
	for arm, r := range t.Rejected {
		if r {
			a.rejections[arm]++
		}
		if a.correctedRejections != nil && t.CorrectedRejected[arm] {
			a.correctedRejections[arm]++
		}
	}
	a.trials++
	return nil
}

// Trials returns the number of trials added so far.
func (a *Aggregate) Trials() int {
	return a.trials
}

// Result is the outcome of an experiment, averaged over its trials.
type Result struct {
	Kind    bandit.SelectorKind
	Epsilon float64
	NumSims int
	Seed    uint64 // Root seed the trial seeds were derived from.

	Means []float64 // True arm means.
	// Bias[i] is the average empirical mean of arm i minus its true mean.
	Bias []float64
	// Regret[t] is the average pseudo-regret after step t+1.
	Regret []float64
	// CumulativeRegret[t] is (t+1)·Regret[t].
	CumulativeRegret []float64
	// TypeIError[i] is the fraction of trials where the plain test rejected
	// the true mean of arm i.
	TypeIError []float64
	// CorrectedTypeIError is as TypeIError with the corrected level. Nil when
	// no correction was computed.
	CorrectedTypeIError []float64
	ConfidenceWidth     float64
}

// Finalize divides the accumulated sums by the number of trials.
func (a *Aggregate) Finalize() (*Result, error) {
	if a.trials == 0 {
		return nil, fmt.Errorf("Finalize: no trials were added")
	}
	scale := 1 / float64(a.trials)
	res := &Result{
		NumSims:         a.trials,
		Means:           append([]float64(nil), a.means...),
		Bias:            make([]float64, len(a.means)),
		Regret:          make([]float64, len(a.regretSums)),
		TypeIError:      make([]float64, len(a.means)),
		ConfidenceWidth: ConfidenceWidth(a.trials),
	}
	floats.ScaleTo(res.Bias, scale, a.meanSums)
	floats.Sub(res.Bias, a.means)
	floats.ScaleTo(res.Regret, scale, a.regretSums)
	floats.ScaleTo(res.TypeIError, scale, a.rejections)
	if a.correctedRejections != nil {
		res.CorrectedTypeIError = make([]float64, len(a.means))
		floats.ScaleTo(res.CorrectedTypeIError, scale, a.correctedRejections)
	}
	steps := make([]float64, len(res.Regret))
	for t := range steps {
		steps[t] = float64(t + 1)
	}
	res.CumulativeRegret = make([]float64, len(res.Regret))
	floats.MulTo(res.CumulativeRegret, steps, res.Regret)
	return res, nil
}
