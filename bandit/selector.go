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
	"math"

	log "github.com/golang/glog"
	"github.com/sethneel/bandits-ada/counter"
	"gonum.org/v1/gonum/floats"
)

// SelectorKind is an enum type. Its values are the supported arm selection rules.
type SelectorKind int

// Arm selection rules.
const (
	UCB SelectorKind = iota
	PrivateUCB
	PrivateGreedy
)

// Keywords naming the selection rules on the command line.
const (
	UCBKeyword           = "ucb"
	PrivateUCBKeyword    = "privucb"
	PrivateGreedyKeyword = "privgreed"
)

func (k SelectorKind) String() string {
	switch k {
	case UCB:
		return UCBKeyword
	case PrivateUCB:
		return PrivateUCBKeyword
	case PrivateGreedy:
		return PrivateGreedyKeyword
	}
	return fmt.Sprintf("SelectorKind(%d)", int(k))
}

// Private reports whether the rule reads the private counter.
func (k SelectorKind) Private() bool {
	return k == PrivateUCB || k == PrivateGreedy
}

// ParseSelectorKind converts a keyword such as "privucb" into a SelectorKind.
func ParseSelectorKind(keyword string) (SelectorKind, error) {
	switch keyword {
	case UCBKeyword:
		return UCB, nil
	case PrivateUCBKeyword:
		return PrivateUCB, nil
	case PrivateGreedyKeyword:
		return PrivateGreedy, nil
	}
	return 0, fmt.Errorf("unknown keyword %q, must be one of %q, %q or %q", keyword, UCBKeyword, PrivateUCBKeyword, PrivateGreedyKeyword)
}

// Selector picks the next arm to pull.
type Selector interface {
	// Select returns the arm with the highest score given the confidence
	// parameter δ and the history. Every arm must have been pulled at least
	// once; calling Select earlier is a programming error and exits the program.
	Select(delta float64, h History) int
}

// SelectorOptions contains the options necessary to build a private Selector.
// They are ignored by UCB.
type SelectorOptions struct {
	Noise   *counter.NoiseTable // Per-arm counter corrections. Required for private rules.
	Horizon int                 // Horizon T of the run. Required for PrivateUCB.
	Epsilon float64             // Privacy parameter ε. Required for PrivateUCB.
}

// NewSelector returns the Selector of the given kind.
func NewSelector(kind SelectorKind, opt *SelectorOptions) (Selector, error) {
	if opt == nil {
		opt = &SelectorOptions{}
	}
	switch kind {
	case UCB:
		return ucb{}, nil
	case PrivateUCB:
		if opt.Noise == nil {
			return nil, fmt.Errorf("NewSelector(%v): a noise table is required", kind)
		}
		if opt.Horizon <= 0 || opt.Epsilon <= 0 {
			return nil, fmt.Errorf("NewSelector(%v): Horizon (%d) and Epsilon (%f) must be strictly positive", kind, opt.Horizon, opt.Epsilon)
		}
		return privateUCB{table: opt.Noise, horizon: opt.Horizon, epsilon: opt.Epsilon}, nil
	case PrivateGreedy:
		if opt.Noise == nil {
			return nil, fmt.Errorf("NewSelector(%v): a noise table is required", kind)
		}
		return privateGreedy{table: opt.Noise}, nil
	}
	return nil, fmt.Errorf("NewSelector: unknown kind %v", kind)
}

func mustBeWarm(h History) {
	if !h.warm() {
		log.Fatalf("Select called before every arm was pulled once (history %v)", h)
	}
}

// exploration returns the Hoeffding bonus sqrt(ln(2/δ)/(2n)).
func exploration(delta float64, pulls int) float64 {
	return math.Sqrt(math.Log(2/delta) / (2 * float64(pulls)))
}

// noisyMean returns the empirical mean of arm shifted by its counter correction.
func noisyMean(table *counter.NoiseTable, h History, arm int) float64 {
	n := h[arm].Pulls
	return h[arm].Mean() + table.Correction(arm, n)/float64(n)
}

type ucb struct{}

func (ucb) Select(delta float64, h History) int {
	mustBeWarm(h)
	scores := make([]float64, len(h))
	for arm, s := range h {
		scores[arm] = s.Mean() + exploration(delta, s.Pulls)
	}
	return floats.MaxIdx(scores)
}

type privateUCB struct {
	table   *counter.NoiseTable
	horizon int
	epsilon float64
}

// gamma is the extra exploration that covers the counter noise:
// K·(ln T)²·ln(K·T·ln T/δ)/ε.
func (p privateUCB) gamma(arms int, delta float64) float64 {
	k, lnT := float64(arms), math.Log(float64(p.horizon))
	return k * lnT * lnT * math.Log(k*float64(p.horizon)*lnT/delta) / p.epsilon
}

func (p privateUCB) Select(delta float64, h History) int {
	mustBeWarm(h)
	gamma := p.gamma(len(h), delta)
	scores := make([]float64, len(h))
	for arm, s := range h {
		scores[arm] = noisyMean(p.table, h, arm) + exploration(delta, s.Pulls) + gamma/float64(s.Pulls)
	}
	return floats.MaxIdx(scores)
}

type privateGreedy struct {
	table *counter.NoiseTable
}

func (p privateGreedy) Select(_ float64, h History) int {
	mustBeWarm(h)
	scores := make([]float64, len(h))
	for arm := range h {
		scores[arm] = noisyMean(p.table, h, arm)
	}
	return floats.MaxIdx(scores)
}
