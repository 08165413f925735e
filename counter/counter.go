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

// Package counter implements the binary mechanism (tree aggregation) for
// releasing a differentially private running sum at every step of a stream.
//
// A stream of length T is covered by the dyadic intervals of a binary tree.
// The release at step j sums one noisy partial sum per set bit of j, so every
// element takes part in at most bits.Len(T) noisy partial sums and the whole
// sequence of T releases is ε-differentially private, while each release
// carries only O(log T) noise draws.
//
// See https://eprint.iacr.org/2010/076.pdf.
package counter

import (
	"fmt"
	"math"
	"math/bits"

	log "github.com/golang/glog"
	"github.com/sethneel/bandits-ada/checks"
	"github.com/sethneel/bandits-ada/noise"
)

// BinaryMechanism releases a noisy running sum of a stream of at most Horizon
// values.
//
// Every level draws its noise with ε' = ε/log2(Horizon). A level
// noise is drawn when its partial sum is started and is reused by every later
// release that covers the same dyadic interval.
//
// Not thread-safe.
type BinaryMechanism struct {
	// Parameters
	epsilon      float64
	levelEpsilon float64
	sensitivity  float64
	horizon      int
	noise        noise.Noise

	// State variables
	t          int       // number of elements added so far
	partial    []float64 // exact partial sum per level
	levelNoise []float64 // noise attached to each level's partial sum
	draws      int       // number of noise draws so far
}

// MechanismOptions contains the options necessary to initialize a BinaryMechanism.
type MechanismOptions struct {
	Epsilon     float64     // Privacy parameter ε for the whole stream. Required.
	Horizon     int         // Maximum length T of the stream. Required.
	Sensitivity float64     // How much a single element can change a partial sum. 0 disables the noise.
	Noise       noise.Noise // Noise sampler. Defaults to Laplace noise from a freshly seeded source.
}

// Levels returns the number of levels of the tree for a stream of the given
// length, i.e. the number of binary digits of horizon.
func Levels(horizon int) int {
	return bits.Len(uint(horizon))
}

// LevelEpsilon returns the budget ε' = ε/log2(horizon) spent by every level
// noise. It is +Inf for a horizon of 1, whose single release carries no noise.
func LevelEpsilon(epsilon float64, horizon int) float64 {
	return epsilon / math.Log2(float64(horizon))
}

// NewBinaryMechanism returns a new BinaryMechanism with an empty stream.
func NewBinaryMechanism(opt *MechanismOptions) (*BinaryMechanism, error) {
	if opt == nil {
		opt = &MechanismOptions{}
	}
	if err := checks.CheckEpsilonStrict(opt.Epsilon); err != nil {
		return nil, fmt.Errorf("NewBinaryMechanism: %w", err)
	}
	if opt.Horizon <= 0 {
		return nil, fmt.Errorf("NewBinaryMechanism: Horizon is %d, must be strictly positive", opt.Horizon)
	}
	if err := checks.CheckSensitivity(opt.Sensitivity); err != nil {
		return nil, fmt.Errorf("NewBinaryMechanism: %w", err)
	}
	n := opt.Noise
	if n == nil {
		n = noise.Laplace(nil)
	}
	levels := Levels(opt.Horizon)
	return &BinaryMechanism{
		epsilon:      opt.Epsilon,
		levelEpsilon: LevelEpsilon(opt.Epsilon, opt.Horizon),
		sensitivity:  opt.Sensitivity,
		horizon:      opt.Horizon,
		noise:        n,
		partial:      make([]float64, levels),
		levelNoise:   make([]float64, levels),
	}, nil
}

// Add appends x to the stream and returns the noisy running sum of all the
// elements added so far.
func (bm *BinaryMechanism) Add(x float64) (float64, error) {
	if bm.t >= bm.horizon {
		return 0, fmt.Errorf("the stream is full: %d elements were already added", bm.horizon)
	}
	bm.t++
	i := bits.TrailingZeros(uint(bm.t))

	// The new partial sum at level i absorbs the lower levels, which restart.
	sum := x
	for l := 0; l < i; l++ {
		sum += bm.partial[l]
		bm.partial[l] = 0
		bm.levelNoise[l] = 0
	}
	bm.partial[i] = sum
	bm.levelNoise[i] = 0
	if !math.IsInf(bm.levelEpsilon, 1) {
		draw, err := bm.noise.Sample(bm.sensitivity, bm.levelEpsilon)
		if err != nil {
			return 0, fmt.Errorf("couldn't draw noise for level %d at step %d: %w", i, bm.t, err)
		}
		bm.levelNoise[i] = draw
		bm.draws++
	}

	var release float64
	for l := range bm.partial {
		if bm.t&(1<<l) != 0 {
			release += bm.partial[l] + bm.levelNoise[l]
		}
	}
	return release, nil
}

// Noise returns the noise carried by the latest release: the sum of the level
// noises of the set bits of the current step.
func (bm *BinaryMechanism) Noise() float64 {
	var n float64
	for l := range bm.levelNoise {
		if bm.t&(1<<l) != 0 {
			n += bm.levelNoise[l]
		}
	}
	return n
}

// Step returns the number of elements added so far.
func (bm *BinaryMechanism) Step() int {
	return bm.t
}

// Draws returns the number of noise draws made so far. It grows by one per
// element (none when Horizon is 1), whereas a single release only ever sums ActiveLevels of them.
func (bm *BinaryMechanism) Draws() int {
	return bm.draws
}

// ActiveLevels returns the number of level noises summed by the latest release.
func (bm *BinaryMechanism) ActiveLevels() int {
	return bits.OnesCount(uint(bm.t))
}

// Levels returns the number of levels of the tree.
func (bm *BinaryMechanism) Levels() int {
	return len(bm.partial)
}

// LevelEpsilon returns ε' = ε/log2(Horizon), the budget of every level noise.
func (bm *BinaryMechanism) LevelEpsilon() float64 {
	return bm.levelEpsilon
}

// LowestSetBit returns the position of the lowest-order '1' in a string of
// binary digits, counting from the rightmost digit: LowestSetBit("0100") is 2.
// It returns -1 if the string holds no '1'. BinaryMechanism does not use it and
// works on bits.TrailingZeros of the step instead.
func LowestSetBit(binary string) int {
	for i := len(binary) - 1; i >= 0; i-- {
		if binary[i] == '1' {
			return len(binary) - 1 - i
		}
	}
	return -1
}

// NoiseTable holds, for every arm, the T per-pull noise corrections of an
// independent binary mechanism over that arm's stream. It is immutable.
type NoiseTable struct {
	rows    [][]float64
	horizon int
	epsilon float64
}

// NoiseTableOptions contains the options necessary to generate a NoiseTable.
type NoiseTableOptions struct {
	Arms        int         // Number of arms K. Required.
	Horizon     int         // Length T of every arm's stream. Required.
	Epsilon     float64     // Privacy parameter ε of each arm's stream. Required.
	Sensitivity float64     // Sensitivity of one stream element. 0 gives an all-zero table.
	Noise       noise.Noise // Noise sampler shared by the arms, drawn in arm order. Defaults to Laplace noise.
}

// GenerateNoiseTable runs one binary mechanism per arm over an all-zero
// stream and records the noise of the release at every step j, divided by j.
func GenerateNoiseTable(opt *NoiseTableOptions) (*NoiseTable, error) {
	if opt == nil {
		opt = &NoiseTableOptions{}
	}
	if err := checks.CheckArms(opt.Arms); err != nil {
		return nil, fmt.Errorf("GenerateNoiseTable: %w", err)
	}
	n := opt.Noise
	if n == nil {
		n = noise.Laplace(nil)
	}
	rows := make([][]float64, opt.Arms)
	for arm := range rows {
		bm, err := NewBinaryMechanism(&MechanismOptions{
			Epsilon:     opt.Epsilon,
			Horizon:     opt.Horizon,
			Sensitivity: opt.Sensitivity,
			Noise:       n,
		})
		if err != nil {
			return nil, fmt.Errorf("GenerateNoiseTable: couldn't initialize the counter of arm %d: %w", arm, err)
		}
		row := make([]float64, opt.Horizon)
		for j := 1; j <= opt.Horizon; j++ {
			release, err := bm.Add(0)
			if err != nil {
				return nil, fmt.Errorf("GenerateNoiseTable: arm %d: %w", arm, err)
			}
			row[j-1] = release / float64(j)
		}
		rows[arm] = row
	}
	log.V(1).Infof("Generated noise table for %d arms over %d steps (ε=%g, ε'=%g, sensitivity=%g, %d levels)",
		opt.Arms, opt.Horizon, opt.Epsilon, LevelEpsilon(opt.Epsilon, opt.Horizon), opt.Sensitivity, Levels(opt.Horizon))
	return &NoiseTable{rows: rows, horizon: opt.Horizon, epsilon: opt.Epsilon}, nil
}

// ZeroNoiseTable returns a table whose corrections are all zero.
func ZeroNoiseTable(arms, horizon int) *NoiseTable {
	rows := make([][]float64, arms)
	for arm := range rows {
		rows[arm] = make([]float64, horizon)
	}
	return &NoiseTable{rows: rows, horizon: horizon}
}

// Correction returns the correction of the given arm after its pulls-th pull.
// pulls must be in [1, Horizon]; anything else is a programming error.
func (nt *NoiseTable) Correction(arm, pulls int) float64 {
	if arm < 0 || arm >= len(nt.rows) {
		log.Fatalf("NoiseTable.Correction: arm %d out of range [0, %d)", arm, len(nt.rows))
	}
	if pulls < 1 || pulls > nt.horizon {
		log.Fatalf("NoiseTable.Correction: pulls %d out of range [1, %d]", pulls, nt.horizon)
	}
	return nt.rows[arm][pulls-1]
}

// Row returns a copy of the corrections of the given arm.
func (nt *NoiseTable) Row(arm int) []float64 {
	return append([]float64(nil), nt.rows[arm]...)
}

// Arms returns the number of arms in the table.
func (nt *NoiseTable) Arms() int {
	return len(nt.rows)
}

// Horizon returns the length of every row.
func (nt *NoiseTable) Horizon() int {
	return nt.horizon
}
